package fixture

import (
	"slices"

	"github.com/shelfworks/planogram/pkg/errors"
	"github.com/shelfworks/planogram/pkg/units"
)

// Fixture is the top-level physical display unit (a gondola, endcap or
// cooler). It is the unit of creation, save and deletion.
type Fixture struct {
	ID       string
	Name     string
	Author   string
	Sections []*Section
}

// New creates an empty fixture.
func New(id, name string) *Fixture {
	return &Fixture{ID: id, Name: name}
}

// Section returns the section with the given id.
func (f *Fixture) Section(id string) (*Section, bool) {
	for _, s := range f.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// AddSection appends s to the fixture. Insertion order is preserved; later
// sections render after earlier ones.
//
// Fails with DUPLICATE_ID if a section with the same id exists, and with the
// errors of [Section.Validate] if the section's own geometry is invalid.
func (f *Fixture) AddSection(s *Section) error {
	if s == nil || s.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "section id must not be empty")
	}
	if _, exists := f.Section(s.ID); exists {
		return errors.New(errors.ErrCodeDuplicateID, "section %q already exists", s.ID).
			With(errors.DetailSection, s.ID)
	}
	if err := s.Validate(); err != nil {
		return err
	}
	f.Sections = append(f.Sections, s)
	return nil
}

// RemoveSection removes the section with the given id together with all of
// its rows and placed components.
func (f *Fixture) RemoveSection(id string) error {
	i := slices.IndexFunc(f.Sections, func(s *Section) bool { return s.ID == id })
	if i < 0 {
		return errors.New(errors.ErrCodeNotFound, "section %q not found", id).
			With(errors.DetailSection, id)
	}
	f.Sections = slices.Delete(f.Sections, i, i+1)
	return nil
}

// ComponentCount returns the number of placed components across all sections.
func (f *Fixture) ComponentCount() int {
	n := 0
	for _, s := range f.Sections {
		n += len(s.Components)
	}
	return n
}

// Validate checks the structural invariants of the whole tree: unique
// section ids, per-section geometry and fit, and fixture-wide unique
// component ids. Horizontal overlap depends on the rendering scale and is
// checked by the placement package.
func (f *Fixture) Validate() error {
	if f.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "fixture id must not be empty")
	}
	sections := make(map[string]bool, len(f.Sections))
	components := make(map[string]string)
	for _, s := range f.Sections {
		if s == nil {
			return errors.New(errors.ErrCodeInvalidInput, "fixture %q contains a nil section", f.ID)
		}
		if sections[s.ID] {
			return errors.New(errors.ErrCodeDuplicateID, "section %q appears more than once", s.ID).
				With(errors.DetailSection, s.ID)
		}
		sections[s.ID] = true
		if err := s.Validate(); err != nil {
			return err
		}
		for _, c := range s.Components {
			if owner, dup := components[c.ID]; dup {
				return errors.New(errors.ErrCodeDuplicateID, "component %q appears in sections %q and %q", c.ID, owner, s.ID).
					With(errors.DetailComponent, c.ID).
					With(errors.DetailSection, s.ID)
			}
			components[c.ID] = s.ID
		}
	}
	return nil
}

// Clone returns a deep copy of the fixture.
func (f *Fixture) Clone() *Fixture {
	if f == nil {
		return nil
	}
	out := &Fixture{ID: f.ID, Name: f.Name, Author: f.Author}
	if f.Sections != nil {
		out.Sections = make([]*Section, len(f.Sections))
		for i, s := range f.Sections {
			out.Sections[i] = s.Clone()
		}
	}
	return out
}

// Row is a single shelf level. Its ordinal is its index within the owning
// section's Rows.
type Row struct {
	ID     string
	Height float64
}

// PlacedComponent is one product occupying space on one row of one section.
//
// X and Y are pixel coordinates derived by the placement engine. They are a
// cache of the engine's output and are snapshotted verbatim on save.
type PlacedComponent struct {
	ID         string
	ProductID  string
	Name       string
	Brand      string
	Dimensions units.Dimensions
	Facings    int
	RowIndex   int
	X          float64
	Y          float64
}
