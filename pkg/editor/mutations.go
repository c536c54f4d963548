package editor

import (
	"context"

	"github.com/shelfworks/planogram/pkg/errors"
	"github.com/shelfworks/planogram/pkg/fixture"
	"github.com/shelfworks/planogram/pkg/planogram"
)

// SectionSpec describes a new section. Rows are appended in order after the
// section geometry is validated.
type SectionSpec struct {
	ID           string
	Name         string
	Width        float64
	Height       float64
	HeaderHeight float64
	RowOffset    float64
	Rows         []fixture.Row
}

// AddSection appends a new empty section to the fixture. An empty id or
// row id is replaced by a generated one.
func (s *Session) AddSection(spec SectionSpec) (*fixture.Section, error) {
	var added *fixture.Section
	err := s.mutate("add-section", func() error {
		sec := &fixture.Section{
			ID:           orNewID(spec.ID),
			Name:         spec.Name,
			Width:        spec.Width,
			Height:       spec.Height,
			HeaderHeight: spec.HeaderHeight,
			RowOffset:    spec.RowOffset,
		}
		for _, r := range spec.Rows {
			r.ID = orNewID(r.ID)
			if err := sec.AddRow(r); err != nil {
				return err
			}
		}
		if err := s.p.Fixture.AddSection(sec); err != nil {
			return err
		}
		added = sec.Clone()
		return nil
	})
	return added, err
}

// RemoveSection removes a section with all of its rows and components.
func (s *Session) RemoveSection(sectionID string) error {
	return s.mutate("remove-section", func() error {
		return s.p.Fixture.RemoveSection(sectionID)
	})
}

// AddRow appends a row at the bottom of a section.
func (s *Session) AddRow(sectionID string, row fixture.Row) (fixture.Row, error) {
	row.ID = orNewID(row.ID)
	err := s.mutate("add-row", func() error {
		sec, err := s.section(sectionID)
		if err != nil {
			return err
		}
		return sec.AddRow(row)
	})
	if err != nil {
		return fixture.Row{}, err
	}
	return row, nil
}

// RemoveLastRow removes the bottom row of a section. It fails with
// ROW_OCCUPIED while components sit on that row.
func (s *Session) RemoveLastRow(sectionID string) (fixture.Row, error) {
	var removed fixture.Row
	err := s.mutate("remove-row", func() error {
		sec, err := s.section(sectionID)
		if err != nil {
			return err
		}
		removed, err = sec.RemoveLastRow()
		return err
	})
	return removed, err
}

// ResizeRow changes the height of a row. It never reflows components: a
// resize that would leave a component too tall or break the section fit is
// rejected.
func (s *Session) ResizeRow(sectionID string, index int, height float64) (fixture.Row, error) {
	var resized fixture.Row
	err := s.mutate("resize-row", func() error {
		sec, err := s.section(sectionID)
		if err != nil {
			return err
		}
		resized, err = s.engine.ResizeRow(sec, index, height)
		return err
	})
	return resized, err
}

// Place puts a component on a row of a section at pixel offset x. An empty
// component id is replaced by a generated one. Component ids are unique
// across the whole fixture.
func (s *Session) Place(sectionID string, c fixture.PlacedComponent, rowIndex int, x float64) (fixture.PlacedComponent, error) {
	c.ID = orNewID(c.ID)
	var placed fixture.PlacedComponent
	err := s.mutate("place", func() error {
		sec, err := s.section(sectionID)
		if err != nil {
			return err
		}
		if owner, _, ok := fixture.FindComponent(s.p.Fixture, c.ID); ok {
			return errors.New(errors.ErrCodeDuplicateID, "component %q already placed in section %q", c.ID, owner.ID).
				With(errors.DetailSection, owner.ID).
				With(errors.DetailComponent, c.ID)
		}
		placed, err = s.engine.Place(sec, c, rowIndex, x)
		return err
	})
	return placed, err
}

// PlaceProduct looks productID up in the catalog and places it with the
// given facings. The catalog's name, brand and dimensions are copied into the
// component.
func (s *Session) PlaceProduct(ctx context.Context, sectionID, productID string, facings, rowIndex int, x float64) (fixture.PlacedComponent, error) {
	product, err := s.catalog.Lookup(ctx, productID)
	if err != nil {
		return fixture.PlacedComponent{}, err
	}
	return s.Place(sectionID, fixture.PlacedComponent{
		ProductID:  product.ID,
		Name:       product.Name,
		Brand:      product.Brand,
		Dimensions: product.Dimensions,
		Facings:    facings,
	}, rowIndex, x)
}

// Move relocates a component within its section. It is all-or-nothing.
func (s *Session) Move(sectionID, componentID string, rowIndex int, x float64) (fixture.PlacedComponent, error) {
	var moved fixture.PlacedComponent
	err := s.mutate("move", func() error {
		sec, err := s.section(sectionID)
		if err != nil {
			return err
		}
		moved, err = s.engine.Move(sec, componentID, rowIndex, x)
		return err
	})
	return moved, err
}

// SetFacings changes the facings of a component. A change that would
// overlap a neighbour or leave the section is rejected and the old facings
// remain.
func (s *Session) SetFacings(sectionID, componentID string, facings int) (fixture.PlacedComponent, error) {
	var updated fixture.PlacedComponent
	err := s.mutate("set-facings", func() error {
		sec, err := s.section(sectionID)
		if err != nil {
			return err
		}
		updated, err = s.engine.SetFacings(sec, componentID, facings)
		return err
	})
	return updated, err
}

// RemoveComponent removes a placed component.
func (s *Session) RemoveComponent(sectionID, componentID string) (fixture.PlacedComponent, error) {
	var removed fixture.PlacedComponent
	err := s.mutate("remove-component", func() error {
		sec, err := s.section(sectionID)
		if err != nil {
			return err
		}
		removed, err = s.engine.Remove(sec, componentID)
		return err
	})
	return removed, err
}

// Rename changes the planogram name.
func (s *Session) Rename(name string) error {
	return s.mutate("rename", func() error {
		if name == "" {
			return errors.New(errors.ErrCodeInvalidInput, "name must not be empty").
				With(errors.DetailField, "name")
		}
		s.p.Name = name
		return nil
	})
}

// AssignStores replaces the list of stores the planogram applies to.
func (s *Session) AssignStores(stores []string) error {
	return s.mutate("assign-stores", func() error {
		return s.p.AssignStores(stores)
	})
}

// SetStatus moves the planogram through its lifecycle. Once archived, the
// planogram rejects every further mutation.
func (s *Session) SetStatus(status planogram.Status) error {
	return s.mutate("set-status", func() error {
		return s.p.Transition(status)
	})
}

func orNewID(id string) string {
	if id == "" {
		return planogram.NewID()
	}
	return id
}
