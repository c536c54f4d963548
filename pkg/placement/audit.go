package placement

import (
	"strconv"

	"github.com/shelfworks/planogram/pkg/errors"
	"github.com/shelfworks/planogram/pkg/fixture"
	"github.com/shelfworks/planogram/pkg/units"
)

// Audit returns every invariant violation in s: section structure, finite
// x offsets, component heights, section bounds and pairwise overlaps. Derived y values are not
// compared against the current algorithm since they are snapshotted verbatim.
// An empty result means the section is valid.
func (e *Engine) Audit(s *fixture.Section) []error {
	if err := s.Validate(); err != nil {
		return []error{err}
	}

	var problems []error
	limit := units.ToPixels(s.Width, e.scale)
	for _, c := range s.Components {
		if !units.Finite(c.X) {
			problems = append(problems, nonFiniteX(s, c))
			continue
		}
		row := s.Rows[c.RowIndex]
		if c.Dimensions.Height > row.Height {
			problems = append(problems, errors.New(errors.ErrCodeComponentTooTall,
				"component %q is taller than row %d", c.ID, c.RowIndex).
				With(errors.DetailSection, s.ID).
				With(errors.DetailRow, strconv.Itoa(c.RowIndex)).
				With(errors.DetailComponent, c.ID))
		}
		if start, end := e.Span(c); start < 0 || end > limit+units.Tolerance {
			problems = append(problems, errors.New(errors.ErrCodeOutOfBounds,
				"component %q spans [%v, %v) outside [0, %v)", c.ID, start, end, limit).
				With(errors.DetailSection, s.ID).
				With(errors.DetailRow, strconv.Itoa(c.RowIndex)).
				With(errors.DetailComponent, c.ID))
		}
	}

	for i := range s.Components {
		for j := i + 1; j < len(s.Components); j++ {
			a, b := s.Components[i], s.Components[j]
			if !units.Finite(a.X) || !units.Finite(b.X) {
				continue
			}
			if e.Overlaps(a, b) {
				problems = append(problems, errors.New(errors.ErrCodeOverlap,
					"components %q and %q overlap on row %d", a.ID, b.ID, a.RowIndex).
					With(errors.DetailSection, s.ID).
					With(errors.DetailRow, strconv.Itoa(a.RowIndex)).
					With(errors.DetailComponent, b.ID).
					With(errors.DetailBlocking, a.ID))
			}
		}
	}
	return problems
}

// AuditFixture audits every section of f in order.
func (e *Engine) AuditFixture(f *fixture.Fixture) []error {
	var problems []error
	for _, s := range f.Sections {
		problems = append(problems, e.Audit(s)...)
	}
	return problems
}

// Check returns the first violation found in f, or nil.
func (e *Engine) Check(f *fixture.Fixture) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if problems := e.AuditFixture(f); len(problems) > 0 {
		return problems[0]
	}
	return nil
}
