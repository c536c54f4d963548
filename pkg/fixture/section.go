package fixture

import (
	"slices"
	"strconv"

	"github.com/shelfworks/planogram/pkg/errors"
	"github.com/shelfworks/planogram/pkg/units"
)

// Section is a vertical slice of a fixture with its own shelf rows.
type Section struct {
	ID           string
	Name         string
	Width        float64
	Height       float64
	HeaderHeight float64
	RowOffset    float64
	Rows         []Row
	Components   []PlacedComponent
}

// UsedHeight returns HeaderHeight + RowOffset + the sum of all row heights.
func (s *Section) UsedHeight() float64 {
	used := s.HeaderHeight + s.RowOffset
	for _, r := range s.Rows {
		used += r.Height
	}
	return used
}

// RemainingHeight returns the vertical space still available for rows.
func (s *Section) RemainingHeight() float64 {
	return s.Height - s.UsedHeight()
}

// Fits reports whether extra inches of rows can be added without breaking
// the fit invariant. Sums are compared within [units.Tolerance] so a layout
// accepted here is never rejected by Validate.
func (s *Section) Fits(extra float64) bool {
	return s.UsedHeight()+extra <= s.Height+units.Tolerance
}

// RowTop returns the distance in inches from the top edge of the section to
// the top of row index. Callers must pass a valid index.
func (s *Section) RowTop(index int) float64 {
	top := s.HeaderHeight + s.RowOffset
	for _, r := range s.Rows[:index] {
		top += r.Height
	}
	return top
}

// HasRow reports whether index references an existing row.
func (s *Section) HasRow(index int) bool {
	return index >= 0 && index < len(s.Rows)
}

// AddRow appends r below the existing rows.
//
// Fails with CAPACITY_EXCEEDED if the row would not fit in the remaining
// height; the row list is left unchanged.
func (s *Section) AddRow(r Row) error {
	if r.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "row id must not be empty").
			With(errors.DetailSection, s.ID)
	}
	if !units.Positive(r.Height) {
		return errors.New(errors.ErrCodeDimensionNonPositive, "row height must be positive, got %v", r.Height).
			With(errors.DetailSection, s.ID).
			With(errors.DetailField, "height")
	}
	if slices.ContainsFunc(s.Rows, func(o Row) bool { return o.ID == r.ID }) {
		return errors.New(errors.ErrCodeDuplicateID, "row %q already exists in section %q", r.ID, s.ID).
			With(errors.DetailSection, s.ID)
	}
	if !s.Fits(r.Height) {
		return errors.New(errors.ErrCodeCapacityExceeded,
			"row of %vin does not fit in section %q (%vin remaining)", r.Height, s.ID, s.RemainingHeight()).
			With(errors.DetailSection, s.ID).
			With(errors.DetailRow, strconv.Itoa(len(s.Rows)))
	}
	s.Rows = append(s.Rows, r)
	return nil
}

// RemoveLastRow removes the bottom row. It fails with ROW_OCCUPIED while any
// component still sits on that row.
func (s *Section) RemoveLastRow() (Row, error) {
	if len(s.Rows) == 0 {
		return Row{}, errors.New(errors.ErrCodeNotFound, "section %q has no rows", s.ID).
			With(errors.DetailSection, s.ID)
	}
	last := len(s.Rows) - 1
	if on := s.ComponentsOnRow(last); len(on) > 0 {
		return Row{}, errors.New(errors.ErrCodeRowOccupied,
			"row %d of section %q still holds %d component(s)", last, s.ID, len(on)).
			With(errors.DetailSection, s.ID).
			With(errors.DetailRow, strconv.Itoa(last)).
			With(errors.DetailComponent, on[0].ID)
	}
	r := s.Rows[last]
	s.Rows = s.Rows[:last]
	return r, nil
}

// ComponentIndex returns the position of the component with the given id in
// s.Components, or -1.
func (s *Section) ComponentIndex(id string) int {
	return slices.IndexFunc(s.Components, func(c PlacedComponent) bool { return c.ID == id })
}

// Component returns the component with the given id.
func (s *Section) Component(id string) (PlacedComponent, bool) {
	if i := s.ComponentIndex(id); i >= 0 {
		return s.Components[i], true
	}
	return PlacedComponent{}, false
}

// ComponentsOnRow returns the components placed on row index, in placement
// order.
func (s *Section) ComponentsOnRow(index int) []PlacedComponent {
	var out []PlacedComponent
	for _, c := range s.Components {
		if c.RowIndex == index {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks the section's own geometry, the fit invariant, row ids and
// the row references of its components.
func (s *Section) Validate() error {
	if s.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "section id must not be empty")
	}
	for _, side := range []struct {
		name  string
		value float64
	}{
		{"width", s.Width},
		{"height", s.Height},
	} {
		if !units.Positive(side.value) {
			return errors.New(errors.ErrCodeDimensionNonPositive, "section %s must be positive, got %v", side.name, side.value).
				With(errors.DetailSection, s.ID).
				With(errors.DetailField, side.name)
		}
	}
	for _, band := range []struct {
		name  string
		value float64
	}{
		{"headerHeight", s.HeaderHeight},
		{"rowOffset", s.RowOffset},
	} {
		if !units.NonNegative(band.value) {
			return errors.New(errors.ErrCodeInvalidInput, "section %s must not be negative, got %v", band.name, band.value).
				With(errors.DetailSection, s.ID).
				With(errors.DetailField, band.name)
		}
	}

	rowIDs := make(map[string]bool, len(s.Rows))
	for i, r := range s.Rows {
		if r.ID == "" {
			return errors.New(errors.ErrCodeInvalidInput, "row %d of section %q has no id", i, s.ID).
				With(errors.DetailSection, s.ID).
				With(errors.DetailRow, strconv.Itoa(i))
		}
		if rowIDs[r.ID] {
			return errors.New(errors.ErrCodeDuplicateID, "row %q appears more than once in section %q", r.ID, s.ID).
				With(errors.DetailSection, s.ID).
				With(errors.DetailRow, strconv.Itoa(i))
		}
		rowIDs[r.ID] = true
		if !units.Positive(r.Height) {
			return errors.New(errors.ErrCodeDimensionNonPositive, "row %d of section %q has non-positive height %v", i, s.ID, r.Height).
				With(errors.DetailSection, s.ID).
				With(errors.DetailRow, strconv.Itoa(i))
		}
	}
	if !s.Fits(0) {
		return errors.New(errors.ErrCodeCapacityExceeded,
			"section %q needs %vin but is only %vin tall", s.ID, s.UsedHeight(), s.Height).
			With(errors.DetailSection, s.ID)
	}

	ids := make(map[string]bool, len(s.Components))
	for _, c := range s.Components {
		if c.ID == "" {
			return errors.New(errors.ErrCodeInvalidInput, "component in section %q has no id", s.ID).
				With(errors.DetailSection, s.ID)
		}
		if ids[c.ID] {
			return errors.New(errors.ErrCodeDuplicateID, "component %q appears more than once in section %q", c.ID, s.ID).
				With(errors.DetailSection, s.ID).
				With(errors.DetailComponent, c.ID)
		}
		ids[c.ID] = true
		if !s.HasRow(c.RowIndex) {
			return errors.New(errors.ErrCodeInvalidRow, "component %q references missing row %d", c.ID, c.RowIndex).
				With(errors.DetailSection, s.ID).
				With(errors.DetailComponent, c.ID).
				With(errors.DetailRow, strconv.Itoa(c.RowIndex))
		}
		if c.Facings < 1 {
			return errors.New(errors.ErrCodeInvalidFacings, "component %q has %d facings", c.ID, c.Facings).
				With(errors.DetailSection, s.ID).
				With(errors.DetailComponent, c.ID)
		}
		if err := units.ValidateDimensions(c.Dimensions); err != nil {
			return errors.Wrap(errors.ErrCodeDimensionNonPositive, err, "component %q", c.ID).
				With(errors.DetailSection, s.ID).
				With(errors.DetailComponent, c.ID)
		}
	}
	return nil
}

// Clone returns a deep copy of the section.
func (s *Section) Clone() *Section {
	if s == nil {
		return nil
	}
	out := *s
	out.Rows = slices.Clone(s.Rows)
	out.Components = slices.Clone(s.Components)
	return &out
}
