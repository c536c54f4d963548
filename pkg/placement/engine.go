package placement

import (
	"slices"
	"strconv"

	"github.com/shelfworks/planogram/pkg/errors"
	"github.com/shelfworks/planogram/pkg/fixture"
	"github.com/shelfworks/planogram/pkg/units"
)

// Engine places components on section rows at a fixed rendering scale.
// The zero value is not usable; use New.
type Engine struct {
	scale units.Scale
}

// New creates an engine for the given scale. A zero scale selects
// units.DefaultScale.
func New(scale units.Scale) *Engine {
	return &Engine{scale: scale.OrDefault()}
}

// Scale returns the pixels-per-inch factor used by the engine.
func (e *Engine) Scale() units.Scale { return e.scale }

// OccupiedWidth returns the pixel width covered by all facings of c.
func (e *Engine) OccupiedWidth(c fixture.PlacedComponent) float64 {
	return units.ToPixels(c.Dimensions.Width, e.scale) * float64(c.Facings)
}

// Span returns the half-open pixel interval [start, end) covered by c.
func (e *Engine) Span(c fixture.PlacedComponent) (start, end float64) {
	return c.X, c.X + e.OccupiedWidth(c)
}

// Overlaps reports whether a and b share a row and their spans intersect.
// Flush edges do not count as overlap.
func (e *Engine) Overlaps(a, b fixture.PlacedComponent) bool {
	if a.RowIndex != b.RowIndex {
		return false
	}
	as, ae := e.Span(a)
	bs, be := e.Span(b)
	return as < be-units.Tolerance && bs < ae-units.Tolerance
}

// RowY returns the pixel y of the top of row index in s.
func (e *Engine) RowY(s *fixture.Section, index int) float64 {
	return units.ToPixels(s.RowTop(index), e.scale)
}

// Place validates c on row rowIndex at desiredX and, on success, records it
// in s and returns it with its derived X and Y set.
//
// Checks run in order: component id, duplicate id, facings, dimensions, row
// index (INVALID_ROW), height (COMPONENT_TOO_TALL), a finite x
// (INVALID_INPUT), section bounds
// (OUT_OF_BOUNDS) and neighbours on the same row (OVERLAP).
func (e *Engine) Place(s *fixture.Section, c fixture.PlacedComponent, rowIndex int, desiredX float64) (fixture.PlacedComponent, error) {
	if c.ID == "" {
		return fixture.PlacedComponent{}, errors.New(errors.ErrCodeInvalidInput, "component id must not be empty").
			With(errors.DetailSection, s.ID)
	}
	if s.ComponentIndex(c.ID) >= 0 {
		return fixture.PlacedComponent{}, errors.New(errors.ErrCodeDuplicateID, "component %q is already placed in section %q", c.ID, s.ID).
			With(errors.DetailSection, s.ID).
			With(errors.DetailComponent, c.ID)
	}
	c.RowIndex = rowIndex
	c.X = desiredX
	placed, err := e.check(s, c)
	if err != nil {
		return fixture.PlacedComponent{}, err
	}
	s.Components = append(s.Components, placed)
	return placed, nil
}

// Move relocates a placed component to another row and/or x offset. It is
// all-or-nothing: if the new position is invalid the original placement is
// left untouched.
func (e *Engine) Move(s *fixture.Section, componentID string, newRowIndex int, newX float64) (fixture.PlacedComponent, error) {
	i, err := e.find(s, componentID)
	if err != nil {
		return fixture.PlacedComponent{}, err
	}
	candidate := s.Components[i]
	candidate.RowIndex = newRowIndex
	candidate.X = newX
	placed, err := e.check(s, candidate)
	if err != nil {
		return fixture.PlacedComponent{}, err
	}
	s.Components[i] = placed
	return placed, nil
}

// SetFacings changes the number of side-by-side repeats of a component,
// re-validating its widened or narrowed span against its neighbours. A
// rejected change keeps the old facings.
func (e *Engine) SetFacings(s *fixture.Section, componentID string, facings int) (fixture.PlacedComponent, error) {
	i, err := e.find(s, componentID)
	if err != nil {
		return fixture.PlacedComponent{}, err
	}
	if facings < 1 {
		return fixture.PlacedComponent{}, errors.New(errors.ErrCodeInvalidFacings, "facings must be at least 1, got %d", facings).
			With(errors.DetailSection, s.ID).
			With(errors.DetailComponent, componentID)
	}
	candidate := s.Components[i]
	candidate.Facings = facings
	placed, err := e.check(s, candidate)
	if err != nil {
		return fixture.PlacedComponent{}, err
	}
	s.Components[i] = placed
	return placed, nil
}

// Remove deletes a placed component from s and returns it.
func (e *Engine) Remove(s *fixture.Section, componentID string) (fixture.PlacedComponent, error) {
	i, err := e.find(s, componentID)
	if err != nil {
		return fixture.PlacedComponent{}, err
	}
	removed := s.Components[i]
	s.Components = slices.Delete(s.Components, i, i+1)
	return removed, nil
}

// ResizeRow changes the height of row index. Components are never reflowed:
// the resize is rejected with CAPACITY_EXCEEDED if the section would no
// longer fit, or COMPONENT_TOO_TALL if a component on the row is taller than
// the new height. On success the y of every component is recomputed.
func (e *Engine) ResizeRow(s *fixture.Section, index int, height float64) (fixture.Row, error) {
	if !s.HasRow(index) {
		return fixture.Row{}, invalidRow(s, index, "")
	}
	if !units.Positive(height) {
		return fixture.Row{}, errors.New(errors.ErrCodeDimensionNonPositive, "row height must be positive, got %v", height).
			With(errors.DetailSection, s.ID).
			With(errors.DetailRow, strconv.Itoa(index)).
			With(errors.DetailField, "height")
	}
	if delta := height - s.Rows[index].Height; !s.Fits(delta) {
		return fixture.Row{}, errors.New(errors.ErrCodeCapacityExceeded,
			"resizing row %d to %vin needs %vin but section %q is %vin tall", index, height, s.UsedHeight()+delta, s.ID, s.Height).
			With(errors.DetailSection, s.ID).
			With(errors.DetailRow, strconv.Itoa(index))
	}
	for _, c := range s.ComponentsOnRow(index) {
		if c.Dimensions.Height > height {
			return fixture.Row{}, errors.New(errors.ErrCodeComponentTooTall,
				"component %q is %vin tall, row %d would be %vin", c.ID, c.Dimensions.Height, index, height).
				With(errors.DetailSection, s.ID).
				With(errors.DetailRow, strconv.Itoa(index)).
				With(errors.DetailComponent, c.ID)
		}
	}
	s.Rows[index].Height = height
	e.Relayout(s)
	return s.Rows[index], nil
}

// Relayout recomputes the y coordinate of every component in s from the
// current row geometry. X is never changed.
func (e *Engine) Relayout(s *fixture.Section) {
	for i := range s.Components {
		s.Components[i].Y = e.RowY(s, s.Components[i].RowIndex)
	}
}

// check validates candidate against s, ignoring any existing component with
// the same id, and returns it with derived coordinates.
func (e *Engine) check(s *fixture.Section, c fixture.PlacedComponent) (fixture.PlacedComponent, error) {
	if c.Facings < 1 {
		return fixture.PlacedComponent{}, errors.New(errors.ErrCodeInvalidFacings, "facings must be at least 1, got %d", c.Facings).
			With(errors.DetailSection, s.ID).
			With(errors.DetailComponent, c.ID)
	}
	if err := units.ValidateDimensions(c.Dimensions); err != nil {
		return fixture.PlacedComponent{}, errors.Wrap(errors.ErrCodeDimensionNonPositive, err, "component %q", c.ID).
			With(errors.DetailSection, s.ID).
			With(errors.DetailComponent, c.ID).
			With(errors.DetailField, errors.Detail(err, errors.DetailField))
	}
	if !s.HasRow(c.RowIndex) {
		return fixture.PlacedComponent{}, invalidRow(s, c.RowIndex, c.ID)
	}
	row := s.Rows[c.RowIndex]
	if c.Dimensions.Height > row.Height {
		return fixture.PlacedComponent{}, errors.New(errors.ErrCodeComponentTooTall,
			"component %q is %vin tall but row %d is %vin", c.ID, c.Dimensions.Height, c.RowIndex, row.Height).
			With(errors.DetailSection, s.ID).
			With(errors.DetailRow, strconv.Itoa(c.RowIndex)).
			With(errors.DetailComponent, c.ID)
	}

	if !units.Finite(c.X) {
		return fixture.PlacedComponent{}, nonFiniteX(s, c)
	}

	w := e.OccupiedWidth(c)
	if limit := units.ToPixels(s.Width, e.scale); c.X < 0 || c.X+w > limit+units.Tolerance {
		return fixture.PlacedComponent{}, errors.New(errors.ErrCodeOutOfBounds,
			"component %q spans [%v, %v) outside section %q [0, %v)", c.ID, c.X, c.X+w, s.ID, limit).
			With(errors.DetailSection, s.ID).
			With(errors.DetailRow, strconv.Itoa(c.RowIndex)).
			With(errors.DetailComponent, c.ID)
	}

	for _, other := range s.Components {
		if other.ID == c.ID {
			continue
		}
		if e.Overlaps(c, other) {
			os, oe := e.Span(other)
			return fixture.PlacedComponent{}, errors.New(errors.ErrCodeOverlap,
				"component %q at [%v, %v) overlaps %q at [%v, %v) on row %d", c.ID, c.X, c.X+w, other.ID, os, oe, c.RowIndex).
				With(errors.DetailSection, s.ID).
				With(errors.DetailRow, strconv.Itoa(c.RowIndex)).
				With(errors.DetailComponent, c.ID).
				With(errors.DetailBlocking, other.ID)
		}
	}

	c.Y = e.RowY(s, c.RowIndex)
	return c, nil
}

func (e *Engine) find(s *fixture.Section, componentID string) (int, error) {
	i := s.ComponentIndex(componentID)
	if i < 0 {
		return -1, errors.New(errors.ErrCodeComponentNotFound, "component %q not found in section %q", componentID, s.ID).
			With(errors.DetailSection, s.ID).
			With(errors.DetailComponent, componentID)
	}
	return i, nil
}

func nonFiniteX(s *fixture.Section, c fixture.PlacedComponent) *errors.Error {
	return errors.New(errors.ErrCodeInvalidInput, "component %q has non-finite x %v", c.ID, c.X).
		With(errors.DetailSection, s.ID).
		With(errors.DetailRow, strconv.Itoa(c.RowIndex)).
		With(errors.DetailComponent, c.ID).
		With(errors.DetailField, "x")
}

func invalidRow(s *fixture.Section, index int, componentID string) *errors.Error {
	err := errors.New(errors.ErrCodeInvalidRow, "row %d does not exist in section %q (%d rows)", index, s.ID, len(s.Rows)).
		With(errors.DetailSection, s.ID).
		With(errors.DetailRow, strconv.Itoa(index))
	if componentID != "" {
		err = err.With(errors.DetailComponent, componentID)
	}
	return err
}
