// Package units is the single source of truth for physical dimensions and the
// transform between inches and rendering pixels.
//
// All physical sizes in the planogram model are expressed in inches. Pixel
// coordinates are derived from inches by multiplying with a [Scale], which is
// configurable per planogram and defaults to [DefaultScale] (10 px/in).
//
// Every function in this package is pure: no side effects, no hidden state.
package units

import (
	"math"

	"github.com/shelfworks/planogram/pkg/errors"
)

// Scale is the number of pixels per inch.
type Scale float64

// DefaultScale is the default rendering scale in pixels per inch.
const DefaultScale Scale = 10

// Tolerance is the absolute tolerance used when comparing transformed values.
const Tolerance = 1e-6

// Validate reports an INVALID_INPUT error unless s is positive and finite.
func (s Scale) Validate() error {
	f := float64(s)
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be a positive number, got %v", f)
	}
	return nil
}

// OrDefault returns s, or DefaultScale when s is zero.
func (s Scale) OrDefault() Scale {
	if s == 0 {
		return DefaultScale
	}
	return s
}

// ToPixels converts a length in inches to pixels.
func ToPixels(inches float64, scale Scale) float64 {
	return inches * float64(scale)
}

// ToInches converts a length in pixels back to inches. It is the inverse of
// [ToPixels] for any positive scale.
func ToInches(pixels float64, scale Scale) float64 {
	return pixels / float64(scale)
}

// ApproxEqual reports whether a and b differ by at most [Tolerance].
func ApproxEqual(a, b float64) bool {
	return math.Abs(a-b) <= Tolerance
}

// Dimensions is a physical size in inches. It is a pure value type.
type Dimensions struct {
	Width  float64 `json:"width" toml:"width"`
	Height float64 `json:"height" toml:"height"`
	Depth  float64 `json:"depth" toml:"depth"`
}

// ValidateDimensions fails with DIMENSION_NON_POSITIVE if any side is not a
// positive finite number. The offending side is reported in the field detail.
func ValidateDimensions(d Dimensions) error {
	for _, side := range []struct {
		name  string
		value float64
	}{
		{"width", d.Width},
		{"height", d.Height},
		{"depth", d.Depth},
	} {
		if !positive(side.value) {
			return errors.New(errors.ErrCodeDimensionNonPositive, "%s must be positive, got %v", side.name, side.value).
				With(errors.DetailField, side.name)
		}
	}
	return nil
}

// Positive reports whether v is a positive finite number.
func Positive(v float64) bool { return positive(v) }

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// NonNegative reports whether v is a finite number >= 0.
func NonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func positive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
