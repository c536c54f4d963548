package units

import (
	"math"
	"testing"

	"github.com/shelfworks/planogram/pkg/errors"
)

func TestToPixels(t *testing.T) {
	tests := []struct {
		inches float64
		scale  Scale
		want   float64
	}{
		{2, DefaultScale, 20},
		{0.5, DefaultScale, 5},
		{12, 2.5, 30},
		{0, DefaultScale, 0},
	}

	for _, tt := range tests {
		if got := ToPixels(tt.inches, tt.scale); !ApproxEqual(got, tt.want) {
			t.Errorf("ToPixels(%v, %v) = %v, want %v", tt.inches, tt.scale, got, tt.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	values := []float64{1e-3, 0.1, 1, 2.54, 7.25, 12, 48, 96.125, 1234.5678}
	scales := []Scale{0.01, 0.5, 1, 3, DefaultScale, 72, 96, 300}

	for _, s := range scales {
		for _, v := range values {
			got := ToInches(ToPixels(v, s), s)
			if math.Abs(got-v) > Tolerance {
				t.Errorf("ToInches(ToPixels(%v, %v)) = %v, want %v", v, s, got, v)
			}
		}
	}
}

func TestScaleValidate(t *testing.T) {
	tests := []struct {
		name    string
		scale   Scale
		wantErr bool
	}{
		{"default", DefaultScale, false},
		{"fractional", 0.25, false},
		{"zero", 0, true},
		{"negative", -1, true},
		{"nan", Scale(math.NaN()), true},
		{"inf", Scale(math.Inf(1)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scale.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestScaleOrDefault(t *testing.T) {
	if got := Scale(0).OrDefault(); got != DefaultScale {
		t.Errorf("OrDefault() = %v, want %v", got, DefaultScale)
	}
	if got := Scale(4).OrDefault(); got != 4 {
		t.Errorf("OrDefault() = %v, want 4", got)
	}
}

func TestValidateDimensions(t *testing.T) {
	tests := []struct {
		name      string
		dims      Dimensions
		wantField string
	}{
		{"valid", Dimensions{Width: 2, Height: 6, Depth: 3}, ""},
		{"zero width", Dimensions{Width: 0, Height: 6, Depth: 3}, "width"},
		{"negative height", Dimensions{Width: 2, Height: -1, Depth: 3}, "height"},
		{"zero depth", Dimensions{Width: 2, Height: 6}, "depth"},
		{"nan width", Dimensions{Width: math.NaN(), Height: 6, Depth: 3}, "width"},
		{"all zero reports width first", Dimensions{}, "width"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDimensions(tt.dims)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateDimensions() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, errors.ErrCodeDimensionNonPositive) {
				t.Fatalf("ValidateDimensions() error = %v, want %s", err, errors.ErrCodeDimensionNonPositive)
			}
			if got := errors.Detail(err, errors.DetailField); got != tt.wantField {
				t.Errorf("field detail = %q, want %q", got, tt.wantField)
			}
		})
	}
}

func TestNonNegative(t *testing.T) {
	if !NonNegative(0) || !NonNegative(3) {
		t.Error("NonNegative should accept 0 and positive values")
	}
	if NonNegative(-0.1) || NonNegative(math.NaN()) {
		t.Error("NonNegative should reject negative and NaN")
	}
}
