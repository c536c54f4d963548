package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shelfworks/planogram/pkg/errors"
	"github.com/shelfworks/planogram/pkg/units"
)

const sampleCatalog = `
[[product]]
id = "sku-1001"
name = "Cola 12oz"
brand = "Fizz"
image = "img/sku-1001.png"
dimensions = { width = 2.5, height = 4.75, depth = 2.5 }

[[product]]
id = "sku-2002"
name = "Sea Salt Chips"
brand = "Crunch"

[product.dimensions]
width = 8
height = 11
depth = 3
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}

	p, err := c.Lookup(context.Background(), "sku-1001")
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	want := Product{
		ID:         "sku-1001",
		Name:       "Cola 12oz",
		Brand:      "Fizz",
		Dimensions: units.Dimensions{Width: 2.5, Height: 4.75, Depth: 2.5},
		ImageRef:   "img/sku-1001.png",
	}
	if p != want {
		t.Errorf("Lookup() = %+v, want %+v", p, want)
	}

	chips, _ := c.Lookup(context.Background(), "sku-2002")
	if chips.Dimensions.Height != 11 {
		t.Errorf("table-form dimensions not decoded: %+v", chips.Dimensions)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	if err := os.WriteFile(path, []byte(sampleCatalog), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if got := c.Products(); len(got) != 2 || got[0].ID != "sku-1001" {
		t.Errorf("Products() = %+v", got)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("LoadFile(missing) should fail")
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		code errors.Code
	}{
		{"syntax", `[[product]`, errors.ErrCodeInvalidInput},
		{"no id", "[[product]]\nname = \"x\"\ndimensions = { width = 1, height = 1, depth = 1 }", errors.ErrCodeInvalidInput},
		{"zero width", "[[product]]\nid = \"a\"\ndimensions = { width = 0, height = 1, depth = 1 }", errors.ErrCodeDimensionNonPositive},
		{"duplicate", "[[product]]\nid = \"a\"\ndimensions = { width = 1, height = 1, depth = 1 }\n[[product]]\nid = \"a\"\ndimensions = { width = 1, height = 1, depth = 1 }", errors.ErrCodeDuplicateID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if !errors.Is(err, tt.code) {
				t.Errorf("Parse() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestLookupNotFound(t *testing.T) {
	c, _ := NewStatic()
	_, err := c.Lookup(context.Background(), "ghost")
	if !errors.Is(err, errors.ErrCodeProductNotFound) {
		t.Errorf("Lookup() error = %v, want %s", err, errors.ErrCodeProductNotFound)
	}
	if got := errors.Detail(err, errors.DetailProduct); got != "ghost" {
		t.Errorf("product detail = %q, want ghost", got)
	}

	if _, err := Empty.Lookup(context.Background(), "x"); !errors.Is(err, errors.ErrCodeProductNotFound) {
		t.Errorf("Empty.Lookup() error = %v", err)
	}
}

func TestContains(t *testing.T) {
	c, _ := Parse([]byte(sampleCatalog))
	ctx := context.Background()
	if !Contains(ctx, c, "sku-1001", "sku-2002") {
		t.Error("Contains(known) = false")
	}
	if Contains(ctx, c, "sku-1001", "nope") {
		t.Error("Contains(unknown) = true")
	}
}
