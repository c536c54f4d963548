// Package catalog resolves product ids to the reference data needed to place
// a product on a shelf.
//
// The catalog is read-only from the engine's point of view: placing a
// product copies its name, brand and dimensions into the placed component,
// and later catalog changes do not affect existing placements.
package catalog

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/shelfworks/planogram/pkg/errors"
	"github.com/shelfworks/planogram/pkg/units"
)

// Product is catalog reference data for one product.
type Product struct {
	ID         string           `json:"id" toml:"id"`
	Name       string           `json:"name" toml:"name"`
	Brand      string           `json:"brand" toml:"brand"`
	Dimensions units.Dimensions `json:"dimensions" toml:"dimensions"`
	ImageRef   string           `json:"imageRef,omitempty" toml:"image,omitempty"`
}

// Validate checks that p has an id and positive dimensions.
func (p Product) Validate() error {
	if p.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "product id must not be empty")
	}
	if err := units.ValidateDimensions(p.Dimensions); err != nil {
		return errors.Wrap(errors.ErrCodeDimensionNonPositive, err, "product %q", p.ID).
			With(errors.DetailProduct, p.ID).
			With(errors.DetailField, errors.Detail(err, errors.DetailField))
	}
	return nil
}

// Catalog looks up products by id.
type Catalog interface {
	// Lookup returns the product, or a PRODUCT_NOT_FOUND error.
	Lookup(ctx context.Context, productID string) (Product, error)
}

// Static is an in-memory catalog. It is safe for concurrent use.
type Static struct {
	mu       sync.RWMutex
	products map[string]Product
}

// NewStatic creates a catalog holding products. Invalid or duplicate
// products are rejected.
func NewStatic(products ...Product) (*Static, error) {
	c := &Static{products: make(map[string]Product, len(products))}
	for _, p := range products {
		if err := c.Add(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add registers p. Fails with DUPLICATE_ID if the id is already present.
func (c *Static) Add(p Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.products[p.ID]; ok {
		return errors.New(errors.ErrCodeDuplicateID, "product %q already in catalog", p.ID).
			With(errors.DetailProduct, p.ID)
	}
	c.products[p.ID] = p
	return nil
}

func (c *Static) Lookup(ctx context.Context, productID string) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[productID]
	if !ok {
		return Product{}, errors.New(errors.ErrCodeProductNotFound, "product %q not in catalog", productID).
			With(errors.DetailProduct, productID)
	}
	return p, nil
}

// Products returns all products sorted by id.
func (c *Static) Products() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of products.
func (c *Static) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

type catalogFile struct {
	Products []Product `toml:"product"`
}

// LoadFile reads a TOML catalog:
//
//	[[product]]
//	id = "sku-1001"
//	name = "Cola 12oz"
//	brand = "Fizz"
//	image = "img/sku-1001.png"
//	dimensions = { width = 2.5, height = 4.75, depth = 2.5 }
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a TOML catalog document. See [LoadFile] for the format.
func Parse(data []byte) (*Static, error) {
	var file catalogFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse catalog")
	}
	return NewStatic(file.Products...)
}

// Empty is a catalog with no products.
var Empty Catalog = emptyCatalog{}

type emptyCatalog struct{}

func (emptyCatalog) Lookup(_ context.Context, productID string) (Product, error) {
	return Product{}, errors.New(errors.ErrCodeProductNotFound, "no catalog configured (looking up %q)", productID).
		With(errors.DetailProduct, productID)
}

// Contains reports whether every id in ids resolves in c.
func Contains(ctx context.Context, c Catalog, ids ...string) bool {
	return !slices.ContainsFunc(ids, func(id string) bool {
		_, err := c.Lookup(ctx, id)
		return err != nil
	})
}
