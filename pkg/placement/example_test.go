package placement_test

import (
	"fmt"

	"github.com/shelfworks/planogram/pkg/errors"
	"github.com/shelfworks/planogram/pkg/fixture"
	"github.com/shelfworks/planogram/pkg/placement"
	"github.com/shelfworks/planogram/pkg/units"
)

func ExampleEngine_Place() {
	s := &fixture.Section{ID: "bay-1", Width: 48, Height: 72, HeaderHeight: 4, RowOffset: 2}
	_ = s.AddRow(fixture.Row{ID: "top", Height: 10})

	e := placement.New(units.DefaultScale)
	cola := fixture.PlacedComponent{
		ID:         "cola",
		ProductID:  "sku-123",
		Dimensions: units.Dimensions{Width: 2, Height: 6, Depth: 3},
		Facings:    3,
	}
	placed, _ := e.Place(s, cola, 0, 0)
	fmt.Printf("x=%v y=%v width=%v\n", placed.X, placed.Y, e.OccupiedWidth(placed))

	chips := fixture.PlacedComponent{
		ID:         "chips",
		ProductID:  "sku-456",
		Dimensions: units.Dimensions{Width: 2, Height: 6, Depth: 3},
		Facings:    1,
	}
	_, err := e.Place(s, chips, 0, 59)
	fmt.Println(errors.GetCode(err), errors.Detail(err, errors.DetailBlocking))

	_, err = e.Place(s, chips, 0, 60)
	fmt.Println(err == nil)
	// Output:
	// x=0 y=60 width=60
	// OVERLAP cola
	// true
}
