package editor_test

import (
	"context"
	"fmt"

	"github.com/shelfworks/planogram/pkg/editor"
	"github.com/shelfworks/planogram/pkg/errors"
	"github.com/shelfworks/planogram/pkg/fixture"
	"github.com/shelfworks/planogram/pkg/persistence"
	"github.com/shelfworks/planogram/pkg/planogram"
	"github.com/shelfworks/planogram/pkg/store/memory"
	"github.com/shelfworks/planogram/pkg/units"
)

func ExampleSession_Save() {
	ctx := context.Background()
	repo := persistence.New(memory.New(), persistence.Options{})

	p := planogram.New("pg-1", "Drinks", fixture.New("fx-1", "Cooler"))
	a := editor.New(p, editor.WithRepository(repo))
	_, _ = a.AddSection(editor.SectionSpec{
		ID: "bay", Width: 48, Height: 72,
		Rows: []fixture.Row{{ID: "top", Height: 10}},
	})
	saved, _ := a.Save(ctx)
	fmt.Println("saved version", saved.Version)

	b, _ := editor.Open(ctx, repo, "pg-1")
	_, _ = a.Place("bay", fixture.PlacedComponent{
		ID: "cola", Dimensions: units.Dimensions{Width: 2, Height: 6, Depth: 2}, Facings: 2,
	}, 0, 0)
	_ = b.Rename("Cold drinks")

	_, _ = a.Save(ctx)
	_, err := b.Save(ctx)
	fmt.Println(errors.GetCode(err))

	_ = b.Reload(ctx)
	fmt.Println(b.Version(), b.Snapshot().ComponentCount())
	// Output:
	// saved version 1
	// VERSION_CONFLICT
	// 2 1
}
