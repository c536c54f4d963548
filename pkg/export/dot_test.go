package export

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shelfworks/planogram/pkg/planogram"
	"github.com/shelfworks/planogram/pkg/units"
)

func testSnapshot() planogram.Snapshot {
	return planogram.Snapshot{
		FixtureID:   "fx-1",
		FixtureName: "Gondola",
		Name:        "Drinks",
		Status:      planogram.StatusDraft,
		Sections: []planogram.SectionSnapshot{{
			ID: "bay", Name: "Bay 1", Width: 48, Height: 72, HeaderHeight: 4, RowOffset: 2,
			Rows: []planogram.RowSnapshot{{ID: "top", Height: 10}, {ID: "bottom", Height: 12}},
			Components: []planogram.ComponentSnapshot{
				{ID: "cola", ProductID: "sku-1", Name: "Cola", Facings: 3, RowIndex: 0,
					Dimensions: units.Dimensions{Width: 2, Height: 6, Depth: 2}, X: 0, Y: 60},
				{ID: "lost", ProductID: "sku-2", RowIndex: 7},
			},
		}},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testSnapshot(), Options{})

	want := []string{
		"digraph G {",
		`"fixture:fx-1" -> "section:bay";`,
		`"section:bay" -> "row:bay/top";`,
		`"section:bay" -> "row:bay/bottom";`,
		`"row:bay/top" -> "component:cola";`,
		`"component:cola" [label="Cola"];`,
	}
	for _, w := range want {
		if !strings.Contains(dot, w) {
			t.Errorf("ToDOT() missing %q\n%s", w, dot)
		}
	}
	if strings.Contains(dot, "component:lost") {
		t.Error("ToDOT() should skip components on unknown rows")
	}
}

func TestToDOT_Detailed(t *testing.T) {
	dot := ToDOT(testSnapshot(), Options{Detailed: true})

	for _, w := range []string{`48 x 72 in`, `sku-1 x 3`, `at (0, 60) px`, `height: 12 in`} {
		if !strings.Contains(dot, w) {
			t.Errorf("ToDOT(detailed) missing %q", w)
		}
	}
}

func TestToDOT_Archived(t *testing.T) {
	snap := testSnapshot()
	snap.Status = planogram.StatusArchived
	if dot := ToDOT(snap, Options{}); !strings.Contains(dot, "dashed") {
		t.Error("archived fixture should be drawn dashed")
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(testSnapshot(), Options{Detailed: true}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !bytes.Contains(svg, []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `)) {
		t.Errorf("RenderSVG() root element not normalized: %.200s", svg)
	}
}

func TestRenderSVG_InvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), "digraph {"); err == nil {
		t.Error("RenderSVG() should fail on malformed DOT")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "rewrites root",
			in:   `<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00" xmlns="x"><g/></svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10.00 20.00" width="10" height="20"><g/></svg>`,
		},
		{name: "no viewBox", in: `<svg><g/></svg>`, want: `<svg><g/></svg>`},
		{name: "zero size", in: `<svg viewBox="0 0 0 0"></svg>`, want: `<svg viewBox="0 0 0 0"></svg>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(normalizeViewBox([]byte(tt.in))); got != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", got, tt.want)
			}
		})
	}
}
