package export

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/shelfworks/planogram/pkg/planogram"
)

// Options configures diagram generation.
type Options struct {
	// Detailed includes geometry in node labels. When false only names and
	// ids are shown.
	Detailed bool
}

// ToDOT converts a planogram snapshot to Graphviz DOT format. Node ids are
// prefixed by kind so sections, rows and components never collide.
func ToDOT(snap planogram.Snapshot, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	root := "fixture:" + snap.FixtureID
	fmt.Fprintf(&buf, "  %q [%s];\n", root, strings.Join(fixtureAttrs(snap), ", "))

	for _, sec := range snap.Sections {
		secID := "section:" + sec.ID
		fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=\"#e8f0fe\"];\n", secID, sectionLabel(sec, opts.Detailed))
		fmt.Fprintf(&buf, "  %q -> %q;\n", root, secID)

		for i, row := range sec.Rows {
			rowID := "row:" + sec.ID + "/" + row.ID
			fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=\"#f1f3f4\"];\n", rowID, rowLabel(i, row, opts.Detailed))
			fmt.Fprintf(&buf, "  %q -> %q;\n", secID, rowID)
		}
		for _, c := range sec.Components {
			if c.RowIndex < 0 || c.RowIndex >= len(sec.Rows) {
				continue
			}
			rowID := "row:" + sec.ID + "/" + sec.Rows[c.RowIndex].ID
			compID := "component:" + c.ID
			fmt.Fprintf(&buf, "  %q [label=%q];\n", compID, componentLabel(c, opts.Detailed))
			fmt.Fprintf(&buf, "  %q -> %q;\n", rowID, compID)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fixtureAttrs(snap planogram.Snapshot) []string {
	name := snap.FixtureName
	if name == "" {
		name = snap.FixtureID
	}
	label := fmt.Sprintf("%s\n%s (%s)", name, snap.Name, snap.Status)
	attrs := []string{fmt.Sprintf("label=%q", label), "fillcolor=\"#fce8b2\""}
	if snap.Status == planogram.StatusArchived {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	return attrs
}

func sectionLabel(s planogram.SectionSnapshot, detailed bool) string {
	name := s.Name
	if name == "" {
		name = s.ID
	}
	if !detailed {
		return name
	}
	return fmt.Sprintf("%s\n%s x %s in\nheader: %s in, offset: %s in",
		name, inches(s.Width), inches(s.Height), inches(s.HeaderHeight), inches(s.RowOffset))
}

func rowLabel(index int, r planogram.RowSnapshot, detailed bool) string {
	if !detailed {
		return fmt.Sprintf("row %d", index)
	}
	return fmt.Sprintf("row %d\n%s\nheight: %s in", index, r.ID, inches(r.Height))
}

func componentLabel(c planogram.ComponentSnapshot, detailed bool) string {
	name := c.Name
	if name == "" {
		name = c.ProductID
	}
	if !detailed {
		return name
	}
	parts := []string{
		name,
		fmt.Sprintf("%s x %d", c.ProductID, c.Facings),
		fmt.Sprintf("%s x %s x %s in", inches(c.Dimensions.Width), inches(c.Dimensions.Height), inches(c.Dimensions.Depth)),
		fmt.Sprintf("at (%s, %s) px", inches(c.X), inches(c.Y)),
	}
	return strings.Join(parts, "\n")
}

func inches(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the diagram scales with its
// container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
