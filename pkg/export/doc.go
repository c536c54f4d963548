// Package export renders the fixture hierarchy of a planogram as a diagram.
//
// # Overview
//
// A planogram is a tree: the fixture owns sections, a section owns rows, and
// each placed component sits on exactly one row. This package turns that tree
// into a Graphviz node-link diagram so the structure can be reviewed outside
// the editor.
//
// # Usage
//
//	dot := export.ToDOT(planogram.Serialize(p), export.Options{Detailed: true})
//	svg, err := export.RenderSVG(ctx, dot)
//
// # Options
//
//   - Detailed: include dimensions, facings and pixel coordinates in labels
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is required.
package export
