// Package placement decides whether a product may occupy a shelf row at a
// given horizontal offset and computes the pixel geometry of placed
// components.
//
// # Geometry
//
// A component's occupied span on its row is the half-open pixel interval
//
//	[X, X + Facings*ToPixels(Dimensions.Width))
//
// Two components on the same row are legal neighbours when their spans do not
// intersect; touching edges (one span ends exactly where the next begins) are
// allowed, so products may sit flush. Spans must also stay within the section:
// X >= 0 and X + width <= ToPixels(Section.Width).
//
// Y is the pixel offset of the top of the component's row, measured from the
// top edge of the section: ToPixels(HeaderHeight + RowOffset + heights of the
// rows above). It is recomputed only by this package.
//
// # Atomicity
//
// Every operation validates a candidate against the current section state
// before touching it. A rejected operation leaves the section exactly as it
// was, which keeps the no-overlap invariant true after any sequence of calls.
//
// # Determinism
//
// The engine never reads the clock or a random source. Identical section
// state and identical requests always produce identical outcomes.
package placement
