// Package fixture models the physical hierarchy of a planogram: a [Fixture]
// owns an ordered list of [Section] values, each of which owns its shelf
// [Row] values and the [PlacedComponent] values sitting on them.
//
// # Ownership
//
// The tree has no back-pointers. Sections, rows and components are owned
// collections addressed by id; reverse lookups such as "which section holds
// component X" are answered by an [Index] that is rebuilt on demand, so
// removing a section can never leave a dangling reference.
//
// # Row Convention
//
// A row's ordinal is its index in [Section.Rows]. Index 0 is the topmost
// shelf and vertical offsets grow downward from the top edge of the section:
//
//	+---------------------------+  0
//	| header band               |
//	| row offset                |
//	+---------------------------+  RowTop(0)
//	| row 0                     |
//	+---------------------------+  RowTop(1)
//	| row 1                     |
//	+---------------------------+
//
// Rows are append-only (with remove-last) so the index of an existing row,
// and therefore every component's RowIndex, stays stable.
//
// # Fit Invariant
//
// For every section, HeaderHeight + RowOffset + sum(row heights) <= Height.
// Operations that would break it fail with CAPACITY_EXCEEDED instead of
// clamping.
//
// Pixel geometry of placed components is not computed here; see the
// placement package.
package fixture
