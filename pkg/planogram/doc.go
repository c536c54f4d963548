// Package planogram binds a fixture to its store assignments, lifecycle status
// and version, and converts it to and from the persisted snapshot format.
//
// # Lifecycle
//
// A planogram starts as [StatusDraft]. It may be activated, moved back to
// draft while active, and archived. Archived planograms are read-only:
// [Planogram.Mutable] reports PLANOGRAM_ARCHIVED for them.
//
//	draft ──► active ──► archived
//	  ▲         │
//	  └─────────┘
//
// A draft may also be archived directly when it is abandoned.
//
// # Snapshots
//
// [Serialize] produces a [Snapshot], a plain-data copy of the whole tree with
// the derived x/y coordinates of every component baked in. [Deserialize]
// rebuilds the tree verbatim and validates every invariant; it never
// recomputes coordinates, so a change to the placement algorithm cannot make
// old versions drift.
//
//	snap := planogram.Serialize(p)
//	data, err := planogram.Marshal(snap)
//	...
//	snap, err = planogram.Unmarshal(data)
//	p, err = planogram.Deserialize(snap)
//
// The JSON field names are part of the compatibility surface. New fields are
// only ever added as optional; removing or renaming one requires bumping
// [SchemaVersion].
package planogram
