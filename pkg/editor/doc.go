// Package editor is the single entry point for changing a planogram.
//
// A [Session] owns one planogram, applies mutations through the fixture
// hierarchy and the placement engine, and saves versioned snapshots through a
// [persistence.Repository].
//
// # State Machine
//
//	Editing ──Save──► Saving ──ok──► Editing (version advanced)
//	                    └──error──► Editing (version unchanged, error returned)
//
// While a save is in flight every mutation and any second Save fail with
// SAVE_IN_PROGRESS. Mutations are applied in call order and each one sees the
// result of all earlier ones. A rejected mutation leaves the planogram
// exactly as it was.
//
// After a VERSION_CONFLICT the session keeps its local edits; call
// [Session.Reload] to discard them and continue from the stored version.
package editor
