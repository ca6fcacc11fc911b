// Package store persists canonical album records in SQLite and provides the
// atomic insert-or-merge primitive the engine's consistency guarantees rest
// on.
//
// Two partial unique indexes enforce the engine's identity invariants at the
// database level: no two rows share a nonempty album ID, and rows without an
// external ID are unique per normalized artist+album key. Conflicting writers
// serialize through the database; a losing writer re-merges against the
// committed row rather than stale in-memory state.
package store
