// Package syncer reconciles the local entry store with the remote sheet.
//
// One pass (Engine.ExecuteSync) reads the whole sheet once, then pushes
// unsynced local entries and finally pulls remote cells, strictly in that
// order and one remote call at a time. Conflicts are settled per cell by
// comparing timestamps: the strictly newer side wins and equal timestamps
// count as already synchronized. Running a pass twice without changes in
// between performs no writes.
//
// The engine keeps no state between passes and takes no locks. Callers must
// not run two passes concurrently; the scheduler package guarantees that.
// Remote failures abort the pass and are returned unchanged so the caller
// can decide on a retry. Malformed remote cells are skipped.
package syncer
