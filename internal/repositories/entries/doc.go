// Package entries persists severity entries in the local database.
//
// # Overview
//
// Repository is the storage contract used by the entry service and the sync
// engine. SQLRepository implements it over a dbx.DBTX (either *sql.DB or
// *sql.Tx) for both sqlite and postgres; placeholders are rebound per dialect.
//
// # Sync bookkeeping
//
// Each row carries updated_at (epoch millis of the last mutation) and a
// synced flag. Local edits go through Upsert and always clear the flag.
// The sync engine uses two guarded writes:
//
//   - MarkSynced only flips the flag when updated_at still equals the value
//     the engine examined, so an edit made during a pass stays pending.
//   - ApplyRemote inserts a missing entry, or overwrites an existing one
//     only when the remote timestamp is strictly newer.
//
// Typical Usage
//
//	repo := entries.NewSQLRepository(db, dbx.DialectSQLite)
//	_ = repo.Upsert(ctx, entry)
//	pending, _ := repo.ListUnsynced(ctx)
//	ok, _ := repo.MarkSynced(ctx, e.Date, e.Slot, e.UpdatedAt)
package entries
