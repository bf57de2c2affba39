package entries

import (
	"context"

	"github.com/dmitrijs2005/healthtrend/internal/models"
)

// Repository describes storage operations on entries.
type Repository interface {
	// Upsert inserts or replaces the entry for (Date, Slot) and sets e.ID.
	// The stored updated_at never moves backwards: when e.UpdatedAt is not
	// newer than the stored value, the stored value plus one is used. e is
	// updated with what was written.
	Upsert(ctx context.Context, e *models.Entry) error

	// Get returns the entry for (date, slot) or common.ErrNotFound.
	Get(ctx context.Context, date string, slot models.TimeSlot) (*models.Entry, error)

	// ListByDateRange returns entries with from <= date <= to, ordered by date
	// and slot. An empty bound is open.
	ListByDateRange(ctx context.Context, from, to string) ([]*models.Entry, error)

	// ListAll returns every entry ordered by date and slot.
	ListAll(ctx context.Context) ([]*models.Entry, error)

	// ListUnsynced returns entries with Synced=false.
	ListUnsynced(ctx context.Context) ([]*models.Entry, error)

	// MarkSynced sets Synced=true if the stored updated_at equals updatedAt.
	// It reports whether a row was changed.
	MarkSynced(ctx context.Context, date string, slot models.TimeSlot, updatedAt int64) (bool, error)

	// ApplyRemote stores a remote value as a synced entry when there is no
	// local entry or the local one is strictly older. It reports whether a
	// row was written.
	ApplyRemote(ctx context.Context, date string, slot models.TimeSlot, sev models.Severity, updatedAt int64) (bool, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// CountUnsynced returns the number of entries waiting to be pushed.
	CountUnsynced(ctx context.Context) (int, error)
}
