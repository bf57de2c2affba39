package syncer

import (
	"context"

	"github.com/dmitrijs2005/healthtrend/internal/models"
	"github.com/dmitrijs2005/healthtrend/internal/sheets"
)

// EntryStore is the part of the entries repository the engine needs.
type EntryStore interface {
	ListUnsynced(ctx context.Context) ([]*models.Entry, error)
	Get(ctx context.Context, date string, slot models.TimeSlot) (*models.Entry, error)
	MarkSynced(ctx context.Context, date string, slot models.TimeSlot, updatedAt int64) (bool, error)
	ApplyRemote(ctx context.Context, date string, slot models.TimeSlot, sev models.Severity, updatedAt int64) (bool, error)
}

// RemoteStore is the remote sheet.
type RemoteStore interface {
	ReadAll(ctx context.Context, loc sheets.Location, identity string) ([]models.RemoteRow, error)
	WriteCell(ctx context.Context, loc sheets.Location, identity string, cell sheets.CellAddress, value any) error
	AppendRow(ctx context.Context, loc sheets.Location, identity string, values []any) error
	FindByTitle(ctx context.Context, identity, title string) (sheets.Location, bool, error)
	Create(ctx context.Context, identity, title string) (sheets.Location, error)
}

// SettingsStore holds the recorded sheet URL.
type SettingsStore interface {
	Get(ctx context.Context, key string) (*string, error)
	Set(ctx context.Context, key, value string) error
}
