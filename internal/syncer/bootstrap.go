package syncer

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/healthtrend/internal/common"
	"github.com/dmitrijs2005/healthtrend/internal/sheets"
)

// EnsureSheetExists records a sheet URL for identity when none is stored
// yet. An existing sheet with the configured title is reused, so several
// installs share one sheet; otherwise a new one is created with the header
// row. Nothing is stored locally if a remote call fails.
func (e *Engine) EnsureSheetExists(ctx context.Context, identity string) error {
	if identity == "" {
		return nil
	}

	current, err := e.settings.Get(ctx, common.SettingSheetURL)
	if err != nil {
		return fmt.Errorf("read sheet url: %w", err)
	}
	if current != nil && *current != "" {
		return nil
	}

	loc, found, err := e.remote.FindByTitle(ctx, identity, e.title)
	if err != nil {
		return fmt.Errorf("find sheet: %w", err)
	}

	if !found {
		loc, err = e.createSheet(ctx, identity)
		if err != nil {
			return err
		}
	} else {
		e.logger.Info(ctx, "reusing existing sheet", "title", e.title, "id", loc.SpreadsheetID)
	}

	if err := e.settings.Set(ctx, common.SettingSheetURL, loc.URL); err != nil {
		return fmt.Errorf("store sheet url: %w", err)
	}
	return nil
}

func (e *Engine) createSheet(ctx context.Context, identity string) (sheets.Location, error) {
	loc, err := e.remote.Create(ctx, identity, e.title)
	if err != nil {
		return sheets.Location{}, fmt.Errorf("create sheet: %w", err)
	}
	if err := e.remote.AppendRow(ctx, loc, identity, sheets.HeaderRow); err != nil {
		return sheets.Location{}, fmt.Errorf("write header: %w", err)
	}
	return loc, nil
}
