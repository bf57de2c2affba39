package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/healthtrend/internal/common"
	"github.com/dmitrijs2005/healthtrend/internal/logging"
	"github.com/dmitrijs2005/healthtrend/internal/models"
	"github.com/dmitrijs2005/healthtrend/internal/sheets"
)

type Engine struct {
	entries  EntryStore
	remote   RemoteStore
	settings SettingsStore
	title    string
	logger   logging.Logger
}

func NewEngine(entries EntryStore, remote RemoteStore, settings SettingsStore, title string, logger logging.Logger) *Engine {
	return &Engine{
		entries:  entries,
		remote:   remote,
		settings: settings,
		title:    title,
		logger:   logger.With("module", "syncer"),
	}
}

// pass carries the state of one ExecuteSync call.
type pass struct {
	loc      sheets.Location
	identity string
	rows     []models.RemoteRow
	byDate   map[string]*models.RemoteRow
	nextRow  int
	stats    models.SyncStats
}

// ExecuteSync performs one full push/pull reconciliation against the sheet
// at loc.
func (e *Engine) ExecuteSync(ctx context.Context, loc sheets.Location, identity string) (models.SyncStats, error) {
	rows, err := e.remote.ReadAll(ctx, loc, identity)
	if err != nil {
		return models.SyncStats{}, fmt.Errorf("read sheet: %w", err)
	}

	p := &pass{
		loc:      loc,
		identity: identity,
		rows:     rows,
		byDate:   make(map[string]*models.RemoteRow, len(rows)),
		nextRow:  sheets.NextRow(rows),
	}
	for i := range rows {
		if _, dup := p.byDate[rows[i].Date]; dup {
			e.logger.Warn(ctx, "duplicate date row in sheet, using the first", "date", rows[i].Date, "row", rows[i].RowIndex+1)
			continue
		}
		p.byDate[rows[i].Date] = &rows[i]
	}

	if err := e.push(ctx, p); err != nil {
		return p.stats, err
	}
	if err := e.pull(ctx, p); err != nil {
		return p.stats, err
	}

	e.logger.Info(ctx, "sync pass finished",
		"pushed", p.stats.Pushed, "appended", p.stats.Appended, "marked", p.stats.Marked,
		"pulled", p.stats.Pulled, "skipped", p.stats.Skipped, "writes", p.stats.Writes)
	return p.stats, nil
}

func (e *Engine) push(ctx context.Context, p *pass) error {
	pending, err := e.entries.ListUnsynced(ctx)
	if err != nil {
		return fmt.Errorf("list unsynced: %w", err)
	}

	for _, entry := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		row, ok := p.byDate[entry.Date]
		if !ok {
			if err := e.appendEntry(ctx, p, entry); err != nil {
				return err
			}
			continue
		}

		remoteTs := row.Timestamp(entry.Slot)
		switch {
		case entry.UpdatedAt > remoteTs:
			if err := e.writeSlot(ctx, p, row.RowIndex+1, entry); err != nil {
				return err
			}
			row.Cells[entry.Slot] = models.RemoteCell{Label: entry.Severity.Label(), Timestamp: entry.UpdatedAt}
			p.stats.Pushed++
		case entry.UpdatedAt == remoteTs:
			p.stats.Marked++
		default:
			// remote is newer; pull overwrites the local entry
			continue
		}

		if err := e.markSynced(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

// appendEntry starts a new row for a date the sheet has never seen. Only
// the date and this slot's two cells are written.
func (e *Engine) appendEntry(ctx context.Context, p *pass, entry *models.Entry) error {
	rowNum := p.nextRow

	if err := e.write(ctx, p, sheets.Cell(sheets.DateColumn, rowNum), entry.Date); err != nil {
		return err
	}
	if err := e.writeSlot(ctx, p, rowNum, entry); err != nil {
		return err
	}

	p.nextRow++
	p.byDate[entry.Date] = &models.RemoteRow{
		Date:     entry.Date,
		RowIndex: rowNum - 1,
		Cells: map[models.TimeSlot]models.RemoteCell{
			entry.Slot: {Label: entry.Severity.Label(), Timestamp: entry.UpdatedAt},
		},
	}
	p.stats.Appended++

	return e.markSynced(ctx, entry)
}

func (e *Engine) writeSlot(ctx context.Context, p *pass, rowNum int, entry *models.Entry) error {
	if err := e.write(ctx, p, sheets.Cell(sheets.SeverityColumn(entry.Slot), rowNum), entry.Severity.Label()); err != nil {
		return err
	}
	return e.write(ctx, p, sheets.Cell(sheets.TimestampColumn(entry.Slot), rowNum), entry.UpdatedAt)
}

func (e *Engine) write(ctx context.Context, p *pass, cell sheets.CellAddress, value any) error {
	if err := e.remote.WriteCell(ctx, p.loc, p.identity, cell, value); err != nil {
		return fmt.Errorf("write %s: %w", cell, err)
	}
	p.stats.Writes++
	return nil
}

func (e *Engine) markSynced(ctx context.Context, entry *models.Entry) error {
	ok, err := e.entries.MarkSynced(ctx, entry.Date, entry.Slot, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	if !ok {
		e.logger.Debug(ctx, "entry changed during sync, left pending", "date", entry.Date, "slot", entry.Slot.String())
	}
	return nil
}

func (e *Engine) pull(ctx context.Context, p *pass) error {
	for i := range p.rows {
		row := &p.rows[i]
		if p.byDate[row.Date] != row {
			continue
		}

		for _, slot := range models.TimeSlots {
			sev, ts, ok := row.Value(slot)
			if !ok {
				if c, present := row.Cells[slot]; present {
					p.stats.Skipped++
					e.logger.Debug(ctx, "skipping malformed remote cell",
						"date", row.Date, "slot", slot.String(), "label", c.Label, "timestamp", c.Timestamp)
				}
				continue
			}

			if err := ctx.Err(); err != nil {
				return err
			}

			local, err := e.entries.Get(ctx, row.Date, slot)
			switch {
			case errors.Is(err, common.ErrNotFound):
			case err != nil:
				return fmt.Errorf("get local entry: %w", err)
			case ts <= local.UpdatedAt:
				continue
			}

			applied, err := e.entries.ApplyRemote(ctx, row.Date, slot, sev, ts)
			if err != nil {
				return fmt.Errorf("apply remote: %w", err)
			}
			if applied {
				p.stats.Pulled++
			}
		}
	}
	return nil
}
