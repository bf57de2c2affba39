// Package syncruns records the history of sync passes.
package syncruns

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/healthtrend/internal/dbx"
	"github.com/dmitrijs2005/healthtrend/internal/models"
)

type Repository interface {
	// Start inserts run with its ID, StartedAt and Status.
	Start(ctx context.Context, run *models.SyncRun) error
	// Finish stores the outcome of a started run.
	Finish(ctx context.Context, run *models.SyncRun) error
	// Latest returns up to limit runs, newest first.
	Latest(ctx context.Context, limit int) ([]*models.SyncRun, error)
}

type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) Start(ctx context.Context, run *models.SyncRun) error {
	_, err := r.db.ExecContext(ctx,
		dbx.Rebind(r.dialect, `INSERT INTO sync_runs (id, started_at, status) VALUES (?, ?, ?)`),
		run.ID, run.StartedAt.UnixMilli(), run.Status)
	if err != nil {
		return fmt.Errorf("failed to start sync run %s: %w", run.ID, err)
	}
	return nil
}

func (r *SQLRepository) Finish(ctx context.Context, run *models.SyncRun) error {
	var finished sql.NullInt64
	if run.FinishedAt != nil {
		finished = sql.NullInt64{Int64: run.FinishedAt.UnixMilli(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, dbx.Rebind(r.dialect, `
		UPDATE sync_runs
		SET finished_at = ?, status = ?, pushed = ?, appended = ?, pulled = ?, skipped = ?, writes = ?, error = ?
		WHERE id = ?`),
		finished, run.Status, run.Stats.Pushed, run.Stats.Appended, run.Stats.Pulled,
		run.Stats.Skipped, run.Stats.Writes, run.Error, run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish sync run %s: %w", run.ID, err)
	}
	return nil
}

func (r *SQLRepository) Latest(ctx context.Context, limit int) ([]*models.SyncRun, error) {
	rows, err := r.db.QueryContext(ctx, dbx.Rebind(r.dialect, `
		SELECT id, started_at, finished_at, status, pushed, appended, pulled, skipped, writes, error
		FROM sync_runs ORDER BY started_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer rows.Close()

	var result []*models.SyncRun
	for rows.Next() {
		var (
			run      models.SyncRun
			started  int64
			finished sql.NullInt64
		)
		err := rows.Scan(&run.ID, &started, &finished, &run.Status,
			&run.Stats.Pushed, &run.Stats.Appended, &run.Stats.Pulled,
			&run.Stats.Skipped, &run.Stats.Writes, &run.Error)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		run.StartedAt = time.UnixMilli(started)
		if finished.Valid {
			t := time.UnixMilli(finished.Int64)
			run.FinishedAt = &t
		}
		result = append(result, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync runs: %w", err)
	}
	return result, nil
}
