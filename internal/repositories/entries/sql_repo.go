package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/healthtrend/internal/common"
	"github.com/dmitrijs2005/healthtrend/internal/dbx"
	"github.com/dmitrijs2005/healthtrend/internal/models"
)

const selectColumns = `SELECT id, date, time_slot, severity, updated_at, synced FROM entries`

type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) q(query string) string {
	return dbx.Rebind(r.dialect, query)
}

func (r *SQLRepository) Upsert(ctx context.Context, e *models.Entry) error {
	query := r.q(`
		INSERT INTO entries (date, time_slot, severity, updated_at, synced)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (date, time_slot) DO UPDATE SET
			severity = excluded.severity,
			updated_at = CASE
				WHEN excluded.updated_at > entries.updated_at THEN excluded.updated_at
				ELSE entries.updated_at + 1
			END,
			synced = excluded.synced
		RETURNING id, updated_at`)

	err := r.db.QueryRowContext(ctx, query, e.Date, int(e.Slot), int(e.Severity), e.UpdatedAt, e.Synced).Scan(&e.ID, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert entry %s/%s: %w", e.Date, e.Slot, err)
	}
	return nil
}

func (r *SQLRepository) Get(ctx context.Context, date string, slot models.TimeSlot) (*models.Entry, error) {
	row := r.db.QueryRowContext(ctx, r.q(selectColumns+` WHERE date = ? AND time_slot = ?`), date, int(slot))

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry %s/%s: %w", date, slot, err)
	}
	return e, nil
}

func (r *SQLRepository) ListByDateRange(ctx context.Context, from, to string) ([]*models.Entry, error) {
	query := selectColumns + ` WHERE 1 = 1`
	var args []any
	if from != "" {
		query += ` AND date >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY date, time_slot`

	return r.list(ctx, "list entries", query, args...)
}

func (r *SQLRepository) ListAll(ctx context.Context) ([]*models.Entry, error) {
	return r.list(ctx, "list entries", selectColumns+` ORDER BY date, time_slot`)
}

func (r *SQLRepository) ListUnsynced(ctx context.Context) ([]*models.Entry, error) {
	return r.list(ctx, "list unsynced entries", selectColumns+` WHERE synced = ? ORDER BY date, time_slot`, false)
}

func (r *SQLRepository) MarkSynced(ctx context.Context, date string, slot models.TimeSlot, updatedAt int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		r.q(`UPDATE entries SET synced = ? WHERE date = ? AND time_slot = ? AND updated_at = ?`),
		true, date, int(slot), updatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to mark entry %s/%s synced: %w", date, slot, err)
	}
	return affected(res)
}

func (r *SQLRepository) ApplyRemote(ctx context.Context, date string, slot models.TimeSlot, sev models.Severity, updatedAt int64) (bool, error) {
	query := r.q(`
		INSERT INTO entries (date, time_slot, severity, updated_at, synced)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (date, time_slot) DO UPDATE SET
			severity = excluded.severity,
			updated_at = excluded.updated_at,
			synced = excluded.synced
		WHERE entries.updated_at < excluded.updated_at`)

	res, err := r.db.ExecContext(ctx, query, date, int(slot), int(sev), updatedAt, true)
	if err != nil {
		return false, fmt.Errorf("failed to apply remote entry %s/%s: %w", date, slot, err)
	}
	return affected(res)
}

func (r *SQLRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) CountUnsynced(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, r.q(`SELECT COUNT(*) FROM entries WHERE synced = ?`), false).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count unsynced entries: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) list(ctx context.Context, op, query string, args ...any) ([]*models.Entry, error) {
	rows, err := r.db.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	result := []*models.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entry rows: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.Entry, error) {
	var (
		e        models.Entry
		slot     int
		severity int
	)
	if err := s.Scan(&e.ID, &e.Date, &slot, &severity, &e.UpdatedAt, &e.Synced); err != nil {
		return nil, err
	}
	e.Slot = models.TimeSlot(slot)
	e.Severity = models.Severity(severity)
	return &e, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}
