package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/healthtrend/internal/dbx"
)

type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) Get(ctx context.Context, key string) (*string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, dbx.Rebind(r.dialect, `SELECT value FROM settings WHERE key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting[%s]: %w", key, err)
	}
	return &value, nil
}

func (r *SQLRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, dbx.Rebind(r.dialect, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`), key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, dbx.Rebind(r.dialect, `DELETE FROM settings WHERE key = ?`), key)
	if err != nil {
		return fmt.Errorf("failed to delete setting[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM settings`); err != nil {
		return fmt.Errorf("failed to clear settings: %w", err)
	}
	return nil
}

func (r *SQLRepository) List(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan settings row: %w", err)
		}
		result[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settings rows: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) Acquire(ctx context.Context, key string, until, now int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, dbx.Rebind(r.dialect, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
		WHERE CAST(settings.value AS BIGINT) <= ?
	`), key, strconv.FormatInt(until, 10), now)
	if err != nil {
		return false, fmt.Errorf("failed to acquire lease[%s]: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lease[%s]: %w", key, err)
	}
	return n > 0, nil
}

func (r *SQLRepository) Release(ctx context.Context, key string, until int64) error {
	_, err := r.db.ExecContext(ctx, dbx.Rebind(r.dialect, `DELETE FROM settings WHERE key = ? AND value = ?`),
		key, strconv.FormatInt(until, 10))
	if err != nil {
		return fmt.Errorf("failed to release lease[%s]: %w", key, err)
	}
	return nil
}
