// Package storage opens the local database, applies migrations and wires the
// repositories on top of it.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/healthtrend/internal/dbx"
	"github.com/dmitrijs2005/healthtrend/internal/migrations"
	"github.com/dmitrijs2005/healthtrend/internal/repositories/entries"
	"github.com/dmitrijs2005/healthtrend/internal/repositories/settings"
	"github.com/dmitrijs2005/healthtrend/internal/repositories/syncruns"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// DB is an open, migrated database handle.
type DB struct {
	*sql.DB
	dialect dbx.Dialect
	dsn     string
}

// Dialect reports which SQL flavour the handle speaks.
func (d *DB) Dialect() dbx.Dialect { return d.dialect }

// FilePath returns the database file for sqlite, or "" for in-memory and
// postgres databases.
func (d *DB) FilePath() string {
	if d.dialect != dbx.DialectSQLite || isMemory(d.dsn) {
		return ""
	}
	path := strings.TrimPrefix(d.dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}

// Repositories groups the repositories backed by one DB.
type Repositories struct {
	Entries  entries.Repository
	Settings settings.Repository
	SyncRuns syncruns.Repository
}

// Repositories builds the repository set for d.
func (d *DB) Repositories() *Repositories {
	return d.repositoriesOn(d.DB)
}

func (d *DB) repositoriesOn(db dbx.DBTX) *Repositories {
	return &Repositories{
		Entries:  entries.NewSQLRepository(db, d.dialect),
		Settings: settings.NewSQLRepository(db, d.dialect),
		SyncRuns: syncruns.NewSQLRepository(db, d.dialect),
	}
}

// WithTx runs fn with a repository set bound to one transaction, committed
// when fn returns nil.
func (d *DB) WithTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error {
	return dbx.WithTx(ctx, d.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, d.repositoriesOn(tx))
	})
}

// Open connects to driver ("sqlite" or "postgres") at dsn and brings the
// schema up to date.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	var (
		sqlDriver string
		dialect   dbx.Dialect
	)
	switch driver {
	case "sqlite", "":
		sqlDriver, dialect = "sqlite", dbx.DialectSQLite
	case "postgres":
		sqlDriver, dialect = "pgx", dbx.DialectPostgres
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if dialect == dbx.DialectSQLite {
		if err := tuneSQLite(ctx, db, dsn); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	if err := RunMigrations(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &DB{DB: db, dialect: dialect, dsn: dsn}, nil
}

// tuneSQLite pins the pool to one connection so per-connection pragmas and
// in-memory databases behave, then enables WAL for file databases.
func tuneSQLite(ctx context.Context, db *sql.DB, dsn string) error {
	db.SetMaxOpenConns(1)

	pragmas := []string{"PRAGMA busy_timeout = 5000", "PRAGMA foreign_keys = ON"}
	if !isMemory(dsn) {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func isMemory(dsn string) bool {
	return dsn == "" || strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// RunMigrations applies the embedded migrations for dialect. It is safe to
// call repeatedly.
func RunMigrations(ctx context.Context, db *sql.DB, dialect dbx.Dialect) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())

	gooseDialect := "sqlite3"
	if dialect == dbx.DialectPostgres {
		gooseDialect = "postgres"
	}
	if err := goose.SetDialect(gooseDialect); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, string(dialect))
}
