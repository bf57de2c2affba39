// Package app assembles the storage, remote, sync and service layers into
// one object graph shared by the interactive CLI and the background daemon.
package app

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/healthtrend/internal/auth"
	"github.com/dmitrijs2005/healthtrend/internal/config"
	"github.com/dmitrijs2005/healthtrend/internal/logging"
	"github.com/dmitrijs2005/healthtrend/internal/scheduler"
	"github.com/dmitrijs2005/healthtrend/internal/services"
	"github.com/dmitrijs2005/healthtrend/internal/sheets"
	"github.com/dmitrijs2005/healthtrend/internal/storage"
	"github.com/dmitrijs2005/healthtrend/internal/syncer"
)

type Components struct {
	DB         *storage.DB
	Repos      *storage.Repositories
	Authorizer *auth.Authorizer
	Sheets     *sheets.GoogleClient
	Engine     *syncer.Engine
	Scheduler  *scheduler.Scheduler

	Entries  services.EntryService
	Settings services.SettingsService
	Sync     services.SyncService
	Export   services.ExportService
}

// Build opens the database and wires every component. Extra scheduler
// options (a result hook, for instance) are passed through. Local edits
// trigger a background sync.
func Build(ctx context.Context, cfg *config.Config, logger logging.Logger, opts ...scheduler.Option) (*Components, error) {
	db, err := storage.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	oauthCfg, err := auth.LoadOAuthConfig(cfg.CredentialsFile)
	if err != nil {
		logger.Warn(ctx, "google credentials unavailable, sign-in disabled", "file", cfg.CredentialsFile, "error", err)
		oauthCfg = auth.UnconfiguredConfig()
	}

	c := &Components{DB: db, Repos: db.Repositories()}

	store := auth.NewTokenStore(cfg.TokenDir, []byte(cfg.Passphrase))
	c.Authorizer = auth.NewAuthorizer(oauthCfg, store, logger)
	c.Sheets = sheets.NewGoogleClient(c.Authorizer, cfg.SheetTab, logger)
	c.Engine = syncer.NewEngine(c.Repos.Entries, c.Sheets, c.Repos.Settings, cfg.SheetTitle, logger)

	c.Sync = services.NewSyncService(c.Repos.Settings, c.Repos.SyncRuns, c.Engine, logger)
	c.Scheduler = scheduler.New(c.Sync.Run, scheduler.Options{
		Schedule:            cfg.SyncSchedule,
		BaseDelay:           cfg.RetryBaseDelay,
		MaxDelay:            cfg.RetryMaxDelay,
		OnlineCheckInterval: cfg.OnlineCheckInterval,
	}, logger, append([]scheduler.Option{scheduler.WithPinger(c.Sheets)}, opts...)...)

	c.Entries = services.NewEntryService(c.Repos.Entries, func(ctx context.Context) {
		c.Scheduler.Trigger(ctx, scheduler.ReasonLocalEdit)
	})
	c.Settings = services.NewSettingsService(c.DB, c.Repos.Settings, c.Repos.Entries, c.Repos.SyncRuns, c.Authorizer)
	c.Export = services.NewExportService(c.Repos.Entries, cfg)

	return c, nil
}

func (c *Components) Close() error {
	return c.DB.Close()
}
