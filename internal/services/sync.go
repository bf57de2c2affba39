package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/healthtrend/internal/common"
	"github.com/dmitrijs2005/healthtrend/internal/logging"
	"github.com/dmitrijs2005/healthtrend/internal/models"
	"github.com/dmitrijs2005/healthtrend/internal/repositories/settings"
	"github.com/dmitrijs2005/healthtrend/internal/repositories/syncruns"
	"github.com/dmitrijs2005/healthtrend/internal/sheets"
	"github.com/google/uuid"
)

// SyncEngine performs the actual reconciliation.
type SyncEngine interface {
	ExecuteSync(ctx context.Context, loc sheets.Location, identity string) (models.SyncStats, error)
	EnsureSheetExists(ctx context.Context, identity string) error
}

// syncLeaseTTL bounds how long a crashed process can block other syncs.
const syncLeaseTTL = 15 * time.Minute

type SyncService interface {
	Run(ctx context.Context) error
}

type syncService struct {
	settingsRepo settings.Repository
	runRepo      syncruns.Repository
	engine       SyncEngine
	logger       logging.Logger
	now          func() time.Time
}

func NewSyncService(settingsRepo settings.Repository, runRepo syncruns.Repository, engine SyncEngine, logger logging.Logger) SyncService {
	return &syncService{
		settingsRepo: settingsRepo,
		runRepo:      runRepo,
		engine:       engine,
		logger:       logger.With("module", "sync_service"),
		now:          time.Now,
	}
}

// Run performs one sync if an account is signed in and a sheet is known or
// can be found. Without either it does nothing and returns nil. Processes
// sharing the database take turns through a lease; a busy lease yields
// common.ErrSyncInProgress.
func (s *syncService) Run(ctx context.Context) error {
	identity, err := s.setting(ctx, common.SettingIdentity)
	if err != nil {
		return err
	}
	if identity == "" {
		s.logger.Debug(ctx, "not signed in, nothing to sync")
		return nil
	}

	now := s.now()
	until := now.Add(syncLeaseTTL).UnixMilli()
	ok, err := s.settingsRepo.Acquire(ctx, common.SyncWorkName, until, now.UnixMilli())
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrSyncInProgress
	}
	defer func() {
		if err := s.settingsRepo.Release(context.WithoutCancel(ctx), common.SyncWorkName, until); err != nil {
			s.logger.Warn(ctx, "failed to release sync lease", "error", err)
		}
	}()

	return s.run(ctx, identity)
}

func (s *syncService) run(ctx context.Context, identity string) error {
	url, err := s.setting(ctx, common.SettingSheetURL)
	if err != nil {
		return err
	}
	if url == "" {
		if err := s.engine.EnsureSheetExists(ctx, identity); err != nil {
			return err
		}
		if url, err = s.setting(ctx, common.SettingSheetURL); err != nil {
			return err
		}
		if url == "" {
			s.logger.Debug(ctx, "no sheet configured, nothing to sync")
			return nil
		}
	}

	loc, err := sheets.ParseLocation(url)
	if err != nil {
		return err
	}

	run := &models.SyncRun{ID: uuid.NewString(), StartedAt: s.now().UTC(), Status: models.SyncRunning}
	if err := s.runRepo.Start(ctx, run); err != nil {
		return fmt.Errorf("error recording sync run: %w", err)
	}

	stats, syncErr := s.engine.ExecuteSync(ctx, loc, identity)

	finished := s.now().UTC()
	run.FinishedAt = &finished
	run.Stats = stats
	run.Status = models.SyncSuccess
	if syncErr != nil {
		run.Status = models.SyncFailed
		run.Error = syncErr.Error()
	}

	// the run outcome must be stored even when ctx was canceled mid-pass
	if err := s.runRepo.Finish(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Warn(ctx, "failed to record sync result", "id", run.ID, "error", err)
	}
	return syncErr
}

func (s *syncService) setting(ctx context.Context, key string) (string, error) {
	v, err := s.settingsRepo.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("error reading %s: %w", key, err)
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}
