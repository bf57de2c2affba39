// Package daemon runs background sync without a terminal: the scheduler,
// a watcher on the local database file and a gRPC health endpoint.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/healthtrend/internal/app"
	"github.com/dmitrijs2005/healthtrend/internal/config"
	"github.com/dmitrijs2005/healthtrend/internal/health"
	"github.com/dmitrijs2005/healthtrend/internal/logging"
	"github.com/dmitrijs2005/healthtrend/internal/scheduler"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	components *app.Components
	health     *health.Server
	edits      *editTrigger
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if c.Passphrase == "" {
		return nil, fmt.Errorf("%s must be set for the daemon", config.PassphraseEnv)
	}

	a := &App{config: c, logger: logger.With("module", "daemon")}
	a.health = health.NewServer(c.HealthAddr, logger)

	comps, err := app.Build(ctx, c, logger, scheduler.WithResultHook(a.onSyncResult))
	if err != nil {
		return nil, err
	}
	a.components = comps
	a.edits = newEditTrigger(comps.Repos.Entries, comps.Scheduler, logger)
	return a, nil
}

func (a *App) onSyncResult(ctx context.Context, err error) {
	a.health.SetSyncStatus(err)
	if a.edits != nil {
		a.edits.afterRun(ctx)
	}
}

func (a *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run blocks until a termination signal arrives, ctx is canceled or one
// of the long-running parts fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	a.logger.Info(ctx, "Starting daemon...")
	a.initSignalHandler(cancelFunc)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		first error
	)
	start := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := fn(ctx)
			if err == nil || errors.Is(err, context.Canceled) {
				return
			}
			a.logger.Error(ctx, name+" stopped", "error", err)
			mu.Lock()
			if first == nil {
				first = fmt.Errorf("%s: %w", name, err)
			}
			mu.Unlock()
			cancelFunc()
		}()
	}

	start("health", a.health.Run)
	start("scheduler", a.components.Scheduler.Run)

	if path := a.components.DB.FilePath(); path != "" {
		w := scheduler.NewDBWatcher(path, a.config.WatchDebounce, a.edits.check, a.logger)
		start("watcher", w.Run)
	} else {
		a.logger.Info(ctx, "database is not a local file, change watching disabled")
	}

	wg.Wait()
	a.logger.Info(context.Background(), "daemon stopped")

	if err := a.components.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
