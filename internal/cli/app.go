package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/healthtrend/internal/app"
	"github.com/dmitrijs2005/healthtrend/internal/common"
	"github.com/dmitrijs2005/healthtrend/internal/config"
	"github.com/dmitrijs2005/healthtrend/internal/logging"
	"github.com/dmitrijs2005/healthtrend/internal/services"
)

// syncRunner is the part of the scheduler the CLI drives directly.
type syncRunner interface {
	RunNow(ctx context.Context) error
	Online() bool
	Run(ctx context.Context) error
}

// authFlow is the OAuth consent flow.
type authFlow interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, identity, code string) error
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	entries  services.EntryService
	settings services.SettingsService
	exporter services.ExportService
	syncer   syncRunner
	auth     authFlow
	closer   io.Closer

	scanner *bufio.Scanner
	out     io.Writer
	now     func() time.Time
}

// getLine and getPassword are indirections used to facilitate testing.
var getLine = GetLine
var getPassword = GetPassword

// NewApp builds the application. Without a passphrase in the environment
// the user is asked for one, since it protects the stored Google token.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if c.Passphrase == "" {
		pw, err := getPassword("Token passphrase: ", os.Stdout)
		if err != nil {
			return nil, fmt.Errorf("read passphrase: %w", err)
		}
		c.Passphrase = string(pw)
		common.WipeByteArray(pw)
	}

	comps, err := app.Build(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		config:   c,
		logger:   logger,
		entries:  comps.Entries,
		settings: comps.Settings,
		exporter: comps.Export,
		syncer:   comps.Scheduler,
		auth:     comps.Authorizer,
		closer:   comps,
		scanner:  bufio.NewScanner(os.Stdin),
		out:      os.Stdout,
		now:      time.Now,
	}, nil
}

func (a *App) getStatus() string {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	s := ""
	if id, err := a.settings.Identity(ctx); err == nil && id != "" {
		s = id + " "
	}
	if a.syncer.Online() {
		s += "online"
	} else {
		s += "offline"
	}
	return fmt.Sprintf(" (%s)", s)
}

func (a *App) isSignedIn(ctx context.Context) bool {
	id, err := a.settings.Identity(ctx)
	return err == nil && id != ""
}

// Run starts the background scheduler and the REPL. It returns when the
// user exits or ctx is canceled.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.syncer.Run(ctx); err != nil {
			a.logger.Error(ctx, "scheduler stopped", "error", err)
		}
	}()

	fmt.Fprintln(a.out, "Welcome to HealthTrend (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.scanner)

	cancel()
	wg.Wait()
	if a.closer != nil {
		if err := a.closer.Close(); err != nil {
			a.logger.Warn(context.Background(), "close error", "error", err)
		}
	}
}
