package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/healthtrend/internal/common"
	"github.com/dmitrijs2005/healthtrend/internal/logging"
	"github.com/robfig/cron/v3"
	"github.com/sethvargo/go-retry"
)

// Trigger reasons.
const (
	ReasonLaunch    = "launch"
	ReasonSchedule  = "schedule"
	ReasonOnline    = "online"
	ReasonLocalEdit = "local-edit"
	ReasonManual    = "manual"
)

var errOffline = errors.New("remote unreachable")

// RunFunc performs one sync pass.
type RunFunc func(ctx context.Context) error

// Pinger reports whether the remote is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Schedule            string
	BaseDelay           time.Duration
	MaxDelay            time.Duration
	OnlineCheckInterval time.Duration
	PingTimeout         time.Duration
}

type Scheduler struct {
	run    RunFunc
	pinger Pinger
	opts   Options
	logger logging.Logger

	onResult func(ctx context.Context, err error)

	running atomic.Bool
	online  atomic.Bool
	wg      sync.WaitGroup
}

type Option func(*Scheduler)

// WithPinger enables the connectivity gate. Without it the remote is
// assumed reachable.
func WithPinger(p Pinger) Option {
	return func(s *Scheduler) { s.pinger = p }
}

// WithResultHook registers fn to be called with the final outcome of every
// sync, nil on success. The scheduler is idle again when fn runs, so fn may
// trigger a follow-up sync.
func WithResultHook(fn func(ctx context.Context, err error)) Option {
	return func(s *Scheduler) { s.onResult = fn }
}

func New(run RunFunc, opts Options, logger logging.Logger, options ...Option) *Scheduler {
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = 3 * time.Second
	}
	s := &Scheduler{
		run:    run,
		opts:   opts,
		logger: logger.With("module", "scheduler", "work", common.SyncWorkName),
	}
	for _, o := range options {
		o(s)
	}
	s.online.Store(true)
	return s
}

// Online reports the last observed connectivity state.
func (s *Scheduler) Online() bool {
	return s.online.Load()
}

// Busy reports whether a sync is in flight.
func (s *Scheduler) Busy() bool {
	return s.running.Load()
}

// Trigger starts a background sync unless one is already running. It
// reports whether a new sync was started.
func (s *Scheduler) Trigger(ctx context.Context, reason string) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Debug(ctx, "sync in flight, trigger dropped", "reason", reason)
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		err := func() error {
			defer s.running.Store(false)
			return s.runWithRetry(ctx, reason)
		}()
		s.report(ctx, reason, err)
	}()
	return true
}

// RunNow performs a single sync attempt synchronously, without retries.
func (s *Scheduler) RunNow(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return common.ErrSyncInProgress
	}
	err := func() error {
		defer s.running.Store(false)
		return s.run(ctx)
	}()
	s.report(ctx, ReasonManual, err)
	return err
}

func (s *Scheduler) report(ctx context.Context, reason string, err error) {
	switch {
	case errors.Is(err, errOffline):
		s.logger.Info(ctx, "offline, sync postponed until connectivity returns", "reason", reason)
		return
	case err == nil:
		s.logger.Info(ctx, "sync finished", "reason", reason)
	case errors.Is(err, context.Canceled):
		s.logger.Info(ctx, "sync canceled", "reason", reason)
	default:
		s.logger.Error(ctx, "sync failed", "reason", reason, "error", err)
	}
	if s.onResult != nil {
		s.onResult(ctx, err)
	}
}

func (s *Scheduler) backoff() retry.Backoff {
	b := retry.NewExponential(s.opts.BaseDelay)
	b = retry.WithJitterPercent(10, b)
	return retry.WithCappedDuration(s.opts.MaxDelay, b)
}

func (s *Scheduler) runWithRetry(ctx context.Context, reason string) error {
	attempt := 0
	return retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		attempt++
		if !s.online.Load() {
			return errOffline
		}

		err := s.run(ctx)
		if err == nil || Permanent(err) {
			return err
		}

		s.logger.Warn(ctx, "sync attempt failed, will retry", "reason", reason, "attempt", attempt, "error", err)
		return retry.RetryableError(err)
	})
}

// Permanent reports whether err cannot be fixed by retrying.
func Permanent(err error) bool {
	return errors.Is(err, common.ErrUnauthorized) ||
		errors.Is(err, common.ErrNoCredentials) ||
		errors.Is(err, common.ErrInvalidSheetURL) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Run fires the launch trigger, then drives the cron schedule and the
// connectivity probe until ctx is done. It waits for an in-flight sync to
// return before exiting.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New()
	if s.opts.Schedule != "" {
		if _, err := c.AddFunc(s.opts.Schedule, func() { s.Trigger(ctx, ReasonSchedule) }); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", s.opts.Schedule, err)
		}
	}

	s.logger.Info(ctx, "scheduler started", "schedule", s.opts.Schedule)
	c.Start()

	if s.pinger != nil {
		s.probe(ctx)
	}
	s.Trigger(ctx, ReasonLaunch)

	if s.pinger != nil && s.opts.OnlineCheckInterval > 0 {
		s.watchConnectivity(ctx)
	} else {
		<-ctx.Done()
	}

	<-c.Stop().Done()
	s.wg.Wait()
	s.logger.Info(context.Background(), "scheduler stopped")
	return nil
}

func (s *Scheduler) watchConnectivity(ctx context.Context) {
	ticker := time.NewTicker(s.opts.OnlineCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.probe(ctx) {
				s.Trigger(ctx, ReasonOnline)
			}
		case <-ctx.Done():
			return
		}
	}
}

// probe pings the remote and records the result. It returns true on an
// offline to online transition.
func (s *Scheduler) probe(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(ctx, s.opts.PingTimeout)
	err := s.pinger.Ping(pctx)
	cancel()

	if err != nil {
		if s.online.CompareAndSwap(true, false) {
			s.logger.Warn(ctx, "switched to offline mode", "error", err)
		}
		return false
	}
	if s.online.CompareAndSwap(false, true) {
		s.logger.Info(ctx, "switched to online mode")
		return true
	}
	return false
}
