package daemon

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/healthtrend/internal/logging"
	"github.com/dmitrijs2005/healthtrend/internal/models"
	"github.com/dmitrijs2005/healthtrend/internal/scheduler"
)

type pendingLister interface {
	ListUnsynced(ctx context.Context) ([]*models.Entry, error)
}

type triggerer interface {
	Trigger(ctx context.Context, reason string) bool
}

// editTrigger turns database file changes into sync triggers. The sync
// itself writes to the database, so a change only counts when the set of
// pending entries moved past what was last seen.
type editTrigger struct {
	entries pendingLister
	sched   triggerer
	logger  logging.Logger

	mu      sync.Mutex
	seen    watermark
	dropped bool
}

type watermark struct {
	count  int
	latest int64
}

func newEditTrigger(entries pendingLister, sched triggerer, logger logging.Logger) *editTrigger {
	return &editTrigger{entries: entries, sched: sched, logger: logger}
}

func (t *editTrigger) check(ctx context.Context) {
	pending, err := t.entries.ListUnsynced(ctx)
	if err != nil {
		t.logger.Warn(ctx, "cannot read pending entries", "error", err)
		return
	}

	var w watermark
	for _, e := range pending {
		w.count++
		if e.UpdatedAt > w.latest {
			w.latest = e.UpdatedAt
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if w == t.seen || w.count == 0 {
		t.seen = w
		t.dropped = false
		return
	}

	t.logger.Debug(ctx, "local edit detected", "pending", w.count)
	if t.sched.Trigger(ctx, scheduler.ReasonLocalEdit) {
		t.seen = w
		t.dropped = false
		return
	}
	t.dropped = true
}

// afterRun re-checks an edit whose trigger was dropped while a sync was in
// flight. It is called once the scheduler is idle again.
func (t *editTrigger) afterRun(ctx context.Context) {
	t.mu.Lock()
	again := t.dropped
	t.mu.Unlock()

	if again {
		t.check(ctx)
	}
}
