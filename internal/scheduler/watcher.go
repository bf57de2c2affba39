package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/healthtrend/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// DBWatcher calls onChange when the database file, or its WAL and journal
// siblings, is written. Bursts of events within the debounce window
// collapse into one call.
type DBWatcher struct {
	path     string
	debounce time.Duration
	onChange func(ctx context.Context)
	logger   logging.Logger

	mu    sync.Mutex
	timer *time.Timer
}

func NewDBWatcher(dbPath string, debounce time.Duration, onChange func(ctx context.Context), logger logging.Logger) *DBWatcher {
	return &DBWatcher{
		path:     filepath.Clean(dbPath),
		debounce: debounce,
		onChange: onChange,
		logger:   logger.With("module", "dbwatcher"),
	}
}

// Run watches until ctx is done.
func (w *DBWatcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.Info(ctx, "watching database", "path", w.path)

	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.relevant(ev) {
				w.schedule(ctx)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn(ctx, "watcher error", "error", err)
		}
	}
}

func (w *DBWatcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	name := filepath.Clean(ev.Name)
	if name == w.path {
		return true
	}
	suffix, ok := strings.CutPrefix(name, w.path)
	return ok && (suffix == "-wal" || suffix == "-journal")
}

func (w *DBWatcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		w.onChange(ctx)
	})
}

func (w *DBWatcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}
