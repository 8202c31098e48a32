package listing

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounceInterval = 150 * time.Millisecond

// Watch lists dir, then re-runs the listing whenever filesystem events in dir
// settle, dispatching each difference to the registered targets. Only the
// directory itself is watched; the relation does not descend into
// subdirectories. Watch returns when ctx is done.
func (l *Lister) Watch(ctx context.Context, dir string) error {
	if _, err := l.Sync(ctx, dir); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Clean(dir)); err != nil {
		return fmt.Errorf("watch directory %s: %w", dir, err)
	}

	l.logger.Info("Watch mode active", "input", dir, "debounce", watchDebounceInterval.String())

	var debounceTimer *time.Timer
	defer stopTimer(&debounceTimer)

	for {
		var debounceC <-chan time.Time
		if debounceTimer != nil {
			debounceC = debounceTimer.C
		}

		select {
		case <-ctx.Done():
			l.logger.Info("Stopping watch mode", "reason", ctx.Err())
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if shouldTriggerSync(event.Op) {
				scheduleSync(&debounceTimer)
			}
		case err, ok := <-watcher.Errors:
			if !ok || err == nil {
				continue
			}
			l.logger.Error("Watcher error", "error", err)
		case <-debounceC:
			stopTimer(&debounceTimer)
			if _, syncErr := l.Sync(ctx, dir); syncErr != nil {
				l.logger.Error("Incremental listing failed", "input", dir, "error", syncErr)
				if errors.Is(syncErr, context.Canceled) {
					return syncErr
				}
			}
		}
	}
}

func shouldTriggerSync(op fsnotify.Op) bool {
	return op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename|fsnotify.Chmod) != 0
}

func scheduleSync(timer **time.Timer) {
	if *timer == nil {
		*timer = time.NewTimer(watchDebounceInterval)
		return
	}
	if !(*timer).Stop() {
		select {
		case <-(*timer).C:
		default:
		}
	}
	(*timer).Reset(watchDebounceInterval)
}

func stopTimer(timer **time.Timer) {
	if *timer == nil {
		return
	}
	if !(*timer).Stop() {
		select {
		case <-(*timer).C:
		default:
		}
	}
	*timer = nil
}
