package fswatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultQuiet is how long a burst of file events must settle before one
// notification is sent.
const DefaultQuiet = 150 * time.Millisecond

// Watch streams one notification per settled burst of writes to files in dir
// accepted by match. The channel is closed once ctx is done or the watcher
// fails. Notifications are dropped while the consumer is behind; a pending
// one already means "reload".
func Watch(ctx context.Context, dir string, match func(name string) bool, quiet time.Duration) (<-chan struct{}, error) {
	if dir == "" {
		return nil, errors.New("fswatch: directory is required")
	}
	if match == nil {
		match = func(string) bool { return true }
	}
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("fswatch: ensure dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fswatch: create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("fswatch: watch %s: %w", dir, err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer watcher.Close()

		var (
			timer   *time.Timer
			settled <-chan time.Time
		)
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case <-settled:
				settled = nil
				select {
				case out <- struct{}{}:
				default:
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) && !evt.Has(fsnotify.Remove) {
					continue
				}
				if !match(filepath.Base(evt.Name)) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(quiet)
				} else {
					timer.Reset(quiet)
				}
				settled = timer.C
			}
		}
	}()
	return out, nil
}
