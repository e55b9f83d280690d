package importer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay lets editors finish writing before the file is reprocessed.
const settleDelay = 500 * time.Millisecond

// Watch calls fn every time the file at path is written or replaced, until
// ctx is cancelled. Errors from fn are logged, not returned.
func Watch(ctx context.Context, path string, log *slog.Logger, fn func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory: editors often replace files instead of writing
	// them in place, which drops a watch on the file itself.
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	target := filepath.Clean(path)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(settleDelay)
			} else {
				timer.Reset(settleDelay)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := fn(); err != nil {
				log.Error("watch: processing failed", "path", path, "error", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch: watcher error", "error", err)
		}
	}
}
