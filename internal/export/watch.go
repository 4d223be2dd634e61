package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/readlog/internal/record"
)

// DebounceInterval is how long the watcher waits for the directory to go
// quiet before exporting again.
const DebounceInterval = 200 * time.Millisecond

// Watch re-runs the export whenever a Markdown file in the readings
// directory changes, until ctx is cancelled. onExport, if non-nil, is
// called after each pass.
func Watch(ctx context.Context, store *record.Store, path string, logger *slog.Logger, onExport func(*Result)) error {
	root := store.Provider().Root()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("export: create %s: %w", root, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("export: watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(root); err != nil {
		return fmt.Errorf("export: watch %s: %w", root, err)
	}
	logger.Info("watcher: started", slog.String("root", root))

	runOnce := func() {
		res, err := Run(store, path, logger)
		if err != nil {
			logger.Error("watcher: export failed", slog.String("error", err.Error()))
			return
		}
		if onExport != nil {
			onExport(res)
		}
	}
	runOnce()

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(DebounceInterval)
			fire = timer.C
			return
		}
		timer.Reset(DebounceInterval)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			runOnce()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(ev.Name) != ".md" {
				continue
			}
			logger.Debug("watcher: change", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			schedule()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: error", slog.String("error", err.Error()))
		}
	}
}
