package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/specialistvlad/sparsegrid/internal/ctxlog"
)

// reloadDebounce is how long the watcher waits for more changes before
// reloading.
const reloadDebounce = 100 * time.Millisecond

// watchSheet reloads the sheet whenever its file changes and blocks until ctx
// is cancelled. The parent directory is watched so that editors that replace
// the file by renaming are noticed.
func watchSheet(ctx context.Context, sheet *Sheet) error {
	logger := ctxlog.FromContext(ctx).With("path", sheet.Path())

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create sheet watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(sheet.Path())
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}
	logger.Info("Watching sheet file for changes.")

	timer := time.NewTimer(reloadDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Sheet watcher stopped.")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("Sheet file changed.", "op", event.Op.String())
			timer.Reset(reloadDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Sheet watcher error.", "error", err)
		case <-timer.C:
			if err := sheet.Reload(ctx); err != nil {
				logger.Error("Failed to reload sheet file.", "error", err)
			}
		}
	}
}
