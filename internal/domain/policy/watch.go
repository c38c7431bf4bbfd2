package policy

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the catalog whenever the overrides file changes, so running
// schedulers observe administrative edits without a restart. The watcher
// runs until the context is cancelled.
func (c *FileCatalog) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(c.path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				c.Reload()
				slog.Info("policy overrides reloaded", "path", c.path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("policy overrides watch error", "err", err)
			}
		}
	}()
	return nil
}
