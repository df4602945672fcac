package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/manebot/manebot/pkg/core/logging"
)

// ReloadFunc receives every successfully or unsuccessfully reloaded config
type ReloadFunc func(cfg *Config, err error)

const watchDebounce = 250 * time.Millisecond

// Watch reloads the config file at path whenever it changes and hands the
// result to fn. The parent directory is watched so that editors replacing
// the file by rename are seen. Watch returns once the watcher is running;
// it stops when ctx is cancelled.
func Watch(ctx context.Context, path string, fn ReloadFunc) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	logger := logging.New("config")
	logger.Info("Watching config for changes", "file", abs)

	go watchLoop(ctx, watcher, abs, fn, logger)
	return nil
}

func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string, fn ReloadFunc, logger *logging.Logger) {
	defer watcher.Close()

	// Editors emit bursts of events; reload once the file has been quiet
	// for watchDebounce.
	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			timer.Reset(watchDebounce)

		case <-timer.C:
			cfg, err := Load(path)
			if err != nil {
				logger.Error("Failed to reload config", "file", path, "error", err)
			} else {
				logger.Info("Config reloaded", "file", path)
			}
			fn(cfg, err)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Error("Watcher error", "error", err)
		}
	}
}
