package rules

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the burst of write events editors emit when saving.
const debounceDelay = 250 * time.Millisecond

// Watch reloads the rule lists whenever a file in the override directory
// changes. It blocks until ctx is cancelled and is a no-op when no override
// directory is configured.
func (s *Service) Watch(ctx context.Context, logger *slog.Logger) error {
	if s.overrideDir == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create rules watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(s.overrideDir); err != nil {
		return fmt.Errorf("watch rules directory %s: %w", s.overrideDir, err)
	}

	logger.Info("Watching rules directory", "dir", s.overrideDir)

	var timer *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isRuleFile(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceDelay, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			if err := s.Reload(); err != nil {
				logger.Error("Failed to reload rules", "error", err)
				continue
			}
			logger.Info("Reloaded rule lists",
				"banned", s.Current().Banned.Len(),
				"allowed", s.Current().Allowed.Len(),
				"singleton_exceptions", s.Current().SingletonExceptions.Len())

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Rules watcher error", "error", err)
		}
	}
}

func isRuleFile(path string) bool {
	switch filepath.Base(path) {
	case bannedFile, allowedFile, exceptionsFile:
		return true
	}
	return false
}
