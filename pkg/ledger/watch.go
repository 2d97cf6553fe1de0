package ledger

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cuemby/forge/pkg/log"
)

// Run drives Tick() from filesystem change events on the status
// directory, falling back to a plain poll at pollInterval when the
// watcher is idle or fails to start. It blocks until ctx is cancelled.
func (l *Ledger) Run(ctx context.Context, pollInterval time.Duration) error {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	logger := log.WithComponent("ledger")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn().Err(err).Msg("fsnotify unavailable, falling back to polling only")
		return l.runPollOnly(ctx, pollInterval)
	}
	defer watcher.Close()

	if err := watcher.Add(l.statusDir); err != nil {
		logger.Warn().Err(err).Msg("failed to watch status dir, falling back to polling only")
		return l.runPollOnly(ctx, pollInterval)
	}

	if err := l.Tick(); err != nil {
		logger.Warn().Err(err).Msg("initial tick failed")
	}

	fallback := time.NewTicker(pollInterval)
	defer fallback.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case _, ok := <-watcher.Events:
			if !ok {
				return l.runPollOnly(ctx, pollInterval)
			}
			if err := l.Tick(); err != nil {
				logger.Warn().Err(err).Msg("tick failed")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return l.runPollOnly(ctx, pollInterval)
			}
			logger.Warn().Err(err).Msg("watcher error")

		case <-fallback.C:
			if err := l.Tick(); err != nil {
				logger.Warn().Err(err).Msg("fallback tick failed")
			}
		}
	}
}

func (l *Ledger) runPollOnly(ctx context.Context, pollInterval time.Duration) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	logger := log.WithComponent("ledger")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := l.Tick(); err != nil {
				logger.Warn().Err(err).Msg("poll tick failed")
			}
		}
	}
}
