package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/cuemby/forge/pkg/log"
)

// Watch follows path's containing directory for writes and reloads and
// re-validates the config on every one. A reload that fails validation is
// sent on the error channel and the last good Config is left in place; it
// is up to the caller to decide whether to keep running on the old config.
// Both channels are closed when ctx is cancelled or the watcher fails to
// start.
func Watch(ctx context.Context, path string) (<-chan *Config, <-chan error) {
	changes := make(chan *Config, 4)
	errs := make(chan error, 4)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		errs <- err
		close(changes)
		close(errs)
		return changes, errs
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		errs <- err
		close(changes)
		close(errs)
		watcher.Close()
		return changes, errs
	}

	go func() {
		defer watcher.Close()
		defer close(changes)
		defer close(errs)

		logger := log.WithComponent("config")

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				cfg, err := Load(path)
				if err != nil {
					logger.Warn().Err(err).Msg("config reload failed, keeping previous config")
					select {
					case errs <- err:
					default:
					}
					continue
				}

				logger.Info().Msg("config reloaded")
				select {
				case changes <- cfg:
				default:
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				select {
				case errs <- err:
				default:
				}
			}
		}
	}()

	return changes, errs
}
