package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/marmos91/linkfs/internal/logger"
)

// reloadDebounce coalesces the burst of events an editor save produces.
const reloadDebounce = 100 * time.Millisecond

// Watch reloads the config file at path whenever it changes and passes the
// new configuration to onChange. Invalid files are logged and skipped.
// The parent directory is watched so that editors replacing the file by
// rename are noticed. Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Debug("Watching configuration file", logger.Path(abs))

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			cfg, err := Load(abs)
			if err != nil {
				logger.Warn("Configuration reload failed, keeping current settings", logger.Path(abs), logger.Err(err))
				continue
			}
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Configuration watcher error", logger.Err(err))
		}
	}
}

// RestartRequired lists the settings that differ between prev and next and
// only take effect after a restart. Logging level is applied live.
func RestartRequired(prev, next *Config) []string {
	var changed []string
	if prev.Logging.Format != next.Logging.Format || prev.Logging.Output != next.Logging.Output {
		changed = append(changed, "logging")
	}
	if prev.Telemetry.Enabled != next.Telemetry.Enabled || prev.Telemetry.Endpoint != next.Telemetry.Endpoint ||
		prev.Telemetry.SampleRate != next.Telemetry.SampleRate || prev.Telemetry.Insecure != next.Telemetry.Insecure ||
		prev.Telemetry.Profiling.Enabled != next.Telemetry.Profiling.Enabled {
		changed = append(changed, "telemetry")
	}
	if prev.Metrics != next.Metrics {
		changed = append(changed, "metrics")
	}
	if prev.API.ListenAddr() != next.API.ListenAddr() || prev.API.IsEnabled() != next.API.IsEnabled() {
		changed = append(changed, "api")
	}
	if prev.FTP != next.FTP {
		changed = append(changed, "ftp")
	}
	if prev.Filesystem != next.Filesystem {
		changed = append(changed, "filesystem")
	}
	if !linksEqual(prev.Links, next.Links) {
		changed = append(changed, "links")
	}
	return changed
}

func linksEqual(a, b []LinkConfig) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
