package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/marmos91/linkfs/internal/logger"
	"github.com/marmos91/linkfs/internal/telemetry"
	"github.com/marmos91/linkfs/pkg/api"
	"github.com/marmos91/linkfs/pkg/api/handlers"
	"github.com/marmos91/linkfs/pkg/config"
	"github.com/marmos91/linkfs/pkg/metrics"
	prommetrics "github.com/marmos91/linkfs/pkg/metrics/prometheus"
)

var pidFile string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the linkfs daemon",
	Long: `Start the linkfs daemon in the foreground.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/linkfs/config.yaml.

Examples:
  # Start with the default config file
  linkfs start

  # Start with custom config file
  linkfs start --config /etc/linkfs/config.yaml

  # Start with environment variable overrides
  LINKFS_LOGGING_LEVEL=DEBUG linkfs start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Write the process id to this file")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	instanceID := uuid.NewString()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "linkfs",
		ServiceVersion: Version,
		InstanceID:     instanceID,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "linkfs",
		ServiceVersion: Version,
		InstanceID:     instanceID,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}()

	logger.Info("linkfs starting", "version", Version, "instance", instanceID)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	}

	// The registry must exist before the sinks are created.
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		logger.Info("Metrics enabled", "path", "/metrics")
	}
	d, err := buildDaemon(cfg, instanceID, prommetrics.NewFTPMetrics(), prommetrics.NewLinkMetrics())
	if err != nil {
		return err
	}
	defer d.close()

	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.mux.Run(gctx) })
	g.Go(func() error { return d.engine.Serve(gctx) })

	if cfg.API.IsEnabled() {
		srv := api.NewServer(cfg.API, api.Sources{
			Instance: handlers.Instance{ID: instanceID, Version: Version},
			Engine:   d.engine,
			Links:    d.mux,
		})
		g.Go(func() error { return srv.Start(gctx) })
	}

	if path := watchedConfigPath(GetConfigFile()); path != "" {
		running := *cfg
		g.Go(func() error {
			return config.Watch(gctx, path, func(next *config.Config) {
				applyReload(&running, next)
			})
		})
	}

	logger.Info("Server is running. Press Ctrl+C to stop.")
	if err := g.Wait(); err != nil {
		logger.Error("Server error", logger.Err(err))
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// applyReload applies the settings that can change at runtime and reports
// the rest.
func applyReload(running, next *config.Config) {
	if next.Logging.Level != running.Logging.Level {
		logger.SetLevel(next.Logging.Level)
		logger.Info("Log level changed", "from", running.Logging.Level, "to", next.Logging.Level)
		running.Logging.Level = next.Logging.Level
	}
	if changed := config.RestartRequired(running, next); len(changed) > 0 {
		logger.Warn("Configuration changed, restart to apply", "sections", changed)
	}
}

// watchedConfigPath returns the file to watch for reloads, or "" when
// running on defaults.
func watchedConfigPath(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return ""
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if p := watchedConfigPath(configFile); p != "" {
		return p
	}
	return "defaults"
}

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}
