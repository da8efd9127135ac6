package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/psm-app/psm/internal/logger"
	"github.com/psm-app/psm/internal/telemetry"
	"github.com/psm-app/psm/pkg/api"
	"github.com/psm-app/psm/pkg/metrics"
	prommetrics "github.com/psm-app/psm/pkg/metrics/prometheus"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the PSM API server",
	Long: `Start the PSM API server in the foreground.

The server expects an up-to-date schema and seeded baseline data; in
container deployments it is the handoff target of the entrypoint command,
which guarantees both. For standalone use, run "psm migrate" and "psm seed"
first.

Examples:
  # Start with default config location
  psm serve

  # Start with custom config file
  psm serve --config /etc/psm/config.yaml

  # Start with environment variable overrides
  PSM_LOGGING_LEVEL=DEBUG psm serve`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "psm",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "psm",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	logger.Info("Configuration loaded", "log_level", cfg.Logging.Level, "log_format", cfg.Logging.Format)
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	}

	// Metrics are served from /metrics on the API port
	metrics.InitRegistry()

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := s.Ping(ctx); err != nil {
		return fmt.Errorf("database is not reachable: %w", err)
	}

	server, err := api.NewServer(cfg, s, api.ServerDeps{
		HTTPMetrics: prommetrics.NewHTTPMetrics(),
		AuthMetrics: prommetrics.NewAuthMetrics(),
		Version:     Version,
	})
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	// Start the server in background and wait for a signal or failure
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", "error", err)
			return err
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Server error", "error", err)
			return err
		}
	}

	return nil
}
