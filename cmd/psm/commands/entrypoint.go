package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/psm-app/psm/internal/bootstrap"
	"github.com/psm-app/psm/internal/logger"
	"github.com/psm-app/psm/internal/telemetry"
	"github.com/psm-app/psm/pkg/metrics"
	prommetrics "github.com/psm-app/psm/pkg/metrics/prometheus"
	"github.com/psm-app/psm/pkg/models"
	"github.com/psm-app/psm/pkg/seed"
	"github.com/psm-app/psm/pkg/store"
)

var entrypointCmd = &cobra.Command{
	Use:   "entrypoint [flags] -- <command> [args...]",
	Short: "Run the container startup sequence, then exec the server command",
	Long: `Run the container startup sequence and hand off to the server process.

The sequence executes four idempotent setup steps strictly in order:

  1. migrate           Apply pending database schema migrations
  2. ensure-superuser  Create the bootstrap superuser if absent
  3. seed-permissions  Install the permission catalog and role defaults
  4. seed-configs      Install baseline system configuration entries

The first failing step aborts the sequence; no later step runs and the
process exits with that step's exit code. After all steps succeed, the
command given after "--" replaces this process in place, so the server
inherits PID 1 and receives container signals directly.

Every step is safe to re-run, which makes the sequence correct across
container restarts.

Examples:
  # Typical container ENTRYPOINT
  psm entrypoint -- psm serve

  # Hand off to an arbitrary server command
  psm entrypoint -- /usr/local/bin/server --port 8000

  # With a custom config file
  psm entrypoint --config /etc/psm/config.yaml -- psm serve`,
	Args: cobra.ArbitraryArgs,
	RunE: runEntrypoint,
}

var entrypointSkipSeed bool

func init() {
	entrypointCmd.Flags().BoolVar(&entrypointSkipSeed, "skip-seed", false,
		"skip the seeding steps (migrations and superuser still run)")
}

func runEntrypoint(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	ctx := context.Background()

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

	metrics.InitRegistry()

	s, err := openStore(cfg)
	if err != nil {
		return err
	}

	bootstrapMetrics := prommetrics.NewBootstrapMetrics()

	runner := bootstrap.NewRunner(setupSteps(s, bootstrapMetrics)...)
	runner.Metrics = bootstrapMetrics

	if err := runner.Run(ctx); err != nil {
		logger.Error("Startup setup failed", "error", err)
		_ = s.Close()
		_ = telemetryShutdown(ctx)
		os.Exit(bootstrap.ExitCode(err))
	}

	logger.Info("Startup setup complete")

	// Release resources before the handoff: nothing survives the exec.
	if err := s.Close(); err != nil {
		logger.Warn("Failed to close database before handoff", "error", err)
	}
	if err := telemetryShutdown(ctx); err != nil {
		logger.Warn("Telemetry shutdown error", "error", err)
	}

	if err := bootstrap.Exec(args); err != nil {
		logger.Error("Server handoff failed", "error", err)
		os.Exit(bootstrap.ExitCode(err))
	}
	return nil
}

// setupSteps builds the ordered setup sequence over the given store.
func setupSteps(s *store.Store, m metrics.BootstrapMetrics) []bootstrap.Step {
	steps := []bootstrap.Step{
		{
			Name: "migrate",
			Run:  s.Migrate,
		},
		{
			Name: "ensure-superuser",
			Run: func(ctx context.Context) error {
				password, created, err := s.EnsureSuperuser(ctx)
				if err != nil {
					return err
				}
				if created {
					logger.Info("Superuser created", "username", models.SuperuserUsername)
					if os.Getenv(models.EnvSuperuserPassword) == "" {
						fmt.Printf("\n*** Superuser %q created with default password: %s ***\n",
							models.SuperuserUsername, password)
						fmt.Println("The password must be changed on first login.")
						fmt.Println()
					}
				} else {
					logger.Info("Superuser already present", "username", models.SuperuserUsername)
				}
				return nil
			},
		},
		{
			Name: "seed-permissions",
			Run: func(ctx context.Context) error {
				perms, grants, err := seed.New(s).SeedPermissions(ctx)
				if err != nil {
					return err
				}
				if m != nil {
					m.RecordSeededRows("permissions", perms+grants)
				}
				return nil
			},
		},
		{
			Name: "seed-configs",
			Run: func(ctx context.Context) error {
				created, err := seed.New(s).SeedConfigs(ctx)
				if err != nil {
					return err
				}
				if m != nil {
					m.RecordSeededRows("configs", created)
				}
				return nil
			},
		},
	}

	// The first two steps always run: a server must never start against an
	// unmigrated schema or without the bootstrap superuser.
	if entrypointSkipSeed {
		return steps[:2]
	}
	return steps
}
