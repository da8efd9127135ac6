package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psm-app/psm/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Apply pending database schema migrations.

This runs only the first step of the startup sequence. It is useful for
applying schema changes out of band, for example before a rolling deploy.
The entrypoint command runs the same migrations automatically.

Examples:
  # Run migrations with default config
  psm migrate

  # Run migrations with custom config
  psm migrate --config /etc/psm/config.yaml`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	logger.Info("Running database migrations", "type", cfg.Database.Type)

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	if err := s.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// Verify the migration worked by checking if we can query users
	if _, err := s.ListUsers(ctx); err != nil {
		return fmt.Errorf("migration verification failed: %w", err)
	}

	fmt.Printf("Migrations completed successfully (database type: %s)\n", cfg.Database.Type)
	return nil
}
