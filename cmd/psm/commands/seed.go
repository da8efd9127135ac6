package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psm-app/psm/pkg/seed"
	"github.com/psm-app/psm/pkg/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the permission catalog and system configuration",
	Long: `Install the baseline permission catalog, role default grants and
system configuration entries.

Seeding is insert-if-absent: existing permissions keep their descriptions,
existing grants are left alone, and operator-set configuration values are
never overwritten. Running this command repeatedly is safe.

Without a subcommand both the permission catalog and the configuration
defaults are seeded.

Examples:
  psm seed
  psm seed permissions
  psm seed configs
  psm seed --config /etc/psm/config.yaml`,
	RunE: runSeed,
}

var seedPermissionsCmd = &cobra.Command{
	Use:   "permissions",
	Short: "Seed the permission catalog and role default grants",
	RunE:  runSeedPermissions,
}

var seedConfigsCmd = &cobra.Command{
	Use:   "configs",
	Short: "Seed the system configuration defaults",
	RunE:  runSeedConfigs,
}

func init() {
	seedCmd.AddCommand(seedPermissionsCmd)
	seedCmd.AddCommand(seedConfigsCmd)
}

// withSeeder loads config, opens the store and hands a ready Seeder to fn.
func withSeeder(fn func(ctx context.Context, seeder *seed.Seeder) error) error {
	cfg, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	var s *store.Store
	if s, err = openStore(cfg); err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	return fn(context.Background(), seed.New(s))
}

func runSeed(cmd *cobra.Command, args []string) error {
	return withSeeder(func(ctx context.Context, seeder *seed.Seeder) error {
		perms, grants, err := seeder.SeedPermissions(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed permissions: %w", err)
		}

		configs, err := seeder.SeedConfigs(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed configs: %w", err)
		}

		fmt.Printf("Seeding complete: %d permissions, %d role grants, %d configs created.\n",
			perms, grants, configs)
		return nil
	})
}

func runSeedPermissions(cmd *cobra.Command, args []string) error {
	return withSeeder(func(ctx context.Context, seeder *seed.Seeder) error {
		perms, grants, err := seeder.SeedPermissions(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed permissions: %w", err)
		}

		fmt.Printf("Seeding complete: %d permissions, %d role grants created.\n", perms, grants)
		return nil
	})
}

func runSeedConfigs(cmd *cobra.Command, args []string) error {
	return withSeeder(func(ctx context.Context, seeder *seed.Seeder) error {
		configs, err := seeder.SeedConfigs(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed configs: %w", err)
		}

		fmt.Printf("Seeding complete: %d configs created.\n", configs)
		return nil
	})
}
