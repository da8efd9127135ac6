package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/psm-app/psm/pkg/models"
)

var initSuperuserCmd = &cobra.Command{
	Use:   "init-superuser",
	Short: "Create the bootstrap superuser if absent",
	Long: `Create the bootstrap superuser account if no super-role account exists.

The account is created with username "super". The initial password comes
from the ` + models.EnvSuperuserPassword + ` environment variable when set;
otherwise a well-known default is used and the account must change its
password on first login.

This command is idempotent: when a superuser already exists it does
nothing and succeeds.

Examples:
  # Create with the default password (forces change on first login)
  psm init-superuser

  # Create with an explicit password
  ` + models.EnvSuperuserPassword + `=s3cret psm init-superuser`,
	RunE: runInitSuperuser,
}

func runInitSuperuser(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	password, created, err := s.EnsureSuperuser(ctx)
	if err != nil {
		return fmt.Errorf("failed to ensure superuser: %w", err)
	}

	if !created {
		fmt.Printf("Superuser %q already exists, nothing to do.\n", models.SuperuserUsername)
		return nil
	}

	fmt.Printf("Superuser %q created.\n", models.SuperuserUsername)
	if os.Getenv(models.EnvSuperuserPassword) == "" {
		fmt.Printf("Initial password: %s (must be changed on first login)\n", password)
	}
	return nil
}
