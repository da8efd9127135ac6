package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psm-app/psm/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample PSM configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/psm/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  psm init

  # Initialize with custom path
  psm init --config /etc/psm/config.yaml

  # Force overwrite existing config
  psm init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	var configPath string
	var err error

	if configFile != "" {
		// Use custom path
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		// Use default path
		configPath, err = config.InitConfig(initForce)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Run the startup sequence and server: psm entrypoint -- psm serve")
	fmt.Printf("  3. Or specify custom config: psm serve --config %s\n", configPath)
	fmt.Println("\nSecurity note:")
	fmt.Println("  The API server requires a JWT secret of at least 32 characters.")
	fmt.Println("  Generate one and pass it via an environment variable:")
	fmt.Println("    # Generates a 64-character hex string (32 bytes of entropy)")
	fmt.Printf("    export %s=$(openssl rand -hex 32)\n", config.EnvJWTSecret)

	return nil
}
