package commands

import (
	"fmt"

	"github.com/psm-app/psm/internal/logger"
	"github.com/psm-app/psm/pkg/config"
	"github.com/psm-app/psm/pkg/store"
)

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// loadConfigAndLogger loads the configuration and initializes logging,
// the common preamble of every command that touches the store.
func loadConfigAndLogger() (*config.Config, error) {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return nil, err
	}
	if err := InitLogger(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore opens the configured database without applying migrations.
func openStore(cfg *config.Config) (*store.Store, error) {
	s, err := store.Open(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return s, nil
}
