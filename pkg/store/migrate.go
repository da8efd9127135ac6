package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql

	"github.com/psm-app/psm/internal/logger"
	"github.com/psm-app/psm/pkg/models"
	"github.com/psm-app/psm/pkg/store/migrations"
)

// Migrate applies all pending schema migrations.
//
// SQLite uses GORM auto-migration over the domain models. PostgreSQL uses
// versioned SQL migrations via golang-migrate, which takes advisory locks
// so concurrent instances cannot race each other.
//
// Migrate is idempotent: an up-to-date schema is a no-op success.
func (s *Store) Migrate(ctx context.Context) error {
	switch s.config.Type {
	case DatabaseTypeSQLite:
		if err := s.db.WithContext(ctx).AutoMigrate(models.AllModels()...); err != nil {
			return fmt.Errorf("failed to run database migration: %w", err)
		}
		logger.Info("Schema migration complete", "type", s.config.Type)
		return nil

	case DatabaseTypePostgres:
		return runPostgresMigrations(ctx, &s.config.Postgres)

	default:
		return fmt.Errorf("unsupported database type: %s", s.config.Type)
	}
}

// runPostgresMigrations executes versioned migrations against PostgreSQL.
func runPostgresMigrations(ctx context.Context, cfg *PostgresConfig) error {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: "schema_migrations",
		DatabaseName:    cfg.Database,
	})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create source driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed: %w", err)
	}

	if err == migrate.ErrNoChange {
		logger.Info("No migrations to apply (database is up to date)")
	} else {
		logger.Info("Migrations completed successfully")
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	if err != migrate.ErrNilVersion {
		logger.Info("Current schema version", "version", version, "dirty", dirty)
		if dirty {
			logger.Warn("Database schema is in dirty state - manual intervention may be required")
		}
	}

	return nil
}
