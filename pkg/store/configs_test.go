//go:build integration

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/psm-app/psm/pkg/models"
)

func TestConfigOperations(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	t.Run("ensure creates missing key", func(t *testing.T) {
		created, err := s.EnsureConfig(ctx, models.ConfigAllowRegistration, "false", "Allow registration")
		if err != nil {
			t.Fatalf("failed to ensure config: %v", err)
		}
		if !created {
			t.Error("expected config to be created")
		}

		cfg, err := s.GetConfig(ctx, models.ConfigAllowRegistration)
		if err != nil {
			t.Fatalf("failed to get config: %v", err)
		}
		if cfg.Value != "false" {
			t.Errorf("expected false, got %q", cfg.Value)
		}
	})

	t.Run("ensure never overwrites", func(t *testing.T) {
		if err := s.SetConfig(ctx, models.ConfigAllowRegistration, "true"); err != nil {
			t.Fatalf("failed to set config: %v", err)
		}

		created, err := s.EnsureConfig(ctx, models.ConfigAllowRegistration, "false", "Allow registration")
		if err != nil {
			t.Fatalf("failed on repeat ensure: %v", err)
		}
		if created {
			t.Error("expected no-op on repeat ensure")
		}

		cfg, err := s.GetConfig(ctx, models.ConfigAllowRegistration)
		if err != nil {
			t.Fatalf("failed to get config: %v", err)
		}
		if cfg.Value != "true" {
			t.Errorf("expected operator value preserved, got %q", cfg.Value)
		}
	})

	t.Run("set creates missing key", func(t *testing.T) {
		if err := s.SetConfig(ctx, models.ConfigAutoBackupCron, "0 3 * * *"); err != nil {
			t.Fatalf("failed to set config: %v", err)
		}

		cfg, err := s.GetConfig(ctx, models.ConfigAutoBackupCron)
		if err != nil {
			t.Fatalf("failed to get config: %v", err)
		}
		if cfg.Value != "0 3 * * *" {
			t.Errorf("unexpected value: %q", cfg.Value)
		}
	})

	t.Run("get missing key", func(t *testing.T) {
		_, err := s.GetConfig(ctx, "MISSING_KEY")
		if !errors.Is(err, models.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("list configs", func(t *testing.T) {
		configs, err := s.ListConfigs(ctx)
		if err != nil {
			t.Fatalf("failed to list configs: %v", err)
		}
		if len(configs) != 2 {
			t.Errorf("expected 2 configs, got %d", len(configs))
		}
	})

	t.Run("delete config", func(t *testing.T) {
		if err := s.DeleteConfig(ctx, models.ConfigAutoBackupCron); err != nil {
			t.Fatalf("failed to delete config: %v", err)
		}

		_, err := s.GetConfig(ctx, models.ConfigAutoBackupCron)
		if !errors.Is(err, models.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound after delete, got %v", err)
		}

		if err := s.DeleteConfig(ctx, models.ConfigAutoBackupCron); !errors.Is(err, models.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound on repeat delete, got %v", err)
		}
	})
}
