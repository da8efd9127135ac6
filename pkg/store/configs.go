package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/psm-app/psm/pkg/models"
)

// ============================================
// SYSTEM CONFIG OPERATIONS
// ============================================

func (s *Store) GetConfig(ctx context.Context, key string) (*models.SystemConfig, error) {
	return getByField[models.SystemConfig](s.db, ctx, "key", key, models.ErrConfigNotFound)
}

func (s *Store) ListConfigs(ctx context.Context) ([]*models.SystemConfig, error) {
	return listAll[models.SystemConfig](s.db, ctx)
}

// EnsureConfig creates a system config entry if it does not exist yet.
// Existing entries keep their current value, so seeding never clobbers
// operator changes.
func (s *Store) EnsureConfig(ctx context.Context, key, value, description string) (created bool, err error) {
	var existing models.SystemConfig
	err = s.db.WithContext(ctx).Where("key = ?", key).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	cfg := models.SystemConfig{Key: key, Value: value, Description: description}
	if err := s.db.WithContext(ctx).Create(&cfg).Error; err != nil {
		if isUniqueConstraintError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SetConfig creates or updates a system config entry.
func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	var existing models.SystemConfig
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&existing).Error
	if err == nil {
		return s.db.WithContext(ctx).
			Model(&existing).
			Updates(map[string]any{"value": value, "updated_at": time.Now()}).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	cfg := models.SystemConfig{Key: key, Value: value}
	return s.db.WithContext(ctx).Create(&cfg).Error
}

// DeleteConfig removes a system config entry.
func (s *Store) DeleteConfig(ctx context.Context, key string) error {
	result := s.db.WithContext(ctx).Where("key = ?", key).Delete(&models.SystemConfig{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrConfigNotFound
	}
	return nil
}
