package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/psm-app/psm/pkg/models"
)

// ============================================
// USER OPERATIONS
// ============================================

func (s *Store) GetUser(ctx context.Context, username string) (*models.User, error) {
	return getByField[models.User](s.db, ctx, "username", username, models.ErrUserNotFound, "Permissions", "Permissions.Permission")
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return getByField[models.User](s.db, ctx, "id", id, models.ErrUserNotFound, "Permissions", "Permissions.Permission")
}

func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	return listAll[models.User](s.db, ctx, "Permissions", "Permissions.Permission")
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) (string, error) {
	if err := user.Validate(); err != nil {
		return "", err
	}
	user.CreatedAt = time.Now()
	return createWithID(s.db, ctx, user, func(u *models.User, id string) { u.ID = id }, user.ID, models.ErrDuplicateUser)
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	var existing models.User
	if err := s.db.WithContext(ctx).Where("id = ?", user.ID).First(&existing).Error; err != nil {
		return convertNotFoundError(err, models.ErrUserNotFound)
	}

	// Update specific fields using Select to handle pointers properly
	err := s.db.WithContext(ctx).
		Model(&existing).
		Select("Username", "Email", "Role", "Enabled", "MustChangePassword", "AvatarURL", "TeamLeaderID").
		Updates(user).Error
	if isUniqueConstraintError(err) {
		return models.ErrDuplicateUser
	}
	return err
}

func (s *Store) DeleteUser(ctx context.Context, username string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("username = ?", username).First(&user).Error; err != nil {
			return convertNotFoundError(err, models.ErrUserNotFound)
		}

		if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserPermission{}).Error; err != nil {
			return err
		}

		return tx.Delete(&user).Error
	})
}

func (s *Store) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ?", username).
		Updates(map[string]any{
			"password_hash":        passwordHash,
			"must_change_password": false,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, username string, timestamp time.Time) error {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ?", username).
		Update("last_login", timestamp)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// ValidateCredentials checks a username/password pair and returns the user.
func (s *Store) ValidateCredentials(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.Enabled {
		return nil, models.ErrUserDisabled
	}

	if !models.CheckPassword(user.PasswordHash, password) {
		return nil, models.ErrInvalidCredentials
	}

	return user, nil
}

// ============================================
// SUPERUSER INITIALIZATION
// ============================================

// EnsureSuperuser creates the bootstrap superuser if no super-role account
// exists. It is idempotent: when a superuser is already present it returns
// ("", false, nil) and changes nothing.
//
// The initial password comes from PSM_SUPERUSER_PASSWORD when set; otherwise
// a well-known default is used and the account is flagged to force a change
// on first login. The plaintext password is returned exactly once, at
// creation time, so the caller can surface it.
func (s *Store) EnsureSuperuser(ctx context.Context) (password string, created bool, err error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ?", models.RoleSuper).
		Count(&count).Error; err != nil {
		return "", false, fmt.Errorf("failed to check for existing superuser: %w", err)
	}
	if count > 0 {
		return "", false, nil
	}

	password, fromEnv := models.InitialSuperuserPassword()

	passwordHash, err := models.HashPassword(password)
	if err != nil {
		return "", false, err
	}

	superuser := models.DefaultSuperuser(passwordHash, fromEnv)
	if _, err := s.CreateUser(ctx, superuser); err != nil {
		// Lost a race against another bootstrap instance: superuser exists now.
		if errors.Is(err, models.ErrDuplicateUser) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to create superuser: %w", err)
	}

	return password, true, nil
}

// IsSuperuserInitialized reports whether any super-role account exists.
func (s *Store) IsSuperuserInitialized(ctx context.Context) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ?", models.RoleSuper).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
