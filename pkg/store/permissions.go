package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/psm-app/psm/pkg/models"
)

// ============================================
// PERMISSION OPERATIONS
// ============================================

func (s *Store) GetPermission(ctx context.Context, name string) (*models.Permission, error) {
	return getByField[models.Permission](s.db, ctx, "name", name, models.ErrPermissionNotFound)
}

func (s *Store) ListPermissions(ctx context.Context) ([]*models.Permission, error) {
	return listAll[models.Permission](s.db, ctx)
}

// EnsurePermission creates a permission if it does not exist yet.
// Existing permissions are left untouched (descriptions are not updated),
// which makes repeated seeding safe.
func (s *Store) EnsurePermission(ctx context.Context, name, description string) (created bool, err error) {
	var existing models.Permission
	err = s.db.WithContext(ctx).Where("name = ?", name).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	perm := models.Permission{Name: name, Description: description, IsActive: true}
	if err := s.db.WithContext(ctx).Create(&perm).Error; err != nil {
		if isUniqueConstraintError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ============================================
// ROLE GRANT OPERATIONS
// ============================================

// EnsureRolePermission grants a permission to a role if the grant does not
// exist yet. The permission must already exist.
func (s *Store) EnsureRolePermission(ctx context.Context, role models.Role, permissionName string) (created bool, err error) {
	perm, err := s.GetPermission(ctx, permissionName)
	if err != nil {
		return false, err
	}

	var existing models.RolePermission
	err = s.db.WithContext(ctx).
		Where("role = ? AND permission_id = ?", role, perm.ID).
		First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	grant := models.RolePermission{Role: role, PermissionID: perm.ID, IsAllowed: true}
	if err := s.db.WithContext(ctx).Create(&grant).Error; err != nil {
		if isUniqueConstraintError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListRolePermissions returns the default grants for a role.
func (s *Store) ListRolePermissions(ctx context.Context, role models.Role) ([]*models.RolePermission, error) {
	grants := []*models.RolePermission{}
	if err := s.db.WithContext(ctx).
		Preload("Permission").
		Where("role = ?", role).
		Find(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}

// SetRolePermissions replaces the default grant set for a role with exactly
// the named permissions.
func (s *Store) SetRolePermissions(ctx context.Context, role models.Role, permissionNames []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		perms := []models.Permission{}
		if len(permissionNames) > 0 {
			if err := tx.Where("name IN ?", permissionNames).Find(&perms).Error; err != nil {
				return err
			}
		}
		if len(perms) != len(permissionNames) {
			return models.ErrPermissionNotFound
		}

		if err := tx.Where("role = ?", role).Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}

		for _, p := range perms {
			grant := models.RolePermission{Role: role, PermissionID: p.ID, IsAllowed: true}
			if err := tx.Create(&grant).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SetUserPermission sets a per-user override for a permission.
func (s *Store) SetUserPermission(ctx context.Context, userID, permissionName string, allowed bool) error {
	perm, err := s.GetPermission(ctx, permissionName)
	if err != nil {
		return err
	}

	var existing models.UserPermission
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND permission_id = ?", userID, perm.ID).
		First(&existing).Error
	if err == nil {
		return s.db.WithContext(ctx).
			Model(&existing).
			Update("is_allowed", allowed).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	override := models.UserPermission{UserID: userID, PermissionID: perm.ID, IsAllowed: allowed}
	return s.db.WithContext(ctx).Create(&override).Error
}

// UserCan resolves whether a user holds a permission. The super role
// always passes, then a per-user override wins over the role default.
// Absent either, the permission is denied.
func (s *Store) UserCan(ctx context.Context, user *models.User, permissionName string) (bool, error) {
	if user.Role == models.RoleSuper {
		return true, nil
	}

	var userPerm models.UserPermission
	err := s.db.WithContext(ctx).
		Joins("JOIN permissions ON permissions.id = user_permissions.permission_id").
		Where("user_permissions.user_id = ? AND permissions.name = ?", user.ID, permissionName).
		First(&userPerm).Error
	if err == nil {
		return userPerm.IsAllowed, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	var rolePerm models.RolePermission
	err = s.db.WithContext(ctx).
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Where("role_permissions.role = ? AND permissions.name = ?", user.Role, permissionName).
		First(&rolePerm).Error
	if err == nil {
		return rolePerm.IsAllowed, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	return false, nil
}
