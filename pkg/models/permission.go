package models

// Permission is a named capability, e.g. "manage_projects".
//
// The full catalog is seeded at bootstrap (see pkg/seed); deployments may
// deactivate individual permissions without deleting them.
type Permission struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;not null;size:100" json:"name"`
	Description string `gorm:"size:255" json:"description,omitempty"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
}

// TableName returns the table name for Permission.
func (Permission) TableName() string {
	return "permissions"
}

// RolePermission grants a permission to a role by default.
//
// The pair (role, permission) is unique. IsAllowed exists so a grant can be
// flipped off without deleting the row.
type RolePermission struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Role         Role       `gorm:"not null;size:20;uniqueIndex:idx_role_permission" json:"role"`
	PermissionID uint       `gorm:"not null;uniqueIndex:idx_role_permission" json:"permission_id"`
	IsAllowed    bool       `gorm:"default:true" json:"is_allowed"`
	Permission   Permission `gorm:"foreignKey:PermissionID" json:"permission,omitempty"`
}

// TableName returns the table name for RolePermission.
func (RolePermission) TableName() string {
	return "role_permissions"
}

// UserPermission overrides a role default for a single user.
type UserPermission struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       string     `gorm:"not null;size:36;uniqueIndex:idx_user_permission" json:"user_id"`
	PermissionID uint       `gorm:"not null;uniqueIndex:idx_user_permission" json:"permission_id"`
	IsAllowed    bool       `gorm:"default:true" json:"is_allowed"`
	Permission   Permission `gorm:"foreignKey:PermissionID" json:"permission,omitempty"`
}

// TableName returns the table name for UserPermission.
func (UserPermission) TableName() string {
	return "user_permissions"
}
