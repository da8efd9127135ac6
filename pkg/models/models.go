// Package models defines the persistent domain model: users, the role and
// permission system, system configuration entries and the activity log.
package models

// OptionalString converts a string to a nullable pointer, mapping the
// empty string to nil so unique nullable columns stay NULL.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// AllModels returns all GORM models for auto-migration.
func AllModels() []any {
	return []any{
		&User{},
		&Permission{},
		&RolePermission{},
		&UserPermission{},
		&SystemConfig{},
		&ActivityLog{},
	}
}
