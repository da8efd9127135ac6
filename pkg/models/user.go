package models

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	// SuperuserUsername is the fixed username of the bootstrap superuser.
	SuperuserUsername = "super"

	// DefaultSuperuserEmail is assigned when no email is configured.
	DefaultSuperuserEmail = "super@example.com"

	// EnvSuperuserPassword overrides the initial superuser password.
	EnvSuperuserPassword = "PSM_SUPERUSER_PASSWORD"

	// defaultSuperuserPassword is used when no password is provided via
	// environment. Users created with it must change it on first login.
	defaultSuperuserPassword = "123456"
)

// User represents an account for authentication and authorization.
//
// A user has exactly one role. Permission checks resolve in order:
// super role (always allowed), per-user override (UserPermission), then
// role default (RolePermission).
type User struct {
	ID                 string     `gorm:"primaryKey;size:36" json:"id"`
	Username           string     `gorm:"uniqueIndex;not null;size:80" json:"username"`
	PasswordHash       string     `gorm:"not null" json:"-"`
	Email              *string    `gorm:"uniqueIndex;size:120" json:"email,omitempty"`
	Role               Role       `gorm:"not null;default:member;size:20" json:"role"`
	Enabled            bool       `gorm:"default:true" json:"enabled"`
	MustChangePassword bool       `gorm:"default:false" json:"must_change_password"`
	AvatarURL          string     `gorm:"size:255" json:"avatar_url,omitempty"`
	TeamLeaderID       *string    `gorm:"size:36" json:"team_leader_id,omitempty"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLogin          *time.Time `json:"last_login,omitempty"`

	// Per-user permission overrides (beats role defaults).
	Permissions []UserPermission `gorm:"foreignKey:UserID" json:"permissions,omitempty"`
}

// TableName returns the table name for User.
func (User) TableName() string {
	return "users"
}

// Validate checks if the user has valid configuration.
func (u *User) Validate() error {
	if u.Username == "" {
		return fmt.Errorf("username is required")
	}
	if !u.Role.IsValid() {
		return fmt.Errorf("invalid role: %q", u.Role)
	}
	return nil
}

// ExplicitPermission returns the user's per-user override for a permission
// name, if one is loaded. The second return is false when no override exists.
func (u *User) ExplicitPermission(name string) (allowed, ok bool) {
	for _, p := range u.Permissions {
		if p.Permission.Name == name {
			return p.IsAllowed, true
		}
	}
	return false, false
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// InitialSuperuserPassword returns the password to use when creating the
// bootstrap superuser, and whether it came from the environment. When the
// environment does not provide one, the well-known default is used and the
// account is flagged to force a password change.
func InitialSuperuserPassword() (password string, fromEnv bool) {
	if p := os.Getenv(EnvSuperuserPassword); p != "" {
		return p, true
	}
	return defaultSuperuserPassword, false
}

// DefaultSuperuser builds the bootstrap superuser with the given password hash.
func DefaultSuperuser(passwordHash string, passwordFromEnv bool) *User {
	return &User{
		Username:           SuperuserUsername,
		PasswordHash:       passwordHash,
		Email:              OptionalString(DefaultSuperuserEmail),
		Role:               RoleSuper,
		Enabled:            true,
		MustChangePassword: !passwordFromEnv,
	}
}
