package models

import "errors"

// Common errors for identity and configuration operations.
var (
	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrUserDisabled       = errors.New("user account is disabled")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Permission errors
	ErrPermissionNotFound = errors.New("permission not found")

	// System config errors
	ErrConfigNotFound = errors.New("system config not found")
)
