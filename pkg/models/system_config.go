package models

import "time"

// SystemConfig stores a system-wide key-value configuration entry.
//
// Baseline entries are seeded at bootstrap with empty or conservative
// values; seeding never overwrites a value an operator has already set.
type SystemConfig struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Key         string    `gorm:"uniqueIndex;not null;size:64" json:"key"`
	Value       string    `gorm:"size:255" json:"value"`
	Description string    `gorm:"size:255" json:"description,omitempty"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for SystemConfig.
func (SystemConfig) TableName() string {
	return "system_configs"
}

// Well-known system config keys.
const (
	// ConfigAllowRegistration gates self-service account registration.
	ConfigAllowRegistration = "ALLOW_REGISTRATION"

	// ConfigSessionLifetime is the session lifetime in seconds.
	ConfigSessionLifetime = "SESSION_LIFETIME_SECONDS"

	// ConfigAutoBackupCron is the cron schedule for automatic backups.
	ConfigAutoBackupCron = "AUTOBACKUP_CRON_SCHEDULE"

	// ConfigDeepSeekAPIKey is the system-wide AI provider API key.
	ConfigDeepSeekAPIKey = "DEEPSEEK_API_KEY"
)
