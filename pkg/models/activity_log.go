package models

import "time"

// ActivityLog records a single authenticated API request for auditing.
type ActivityLog struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          *string   `gorm:"size:36;index" json:"user_id,omitempty"`
	Username        string    `gorm:"size:80" json:"username,omitempty"`
	ActionType      string    `gorm:"size:50;index" json:"action_type"`
	Module          string    `gorm:"size:50;index" json:"module,omitempty"`
	Endpoint        string    `gorm:"size:255" json:"endpoint,omitempty"`
	RequestMethod   string    `gorm:"size:10" json:"request_method,omitempty"`
	StatusCode      int       `json:"status_code,omitempty"`
	DurationSeconds float64   `json:"duration_seconds,omitempty"`
	IPAddress       string    `gorm:"size:45" json:"ip_address,omitempty"`
	Timestamp       time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}

// TableName returns the table name for ActivityLog.
func (ActivityLog) TableName() string {
	return "activity_logs"
}
