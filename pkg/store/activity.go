package store

import (
	"context"

	"github.com/psm-app/psm/pkg/models"
)

// ============================================
// ACTIVITY LOG OPERATIONS
// ============================================

// RecordActivity appends an entry to the activity log.
func (s *Store) RecordActivity(ctx context.Context, entry *models.ActivityLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// ActivityFilter narrows ListActivity results. Zero values mean "no filter".
type ActivityFilter struct {
	Username string
	Module   string
	Limit    int
	Offset   int
}

// ListActivity returns activity log entries, newest first.
func (s *Store) ListActivity(ctx context.Context, filter ActivityFilter) ([]*models.ActivityLog, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}

	q := s.db.WithContext(ctx).Order("timestamp DESC").Limit(filter.Limit).Offset(filter.Offset)
	if filter.Username != "" {
		q = q.Where("username = ?", filter.Username)
	}
	if filter.Module != "" {
		q = q.Where("module = ?", filter.Module)
	}

	entries := []*models.ActivityLog{}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
