package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/iqac-kare/feedback-dashboard/internal/models"
	"github.com/iqac-kare/feedback-dashboard/internal/repositories"
	"gorm.io/gorm"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
)

type ActivityPostgreSQL struct {
	db *gorm.DB
}

func NewActivityPostgreSQL(db *gorm.DB) repositories.ActivityRepository {
	return &ActivityPostgreSQL{db: db}
}

// getDB prefers the caller's transaction when one is given
func (a *ActivityPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

// Create stores an activity entry
func (a *ActivityPostgreSQL) Create(ctx context.Context, tx *gorm.DB, entry *models.ActivityLog) error {
	if err := a.getDB(tx).WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create activity log: %w", err)
	}
	return nil
}

// List returns activity entries newest first unless sort_order is asc
func (a *ActivityPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ActivityFilters) ([]*models.ActivityLog, int64, error) {
	query := a.getDB(tx).WithContext(ctx).Model(&models.ActivityLog{})

	// Apply filters
	query = a.applyFilters(query, filters)

	// Count total
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Apply pagination and ordering
	query = a.applyPaginationAndSort(query, filters)

	var entries []*models.ActivityLog
	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// GetStats counts entries per activity type
func (a *ActivityPostgreSQL) GetStats(ctx context.Context, tx *gorm.DB) (*repositories.ActivityStats, error) {
	var rows []struct {
		EventType models.ActivityType
		Count     int64
	}
	err := a.getDB(tx).WithContext(ctx).
		Model(&models.ActivityLog{}).
		Select("event_type, COUNT(*) AS count").
		Group("event_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate activity stats: %w", err)
	}

	stats := &repositories.ActivityStats{ByType: make(map[models.ActivityType]int64, len(rows))}
	for _, row := range rows {
		stats.ByType[row.EventType] = row.Count
		stats.Total += row.Count
	}
	return stats, nil
}

func (a *ActivityPostgreSQL) applyFilters(query *gorm.DB, filters repositories.ActivityFilters) *gorm.DB {
	if filters.EventType != nil {
		query = query.Where("event_type = ?", *filters.EventType)
	}
	if filters.TargetType != "" {
		query = query.Where("target_type = ?", filters.TargetType)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

func (a *ActivityPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.ActivityFilters) *gorm.DB {
	order := "DESC"
	if strings.EqualFold(filters.SortOrder, "asc") {
		order = "ASC"
	}
	query = query.Order("created_at " + order).Order("id " + order)

	limit := filters.Limit
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	query = query.Limit(limit)

	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
