package repositories

import (
	"context"

	"github.com/iqac-kare/feedback-dashboard/internal/models"
	"gorm.io/gorm"
)

// ActivityRepository interface for the dashboard activity log
type ActivityRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *models.ActivityLog) error
	List(ctx context.Context, tx *gorm.DB, filters ActivityFilters) ([]*models.ActivityLog, int64, error)
	GetStats(ctx context.Context, tx *gorm.DB) (*ActivityStats, error)
}

// noopActivityRepository discards entries when no database is configured
type noopActivityRepository struct{}

func NewNoopActivityRepository() ActivityRepository {
	return noopActivityRepository{}
}

func (noopActivityRepository) Create(ctx context.Context, tx *gorm.DB, entry *models.ActivityLog) error {
	return nil
}

func (noopActivityRepository) List(ctx context.Context, tx *gorm.DB, filters ActivityFilters) ([]*models.ActivityLog, int64, error) {
	return []*models.ActivityLog{}, 0, nil
}

func (noopActivityRepository) GetStats(ctx context.Context, tx *gorm.DB) (*ActivityStats, error) {
	return &ActivityStats{ByType: map[models.ActivityType]int64{}}, nil
}
