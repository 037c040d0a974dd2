package repositories

import (
	"time"

	"github.com/iqac-kare/feedback-dashboard/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type ActivityFilters struct {
	EventType  *models.ActivityType `json:"event_type"`
	TargetType string               `json:"target_type"`
	DateFrom   *time.Time           `json:"date_from"`
	DateTo     *time.Time           `json:"date_to"`
	Limit      int                  `json:"limit"`
	Offset     int                  `json:"offset"`
	SortOrder  string               `json:"sort_order"` // "asc", "desc"
}

// ===== STATS STRUCTS =====

type ActivityStats struct {
	Total  int64                         `json:"total"`
	ByType map[models.ActivityType]int64 `json:"by_type"`
}
