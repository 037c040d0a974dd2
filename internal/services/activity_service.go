package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/iqac-kare/feedback-dashboard/internal/events"
	"github.com/iqac-kare/feedback-dashboard/internal/models"
	"github.com/iqac-kare/feedback-dashboard/internal/repositories"
	"gorm.io/datatypes"
)

// ActivityService records user-initiated dashboard actions in the activity
// log and publishes them as events. Recording is best effort: failures are
// logged and never returned to the action that triggered them.
type ActivityService interface {
	Record(ctx context.Context, entry ActivityEntry)
	Recent(ctx context.Context, filters repositories.ActivityFilters) (*ActivityListResponse, error)
	Stats(ctx context.Context) (*repositories.ActivityStats, error)
}

// ActivityEntry describes one action to record
type ActivityEntry struct {
	Type        models.ActivityType
	TargetType  string
	TargetID    string
	Description string
	Metadata    map[string]interface{}
	Event       *events.ActivityEvent
}

type ActivityListResponse struct {
	Entries []*models.ActivityLog `json:"entries"`
	Total   int64                 `json:"total"`
}

type activityService struct {
	repo           repositories.ActivityRepository
	eventPublisher events.EventPublisher
	logger         *slog.Logger
}

func NewActivityService(
	repo repositories.ActivityRepository,
	eventPublisher events.EventPublisher,
	logger *slog.Logger,
) ActivityService {
	return &activityService{
		repo:           repo,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) {
	meta := RequestMetaFromContext(ctx)

	log := &models.ActivityLog{
		EventType:   entry.Type,
		TargetType:  entry.TargetType,
		TargetID:    entry.TargetID,
		Description: entry.Description,
		SessionID:   meta.SessionID,
		IPAddress:   meta.IPAddress,
		UserAgent:   meta.UserAgent,
	}
	if len(entry.Metadata) > 0 {
		data, err := json.Marshal(entry.Metadata)
		if err != nil {
			s.logger.Warn("Dropping unencodable activity metadata", "event_type", entry.Type, "error", err)
		} else {
			log.Metadata = datatypes.JSON(data)
		}
	}

	if err := s.repo.Create(ctx, nil, log); err != nil {
		s.logger.Error("Failed to record activity",
			"event_type", entry.Type,
			"target_id", entry.TargetID,
			"error", err)
	}

	if entry.Event == nil {
		return
	}
	if meta.SessionID != "" {
		if entry.Event.Metadata == nil {
			entry.Event.Metadata = map[string]interface{}{}
		}
		entry.Event.Metadata["session_id"] = meta.SessionID
	}
	if err := s.eventPublisher.PublishActivityEvent(ctx, entry.Event); err != nil {
		s.logger.Error("Failed to publish activity event",
			"event_id", entry.Event.ID,
			"event_type", entry.Event.Type,
			"error", err)
	}
}

func (s *activityService) Recent(ctx context.Context, filters repositories.ActivityFilters) (*ActivityListResponse, error) {
	entries, total, err := s.repo.List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return &ActivityListResponse{Entries: entries, Total: total}, nil
}

func (s *activityService) Stats(ctx context.Context) (*repositories.ActivityStats, error) {
	stats, err := s.repo.GetStats(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity stats: %w", err)
	}
	return stats, nil
}
