package models

import (
	"time"

	"gorm.io/datatypes"
)

type ActivityType string

const (
	ActivityUploadCompleted ActivityType = "upload_completed"
	ActivityReportGenerated ActivityType = "report_generated"
	ActivityBulkReport      ActivityType = "bulk_report_generated"
	ActivityScoresExported  ActivityType = "scores_exported"
	ActivityQuestionCreated ActivityType = "question_created"
	ActivityQuestionUpdated ActivityType = "question_updated"
	ActivityQuestionDeleted ActivityType = "question_deleted"
)

// ActivityLog is a dashboard-side record of a user-initiated action
type ActivityLog struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	EventType ActivityType `json:"event_type" gorm:"not null;index;size:50"`

	// Target information
	TargetType string `json:"target_type" gorm:"size:50;index"` // upload, report, question
	TargetID   string `json:"target_id" gorm:"size:100;index"`

	Description string         `json:"description" gorm:"not null;type:text"`
	Metadata    datatypes.JSON `json:"metadata" gorm:"type:jsonb"`

	// Request context
	SessionID string `json:"session_id" gorm:"size:36;index"`
	IPAddress string `json:"ip_address" gorm:"size:45"`
	UserAgent string `json:"user_agent" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}
