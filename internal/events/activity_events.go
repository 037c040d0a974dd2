package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/iqac-kare/feedback-dashboard/internal/models"
)

// EventType represents different types of dashboard activity events
type EventType string

const (
	// Upload events
	EventUploadCompleted EventType = "upload.completed"

	// Report events
	EventReportGenerated     EventType = "report.generated"
	EventBulkReportGenerated EventType = "report.bulk_generated"
	EventScoresExported      EventType = "report.scores_exported"

	// Question catalog events
	EventQuestionCreated EventType = "question.created"
	EventQuestionUpdated EventType = "question.updated"
	EventQuestionDeleted EventType = "question.deleted"
)

const eventSource = "feedback-dashboard"

// ActivityEvent is the envelope for every published dashboard event
type ActivityEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event payloads

type UploadCompletedEvent struct {
	FileName     string `json:"file_name"`
	RecordCount  int    `json:"record_count"`
	PreflightRow int    `json:"preflight_rows"`
}

type ReportGeneratedEvent struct {
	Kind     models.ReportKind `json:"kind"`
	Filter   models.Filter     `json:"filter"`
	StaffID  string            `json:"staff_id,omitempty"`
	FileName string            `json:"file_name"`
	Bytes    int               `json:"bytes"`
}

type BulkReportGeneratedEvent struct {
	Filter    models.Filter        `json:"filter"`
	Succeeded int                  `json:"succeeded"`
	Failed    []models.BulkFailure `json:"failed,omitempty"`
	FileName  string               `json:"file_name"`
}

type ScoresExportedEvent struct {
	StaffID    string `json:"staff_id"`
	CourseCode string `json:"course_code"`
	Overall    int    `json:"overall"`
	FileName   string `json:"file_name"`
}

type QuestionChangedEvent struct {
	QuestionID  int                `json:"question_id"`
	ColumnName  string             `json:"column_name,omitempty"`
	SectionType models.SectionType `json:"section_type,omitempty"`
	OptionCount int                `json:"option_count,omitempty"`
}

// Event factory functions

func NewActivityEvent(eventType EventType, data interface{}) *ActivityEvent {
	return &ActivityEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data:      data,
	}
}

func NewUploadCompletedEvent(fileName string, count, preflightRows int) *ActivityEvent {
	return NewActivityEvent(EventUploadCompleted, UploadCompletedEvent{
		FileName:     fileName,
		RecordCount:  count,
		PreflightRow: preflightRows,
	})
}

func NewReportGeneratedEvent(kind models.ReportKind, filter models.Filter, staffID string, file *models.ReportFile) *ActivityEvent {
	return NewActivityEvent(EventReportGenerated, ReportGeneratedEvent{
		Kind:     kind,
		Filter:   filter,
		StaffID:  staffID,
		FileName: file.Name,
		Bytes:    len(file.Data),
	})
}

func NewBulkReportGeneratedEvent(filter models.Filter, collection *models.BulkCollection, fileName string) *ActivityEvent {
	return NewActivityEvent(EventBulkReportGenerated, BulkReportGeneratedEvent{
		Filter:    filter,
		Succeeded: len(collection.Succeeded),
		Failed:    collection.Failed,
		FileName:  fileName,
	})
}

func NewScoresExportedEvent(staffID, courseCode string, overall int, fileName string) *ActivityEvent {
	return NewActivityEvent(EventScoresExported, ScoresExportedEvent{
		StaffID:    staffID,
		CourseCode: courseCode,
		Overall:    overall,
		FileName:   fileName,
	})
}

func NewQuestionChangedEvent(eventType EventType, q models.Question) *ActivityEvent {
	return NewActivityEvent(eventType, QuestionChangedEvent{
		QuestionID:  q.ID,
		ColumnName:  q.ColumnName,
		SectionType: q.SectionType,
		OptionCount: len(q.Options),
	})
}

// GenerateEventID returns a unique event identifier
func GenerateEventID() string {
	return uuid.NewString()
}
