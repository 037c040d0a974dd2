package events

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/iqac-kare/feedback-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEventPublisher_StoresEvents(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	publisher := NewMockEventPublisher(logger)

	file := &models.ReportFile{Name: "faculty_feedback_report_S1.xlsx", Data: []byte("xlsx")}
	event := NewReportGeneratedEvent(models.ReportFaculty, models.Filter{Degree: "BTECH"}, "S1", file)

	require.NoError(t, publisher.PublishActivityEvent(context.Background(), event))

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, EventReportGenerated, published[0].Type)
	assert.Equal(t, eventSource, published[0].Source)

	data, ok := published[0].Data.(ReportGeneratedEvent)
	require.True(t, ok)
	assert.Equal(t, "S1", data.StaffID)
	assert.Equal(t, 4, data.Bytes)

	publisher.ClearEvents()
	assert.Empty(t, publisher.GetPublishedEvents())
}

func TestEventFactories(t *testing.T) {
	upload := NewUploadCompletedEvent("feedback.xlsx", 120, 121)
	assert.Equal(t, EventUploadCompleted, upload.Type)
	assert.NotEmpty(t, upload.ID)

	collection := &models.BulkCollection{
		Succeeded: make([]models.FacultyAnalysis, 3),
		Failed:    []models.BulkFailure{{StaffID: "S9", Reason: "timeout"}},
	}
	bulk := NewBulkReportGeneratedEvent(models.Filter{Course: "CS101"}, collection, "bulk.xlsx")
	data := bulk.Data.(BulkReportGeneratedEvent)
	assert.Equal(t, 3, data.Succeeded)
	assert.Len(t, data.Failed, 1)

	q := NewQuestionChangedEvent(EventQuestionDeleted, models.Question{ID: 5, ColumnName: "qn5"})
	assert.Equal(t, 5, q.Data.(QuestionChangedEvent).QuestionID)

	assert.NotEqual(t, GenerateEventID(), GenerateEventID())
}

func TestToMessage_CarriesSessionForPartitioning(t *testing.T) {
	event := NewUploadCompletedEvent("feedback.csv", 2, 2)
	event.Metadata = map[string]interface{}{metadataSessionID: "session-1"}

	msg, err := toMessage(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, event.ID, msg.UUID)
	assert.Equal(t, string(EventUploadCompleted), msg.Metadata.Get("event_type"))

	key, err := sessionPartitionKey("dashboard-activity", msg)
	require.NoError(t, err)
	assert.Equal(t, "session-1", key)
}

func TestSessionPartitionKey_FallsBackToEventID(t *testing.T) {
	event := NewQuestionChangedEvent(EventQuestionCreated, models.Question{ID: 1})

	msg, err := toMessage(context.Background(), event)
	require.NoError(t, err)

	key, err := sessionPartitionKey("dashboard-activity", msg)
	require.NoError(t, err)
	assert.Equal(t, event.ID, key)
}
