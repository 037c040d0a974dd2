package services

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/iqac-kare/feedback-dashboard/internal/backend"
	"github.com/iqac-kare/feedback-dashboard/internal/models"
	"github.com/iqac-kare/feedback-dashboard/internal/repositories"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockBackendAPI is a mock implementation of backend.API
type MockBackendAPI struct {
	mock.Mock
}

var _ backend.API = (*MockBackendAPI)(nil)

func (m *MockBackendAPI) Degrees(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return stringsArg(args, 0), args.Error(1)
}

func (m *MockBackendAPI) Departments(ctx context.Context, degree string) ([]string, error) {
	args := m.Called(ctx, degree)
	return stringsArg(args, 0), args.Error(1)
}

func (m *MockBackendAPI) Batches(ctx context.Context, degree, department string) ([]string, error) {
	args := m.Called(ctx, degree, department)
	return stringsArg(args, 0), args.Error(1)
}

func (m *MockBackendAPI) Courses(ctx context.Context, degree, department, batch string) ([]models.Course, error) {
	args := m.Called(ctx, degree, department, batch)
	courses, _ := args.Get(0).([]models.Course)
	return courses, args.Error(1)
}

func (m *MockBackendAPI) Faculty(ctx context.Context, filter models.Filter, staffID string) ([]models.Faculty, error) {
	args := m.Called(ctx, filter, staffID)
	faculty, _ := args.Get(0).([]models.Faculty)
	return faculty, args.Error(1)
}

func (m *MockBackendAPI) Feedback(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*models.AnalysisResult)
	return result, args.Error(1)
}

func (m *MockBackendAPI) Comments(ctx context.Context, req models.AnalysisRequest) (*models.CommentsSummary, error) {
	args := m.Called(ctx, req)
	summary, _ := args.Get(0).(*models.CommentsSummary)
	return summary, args.Error(1)
}

func (m *MockBackendAPI) ListQuestions(ctx context.Context) ([]models.Question, error) {
	args := m.Called(ctx)
	questions, _ := args.Get(0).([]models.Question)
	return questions, args.Error(1)
}

func (m *MockBackendAPI) CreateQuestion(ctx context.Context, q backend.QuestionPayload) (int, error) {
	args := m.Called(ctx, q)
	return args.Int(0), args.Error(1)
}

func (m *MockBackendAPI) UpdateQuestion(ctx context.Context, id int, q backend.QuestionPayload) error {
	args := m.Called(ctx, id, q)
	return args.Error(0)
}

func (m *MockBackendAPI) CreateOptions(ctx context.Context, options []models.Option) error {
	args := m.Called(ctx, options)
	return args.Error(0)
}

func (m *MockBackendAPI) UpdateOptions(ctx context.Context, questionID int, options []models.Option) error {
	args := m.Called(ctx, questionID, options)
	return args.Error(0)
}

func (m *MockBackendAPI) DeleteQuestion(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBackendAPI) Upload(ctx context.Context, filename string, file io.Reader) (*backend.UploadResponse, error) {
	data, _ := io.ReadAll(file)
	args := m.Called(ctx, filename, data)
	resp, _ := args.Get(0).(*backend.UploadResponse)
	return resp, args.Error(1)
}

func (m *MockBackendAPI) GenerateReport(ctx context.Context, path string, payload interface{}) (*models.ReportFile, error) {
	args := m.Called(ctx, path, payload)
	file, _ := args.Get(0).(*models.ReportFile)
	if file != nil {
		// Callers name the returned file; hand out a copy so expectations stay reusable
		cp := *file
		file = &cp
	}
	return file, args.Error(1)
}

func stringsArg(args mock.Arguments, i int) []string {
	v, _ := args.Get(i).([]string)
	return v
}

// MockActivityRepository is a mock implementation of ActivityRepository
type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Create(ctx context.Context, tx *gorm.DB, entry *models.ActivityLog) error {
	args := m.Called(ctx, tx, entry)
	return args.Error(0)
}

func (m *MockActivityRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.ActivityFilters) ([]*models.ActivityLog, int64, error) {
	args := m.Called(ctx, tx, filters)
	entries, _ := args.Get(0).([]*models.ActivityLog)
	return entries, args.Get(1).(int64), args.Error(2)
}

func (m *MockActivityRepository) GetStats(ctx context.Context, tx *gorm.DB) (*repositories.ActivityStats, error) {
	args := m.Called(ctx, tx)
	stats, _ := args.Get(0).(*repositories.ActivityStats)
	return stats, args.Error(1)
}

// recordingActivity captures recorded entries
type recordingActivity struct {
	mu      sync.Mutex
	entries []ActivityEntry
}

func (r *recordingActivity) Record(ctx context.Context, entry ActivityEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *recordingActivity) Recent(ctx context.Context, filters repositories.ActivityFilters) (*ActivityListResponse, error) {
	return &ActivityListResponse{}, nil
}

func (r *recordingActivity) Stats(ctx context.Context) (*repositories.ActivityStats, error) {
	return &repositories.ActivityStats{}, nil
}

func (r *recordingActivity) types() []models.ActivityType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.ActivityType, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Type
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
