package backend

import (
	"context"
	"io"

	"github.com/iqac-kare/feedback-dashboard/internal/models"
)

// API is the feedback-analysis backend as seen by the dashboard
type API interface {
	AnalysisAPI
	QuestionAPI
	UploadAPI
	ReportAPI
}

// AnalysisAPI covers the filter cascade and per-faculty analysis endpoints
type AnalysisAPI interface {
	Degrees(ctx context.Context) ([]string, error)
	Departments(ctx context.Context, degree string) ([]string, error)
	Batches(ctx context.Context, degree, department string) ([]string, error)
	Courses(ctx context.Context, degree, department, batch string) ([]models.Course, error)
	Faculty(ctx context.Context, filter models.Filter, staffID string) ([]models.Faculty, error)
	Feedback(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error)
	Comments(ctx context.Context, req models.AnalysisRequest) (*models.CommentsSummary, error)
}

// QuestionAPI covers the question catalog endpoints
type QuestionAPI interface {
	ListQuestions(ctx context.Context) ([]models.Question, error)
	CreateQuestion(ctx context.Context, q QuestionPayload) (int, error)
	UpdateQuestion(ctx context.Context, id int, q QuestionPayload) error
	CreateOptions(ctx context.Context, options []models.Option) error
	UpdateOptions(ctx context.Context, questionID int, options []models.Option) error
	DeleteQuestion(ctx context.Context, id int) error
}

type UploadAPI interface {
	Upload(ctx context.Context, filename string, file io.Reader) (*UploadResponse, error)
}

type ReportAPI interface {
	GenerateReport(ctx context.Context, path string, payload interface{}) (*models.ReportFile, error)
}

// QuestionPayload is the question body without options
type QuestionPayload struct {
	SectionType models.SectionType `json:"section_type"`
	Question    string             `json:"question"`
	ColumnName  string             `json:"column_name"`
}

type UploadResponse struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Message string `json:"message,omitempty"`
}

// Report endpoint paths
const (
	PathFacultyReport              = "/api/reports/generate-report"
	PathDepartmentReport           = "/api/reports/generate-department-report"
	PathDepartmentAllBatchesReport = "/api/reports/generate-department-report-all-batches"
	PathBulkReport                 = "/api/reports/generate-bulk-report"
	PathServerBulkReport           = "/api/bulk-reports/generate-bulk-report"
)
