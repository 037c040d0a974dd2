package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iqac-kare/feedback-dashboard/internal/backend"
	"github.com/iqac-kare/feedback-dashboard/internal/events"
	"github.com/iqac-kare/feedback-dashboard/internal/models"
	"github.com/iqac-kare/feedback-dashboard/internal/validator"
	"golang.org/x/sync/errgroup"
)

// ReportService requests spreadsheet reports from the backend
type ReportService interface {
	Generate(ctx context.Context, req *ReportRequest) (*ReportResult, error)

	FacultyReport(ctx context.Context, analysis *models.AnalysisResult, faculty models.Faculty) (*models.ReportFile, error)
	DepartmentReport(ctx context.Context, filter models.Filter) (*models.ReportFile, error)
	DepartmentAllBatchesReport(ctx context.Context, filter models.Filter) (*models.ReportFile, error)
	BulkReport(ctx context.Context, filter models.Filter, faculty []models.Faculty) (*ReportResult, error)
	ServerBulkReport(ctx context.Context, filter models.Filter) (*models.ReportFile, error)

	// CollectAnalyses loads the analysis of every faculty member with bounded
	// concurrency. Individual failures are collected, never returned.
	CollectAnalyses(ctx context.Context, filter models.Filter, faculty []models.Faculty) (*models.BulkCollection, error)
}

// ReportRequest is the JSON body of the report endpoint
type ReportRequest struct {
	Kind     models.ReportKind      `json:"kind" validate:"required,report_kind"`
	Filter   models.Filter          `json:"filters"`
	Analysis *models.AnalysisResult `json:"analysisData,omitempty"`
	Faculty  models.Faculty         `json:"facultyData"`

	// FacultyList restricts a bulk report to these faculty members; when empty
	// the list is loaded for the filter
	FacultyList []models.Faculty `json:"faculty,omitempty"`
}

type ReportResult struct {
	File       *models.ReportFile     `json:"-"`
	Collection *models.BulkCollection `json:"collection,omitempty"`
}

type departmentReportPayload struct {
	Degree     string `json:"degree"`
	Department string `json:"dept"`
	Batch      string `json:"batch,omitempty"`
	Course     string `json:"course,omitempty"`
}

type bulkReportPayload struct {
	Filters models.Filter            `json:"filters"`
	Faculty []models.FacultyAnalysis `json:"faculty"`
}

type reportService struct {
	api         backend.API
	activity    ActivityService
	logger      *slog.Logger
	serviceLog  *ServiceLogger
	validator   *validator.Validator
	concurrency int
}

func NewReportService(api backend.API, activity ActivityService, logger *slog.Logger, validator *validator.Validator, concurrency int) ReportService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &reportService{
		api:      api,
		activity: activity,
		logger:   logger,
		serviceLog: NewServiceLogger(logger, LogConfig{
			Service:       "feedback-dashboard",
			Component:     "reports",
			EnableMetrics: true,
		}),
		validator:   validator,
		concurrency: concurrency,
	}
}

func (s *reportService) Generate(ctx context.Context, req *ReportRequest) (*ReportResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	switch req.Kind {
	case models.ReportFaculty:
		file, err := s.FacultyReport(ctx, req.Analysis, req.Faculty)
		return &ReportResult{File: file}, err
	case models.ReportDepartment:
		file, err := s.DepartmentReport(ctx, req.Filter)
		return &ReportResult{File: file}, err
	case models.ReportDepartmentAllBatches:
		file, err := s.DepartmentAllBatchesReport(ctx, req.Filter)
		return &ReportResult{File: file}, err
	case models.ReportBulk:
		return s.BulkReport(ctx, req.Filter, req.FacultyList)
	case models.ReportBulkServer:
		file, err := s.ServerBulkReport(ctx, req.Filter)
		return &ReportResult{File: file}, err
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidReportKind, req.Kind)
	}
}

// ===== SINGLE REQUEST REPORTS =====

func (s *reportService) FacultyReport(ctx context.Context, analysis *models.AnalysisResult, faculty models.Faculty) (*models.ReportFile, error) {
	if analysis == nil {
		return nil, ErrHandoffMissing
	}
	staffID := analysis.StaffID
	if staffID == "" {
		staffID = faculty.ID()
	}

	payload := models.FacultyAnalysis{AnalysisData: analysis, FacultyData: faculty}
	return s.request(ctx, models.ReportFaculty, backend.PathFacultyReport, models.Filter{}, staffID, payload)
}

func (s *reportService) DepartmentReport(ctx context.Context, filter models.Filter) (*models.ReportFile, error) {
	if err := s.checkFilter(models.ReportDepartment, filter); err != nil {
		return nil, err
	}
	payload := departmentReportPayload{
		Degree:     filter.Degree,
		Department: filter.Department,
		Batch:      filter.Batch,
	}
	return s.request(ctx, models.ReportDepartment, backend.PathDepartmentReport, filter, "", payload)
}

func (s *reportService) DepartmentAllBatchesReport(ctx context.Context, filter models.Filter) (*models.ReportFile, error) {
	if err := s.checkFilter(models.ReportDepartmentAllBatches, filter); err != nil {
		return nil, err
	}
	payload := departmentReportPayload{
		Degree:     filter.Degree,
		Department: filter.Department,
	}
	return s.request(ctx, models.ReportDepartmentAllBatches, backend.PathDepartmentAllBatchesReport, filter, "", payload)
}

func (s *reportService) ServerBulkReport(ctx context.Context, filter models.Filter) (*models.ReportFile, error) {
	if err := s.checkFilter(models.ReportBulkServer, filter); err != nil {
		return nil, err
	}
	payload := departmentReportPayload{
		Degree:     filter.Degree,
		Department: filter.Department,
		Batch:      filter.Batch,
		Course:     filter.Course,
	}
	return s.request(ctx, models.ReportBulkServer, backend.PathServerBulkReport, filter, "", payload)
}

// request posts payload to path and records the generated report
func (s *reportService) request(ctx context.Context, kind models.ReportKind, path string, filter models.Filter, staffID string, payload interface{}) (*models.ReportFile, error) {
	op := s.serviceLog.WithOperation(ctx, "generate_"+string(kind)+"_report")

	file, err := s.api.GenerateReport(ctx, path, payload)
	if err != nil {
		err = wrapBackendError(fmt.Sprintf("generate %s report", kind), err)
		op.LogResult("report", string(kind), err)
		return nil, err
	}
	file.Name = kind.FileName(filter, staffID)
	op.LogResult("report", file.Name, nil)

	s.activity.Record(ctx, ActivityEntry{
		Type:        models.ActivityReportGenerated,
		TargetType:  "report",
		TargetID:    file.Name,
		Description: fmt.Sprintf("Generated %s report", kind),
		Metadata: map[string]interface{}{
			"kind":     kind,
			"filters":  filter,
			"staff_id": staffID,
			"bytes":    len(file.Data),
		},
		Event: events.NewReportGeneratedEvent(kind, filter, staffID, file),
	})

	return file, nil
}

func (s *reportService) checkFilter(kind models.ReportKind, filter models.Filter) error {
	if errs := s.validator.Business().ValidateReportFilter(kind, filter); len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrMissingFilter, errs)
	}
	return nil
}

// ===== BULK REPORT =====

func (s *reportService) BulkReport(ctx context.Context, filter models.Filter, faculty []models.Faculty) (*ReportResult, error) {
	if err := s.checkFilter(models.ReportBulk, filter); err != nil {
		return nil, err
	}

	if len(faculty) == 0 {
		list, err := s.api.Faculty(ctx, filter, "")
		if err != nil {
			return nil, wrapBackendError("load faculty for bulk report", err)
		}
		faculty = list
	}
	if len(faculty) == 0 {
		return nil, ErrNoFaculty
	}

	collection, err := s.CollectAnalyses(ctx, filter, faculty)
	if err != nil {
		return nil, err
	}
	result := &ReportResult{Collection: collection}
	if len(collection.Succeeded) == 0 {
		return result, fmt.Errorf("%w: %d of %d failed", ErrBulkCollectionFail, len(collection.Failed), len(faculty))
	}

	payload := bulkReportPayload{Filters: filter, Faculty: collection.Succeeded}
	file, err := s.api.GenerateReport(ctx, backend.PathBulkReport, payload)
	if err != nil {
		return result, wrapBackendError("generate bulk report", err)
	}
	file.Name = models.ReportBulk.FileName(filter, "")
	result.File = file

	s.activity.Record(ctx, ActivityEntry{
		Type:        models.ActivityBulkReport,
		TargetType:  "report",
		TargetID:    file.Name,
		Description: fmt.Sprintf("Generated bulk report for %d of %d faculty", len(collection.Succeeded), len(faculty)),
		Metadata: map[string]interface{}{
			"filters":   filter,
			"succeeded": len(collection.Succeeded),
			"failed":    collection.Failed,
		},
		Event: events.NewBulkReportGeneratedEvent(filter, collection, file.Name),
	})

	return result, nil
}

func (s *reportService) CollectAnalyses(ctx context.Context, filter models.Filter, faculty []models.Faculty) (*models.BulkCollection, error) {
	start := time.Now()

	// One slot per faculty member keeps the input order in the result
	slots := make([]*models.FacultyAnalysis, len(faculty))
	failures := make([]*models.BulkFailure, len(faculty))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.concurrency)

	for i, member := range faculty {
		eg.Go(func() error {
			if egCtx.Err() != nil {
				failures[i] = &models.BulkFailure{StaffID: member.ID(), Reason: egCtx.Err().Error()}
				return nil
			}

			req := models.AnalysisRequest{Filter: filter, StaffID: member.ID()}
			if req.StaffID == "" {
				failures[i] = &models.BulkFailure{StaffID: "", Reason: "missing staff id"}
				return nil
			}

			analysis, err := s.api.Feedback(egCtx, req)
			if err != nil {
				s.logger.Warn("Bulk analysis fetch failed", "staff_id", req.StaffID, "error", err)
				failures[i] = &models.BulkFailure{StaffID: req.StaffID, Reason: failureReason(err)}
				return nil
			}
			slots[i] = &models.FacultyAnalysis{AnalysisData: analysis, FacultyData: member}
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("bulk collection cancelled: %w", err)
	}

	collection := &models.BulkCollection{
		Succeeded: []models.FacultyAnalysis{},
		Failed:    []models.BulkFailure{},
	}
	for i := range faculty {
		switch {
		case slots[i] != nil:
			collection.Succeeded = append(collection.Succeeded, *slots[i])
		case failures[i] != nil:
			collection.Failed = append(collection.Failed, *failures[i])
		}
	}

	s.serviceLog.LogPerformanceMetrics(ctx, "collect_analyses", PerformanceMetrics{
		TotalDuration: time.Since(start),
		BackendCalls:  len(faculty),
		Items:         len(collection.Succeeded),
		FailedItems:   len(collection.Failed),
	})

	return collection, nil
}

func failureReason(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
