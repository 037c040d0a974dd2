package services

import (
	"log/slog"

	"github.com/iqac-kare/feedback-dashboard/internal/backend"
	"github.com/iqac-kare/feedback-dashboard/internal/events"
	"github.com/iqac-kare/feedback-dashboard/internal/handoff"
	"github.com/iqac-kare/feedback-dashboard/internal/repositories"
	"github.com/iqac-kare/feedback-dashboard/internal/validator"
)

// ServiceManager gives handlers access to every dashboard service
type ServiceManager interface {
	Filter() FilterService
	Analysis() AnalysisService
	Question() QuestionService
	Upload() UploadService
	Export() ExportService
	Report() ReportService
	Activity() ActivityService
}

// ServiceDeps are the collaborators the services are built from
type ServiceDeps struct {
	API             backend.API
	Handoff         handoff.Store
	ActivityRepo    repositories.ActivityRepository
	EventPublisher  events.EventPublisher
	Validator       *validator.Validator
	Logger          *slog.Logger
	BulkConcurrency int
}

type serviceManager struct {
	filter   FilterService
	analysis AnalysisService
	question QuestionService
	upload   UploadService
	export   ExportService
	report   ReportService
	activity ActivityService
}

func NewServiceManager(deps ServiceDeps) ServiceManager {
	activity := NewActivityService(deps.ActivityRepo, deps.EventPublisher, deps.Logger.With("service", "activity"))

	return &serviceManager{
		filter:   NewFilterService(deps.API, deps.Logger.With("service", "filter")),
		analysis: NewAnalysisService(deps.API, deps.Handoff, deps.Logger.With("service", "analysis"), deps.Validator),
		question: NewQuestionService(deps.API, activity, deps.Logger.With("service", "question"), deps.Validator),
		upload:   NewUploadService(deps.API, activity, deps.Logger.With("service", "upload"), deps.Validator),
		export:   NewExportService(activity, deps.Logger.With("service", "export")),
		report:   NewReportService(deps.API, activity, deps.Logger.With("service", "report"), deps.Validator, deps.BulkConcurrency),
		activity: activity,
	}
}

func (m *serviceManager) Filter() FilterService     { return m.filter }
func (m *serviceManager) Analysis() AnalysisService { return m.analysis }
func (m *serviceManager) Question() QuestionService { return m.question }
func (m *serviceManager) Upload() UploadService     { return m.upload }
func (m *serviceManager) Export() ExportService     { return m.export }
func (m *serviceManager) Report() ReportService     { return m.report }
func (m *serviceManager) Activity() ActivityService { return m.activity }
