package validator

import (
	"path/filepath"
	"strings"

	"github.com/iqac-kare/feedback-dashboard/internal/errors"
	"github.com/iqac-kare/feedback-dashboard/internal/models"
)

// AllowedUploadExtensions lists the spreadsheet formats the upload endpoint accepts
var AllowedUploadExtensions = []string{".csv", ".xlsx", ".xls"}

// BusinessValidator checks dashboard rules that struct tags cannot express
type BusinessValidator struct{}

func NewBusinessValidator() *BusinessValidator {
	return &BusinessValidator{}
}

// ValidateReportFilter checks that every filter level the report kind needs is set
func (v *BusinessValidator) ValidateReportFilter(kind models.ReportKind, filter models.Filter) ValidationErrors {
	var errs ValidationErrors
	if !kind.Valid() {
		errs = append(errs, *errors.NewValidationErrorWithRule("kind", "must be a valid report kind", "report_kind", string(kind)))
		return errs
	}

	for _, level := range kind.RequiredLevels() {
		if filterValue(filter, level) == "" {
			errs = append(errs, *errors.NewValidationErrorWithRule(level.String(), "is required", "required", nil))
		}
	}
	return errs
}

// ValidateUploadFilename checks the extension of an uploaded spreadsheet
func (v *BusinessValidator) ValidateUploadFilename(filename string) *ValidationError {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range AllowedUploadExtensions {
		if ext == allowed {
			return nil
		}
	}
	return errors.NewValidationErrorWithRule("file", "Please select a CSV or Excel file", "file_type", ext)
}

func filterValue(f models.Filter, level models.FilterLevel) string {
	switch level {
	case models.LevelDegree:
		return f.Degree
	case models.LevelDepartment:
		return f.Department
	case models.LevelBatch:
		return f.Batch
	case models.LevelCourse:
		return f.Course
	default:
		return ""
	}
}
