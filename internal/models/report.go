package models

import "fmt"

type ReportKind string

const (
	ReportFaculty              ReportKind = "faculty"
	ReportDepartment           ReportKind = "department"
	ReportDepartmentAllBatches ReportKind = "department_all_batches"
	ReportBulk                 ReportKind = "bulk"
	ReportBulkServer           ReportKind = "bulk_server"
)

// SpreadsheetContentType is the content type the backend sends for xlsx reports
const SpreadsheetContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RequiredLevels returns the filter levels that must be set before the report can be requested
func (k ReportKind) RequiredLevels() []FilterLevel {
	switch k {
	case ReportDepartment:
		return []FilterLevel{LevelDegree, LevelDepartment, LevelBatch}
	case ReportDepartmentAllBatches:
		return []FilterLevel{LevelDegree, LevelDepartment}
	case ReportBulk, ReportBulkServer:
		return []FilterLevel{LevelDegree, LevelDepartment, LevelBatch, LevelCourse}
	default:
		return nil
	}
}

func (k ReportKind) Valid() bool {
	switch k {
	case ReportFaculty, ReportDepartment, ReportDepartmentAllBatches, ReportBulk, ReportBulkServer:
		return true
	}
	return false
}

// FileName returns the download name for a report
func (k ReportKind) FileName(f Filter, staffID string) string {
	switch k {
	case ReportFaculty:
		if staffID == "" {
			staffID = "unknown"
		}
		return fmt.Sprintf("faculty_feedback_report_%s.xlsx", staffID)
	case ReportDepartment:
		return fmt.Sprintf("department_report_%s_%s_%s.xlsx", f.Degree, f.Department, f.Batch)
	case ReportDepartmentAllBatches:
		return fmt.Sprintf("department_report_%s_%s_all_batches.xlsx", f.Degree, f.Department)
	default:
		return fmt.Sprintf("bulk_feedback_report_%s_%s.xlsx", f.Department, f.Course)
	}
}

// ReportFile is a generated spreadsheet ready to be streamed to the user
type ReportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// FacultyAnalysis pairs a faculty record with its loaded analysis
type FacultyAnalysis struct {
	AnalysisData *AnalysisResult `json:"analysisData"`
	FacultyData  Faculty         `json:"facultyData"`
}

// BulkFailure records a faculty member whose analysis could not be collected
type BulkFailure struct {
	StaffID string `json:"staff_id"`
	Reason  string `json:"reason"`
}

// BulkCollection is the outcome of gathering analyses for many faculty members
type BulkCollection struct {
	Succeeded []FacultyAnalysis `json:"succeeded"`
	Failed    []BulkFailure     `json:"failed"`
}
