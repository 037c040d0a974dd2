package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"github.com/iqac-kare/feedback-dashboard/internal/backend"
	"github.com/iqac-kare/feedback-dashboard/internal/events"
	"github.com/iqac-kare/feedback-dashboard/internal/models"
	"github.com/iqac-kare/feedback-dashboard/internal/scoring"
	"github.com/iqac-kare/feedback-dashboard/internal/validator"
	"github.com/xuri/excelize/v2"
)

// MaxUploadBytes bounds the size of an uploaded feedback file
const MaxUploadBytes = 32 << 20

// UploadService forwards feedback spreadsheets to the backend
type UploadService interface {
	Upload(ctx context.Context, filename string, file io.Reader) (*UploadResult, error)
}

// ExportService writes computed scores to a local spreadsheet
type ExportService interface {
	ExportScores(ctx context.Context, result *models.AnalysisResult, faculty models.Faculty) (*models.ReportFile, error)
}

type UploadResult struct {
	FileName string `json:"file_name"`
	Count    int    `json:"count"`
	Message  string `json:"message"`

	// PreflightRows is the locally counted data rows; 0 when the format is not inspected (xls)
	PreflightRows int `json:"preflight_rows"`
}

type importExportService struct {
	api       backend.UploadAPI
	activity  ActivityService
	logger    *slog.Logger
	validator *validator.Validator
}

func newImportExportService(api backend.UploadAPI, activity ActivityService, logger *slog.Logger, validator *validator.Validator) *importExportService {
	return &importExportService{
		api:       api,
		activity:  activity,
		logger:    logger,
		validator: validator,
	}
}

func NewUploadService(api backend.UploadAPI, activity ActivityService, logger *slog.Logger, validator *validator.Validator) UploadService {
	return newImportExportService(api, activity, logger, validator)
}

func NewExportService(activity ActivityService, logger *slog.Logger) ExportService {
	return newImportExportService(nil, activity, logger, nil)
}

// ===== IMPORT OPERATIONS =====

func (s *importExportService) Upload(ctx context.Context, filename string, file io.Reader) (*UploadResult, error) {
	if verr := s.validator.Business().ValidateUploadFilename(filename); verr != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFileType, ValidationErrors{*verr})
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, ValidationErrors{*NewValidationError("file", fmt.Sprintf("must be at most %d MB", MaxUploadBytes>>20), len(data))}
	}

	rows := s.preflight(filename, data)

	s.logger.Info("Uploading feedback file", "filename", filename, "bytes", len(data), "preflight_rows", rows)

	resp, err := s.api.Upload(ctx, filename, bytes.NewReader(data))
	if err != nil {
		return nil, wrapBackendError("upload feedback file", err)
	}

	result := &UploadResult{
		FileName:      filename,
		Count:         resp.Count,
		Message:       resp.Message,
		PreflightRows: rows,
	}
	if result.Message == "" {
		result.Message = fmt.Sprintf("Successfully uploaded %d records", resp.Count)
	}
	if rows > 0 && resp.Count != rows {
		s.logger.Warn("Backend record count differs from local row count",
			"filename", filename,
			"backend_count", resp.Count,
			"preflight_rows", rows)
	}

	s.activity.Record(ctx, ActivityEntry{
		Type:        models.ActivityUploadCompleted,
		TargetType:  "upload",
		TargetID:    filename,
		Description: result.Message,
		Metadata: map[string]interface{}{
			"count":          resp.Count,
			"preflight_rows": rows,
		},
		Event: events.NewUploadCompletedEvent(filename, resp.Count, rows),
	})

	return result, nil
}

// preflight estimates the number of data rows, assuming a header row. It is
// advisory only: the backend decides whether the file is acceptable.
func (s *importExportService) preflight(filename string, data []byte) int {
	var (
		rows int
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err = countCSVRows(data)
	case ".xlsx":
		rows, err = countExcelRows(data)
	default:
		return 0
	}
	if err != nil {
		s.logger.Warn("Upload pre-flight could not read file", "filename", filename, "error", err)
		return 0
	}
	return rows
}

func countCSVRows(data []byte) (int, error) {
	csvReader := csv.NewReader(bytes.NewReader(data))
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true
	csvReader.LazyQuotes = true

	count := 0
	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("could not be read as CSV: %v", err)
		}
		if !blankRow(record) {
			count++
		}
	}
	// Exclude header
	if count > 0 {
		count--
	}
	return count, nil
}

func countExcelRows(data []byte) (int, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("could not be read as an Excel workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return 0, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return 0, fmt.Errorf("failed to read Excel rows: %v", err)
	}

	count := 0
	for _, row := range rows {
		if !blankRow(row) {
			count++
		}
	}
	if count > 0 {
		count--
	}
	return count, nil
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ===== EXPORT OPERATIONS =====

const (
	scoresSheet        = "Scores"
	maxSheetNameLength = 31
)

func (s *importExportService) ExportScores(ctx context.Context, result *models.AnalysisResult, faculty models.Faculty) (*models.ReportFile, error) {
	if result == nil {
		return nil, ErrHandoffMissing
	}

	scores := scoring.Compute(result)
	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet rather than leaving an empty Sheet1
	if err := f.SetSheetName(f.GetSheetName(0), scoresSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	staffID := result.StaffID
	if staffID == "" {
		staffID = faculty.ID()
	}

	overview := [][]interface{}{
		{"Faculty", faculty.FacultyName},
		{"Staff ID", staffID},
		{"Course", strings.TrimSpace(result.CourseCode + " " + result.CourseName)},
		{"Total Responses", result.TotalResponses},
		{"Overall Score", scores.Overall},
		{},
		{"Section", "Score", "Questions", "Band"},
	}
	for _, sec := range scores.Sections {
		overview = append(overview, []interface{}{sec.Name, sec.Score, sec.QuestionCount, scoring.Band(sec.Score)})
	}
	if err := writeRows(f, scoresSheet, overview); err != nil {
		return nil, err
	}

	used := map[string]bool{strings.ToLower(scoresSheet): true}
	for _, detail := range scoring.Breakdown(result) {
		name := uniqueSheetName(detail.Name, used)
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %q: %w", name, err)
		}

		rows := [][]interface{}{
			{detail.Name, detail.Score},
			{},
			{"Question", "Score", "Option", "Count", "Percentage", "Interpretation"},
		}
		for _, q := range detail.Questions {
			for i, opt := range q.Options {
				row := []interface{}{"", "", opt.Text, opt.Count, roundTo(opt.Percentage, 2), opt.Interpretation}
				if i == 0 {
					row[0] = q.Question
					row[1] = roundTo(q.Score, 2)
				}
				rows = append(rows, row)
			}
		}
		if err := writeRows(f, name, rows); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	file := &models.ReportFile{
		Name:        fmt.Sprintf("feedback_scores_%s.xlsx", fileNamePart(staffID)),
		ContentType: models.SpreadsheetContentType,
		Data:        buf.Bytes(),
	}

	s.activity.Record(ctx, ActivityEntry{
		Type:        models.ActivityScoresExported,
		TargetType:  "report",
		TargetID:    staffID,
		Description: fmt.Sprintf("Scores exported for %s", staffID),
		Metadata: map[string]interface{}{
			"course_code": result.CourseCode,
			"overall":     scores.Overall,
		},
		Event: events.NewScoresExportedEvent(staffID, result.CourseCode, scores.Overall, file.Name),
	})

	return file, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

// uniqueSheetName makes name a valid, unused worksheet name. Worksheet names
// are case-insensitive, so used is keyed by the lowercased name.
func uniqueSheetName(name string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if clean == "" {
		clean = "Section"
	}
	base := truncateRunes(clean, maxSheetNameLength)

	candidate := base
	for i := 2; used[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		candidate = truncateRunes(base, maxSheetNameLength-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func fileNamePart(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '_'
		}
		return r
	}, s)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
