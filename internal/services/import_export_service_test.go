package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/iqac-kare/feedback-dashboard/internal/backend"
	"github.com/iqac-kare/feedback-dashboard/internal/models"
	"github.com/iqac-kare/feedback-dashboard/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestUploadService_Upload(t *testing.T) {
	csvData := []byte("staff_id,qn1,qn2\nS1,3,2\n\nS2,1,3\n")
	xlsxData := workbook(t, [][]interface{}{
		{"staff_id", "qn1"},
		{"S1", 3},
		{"S2", 2},
		{"S3", 1},
	})

	tests := []struct {
		name          string
		filename      string
		data          []byte
		setup         func(*MockBackendAPI)
		expectedError error
		checkError    func(*testing.T, error)
		expectedRows  int
		expectedMsg   string
	}{
		{
			name:     "csv forwarded with backend message",
			filename: "feedback.csv",
			data:     csvData,
			setup: func(api *MockBackendAPI) {
				api.On("Upload", mock.Anything, "feedback.csv", csvData).
					Return(&backend.UploadResponse{Success: true, Count: 2, Message: "Imported 2 rows"}, nil)
			},
			expectedRows: 2,
			expectedMsg:  "Imported 2 rows",
		},
		{
			name:     "xlsx counted locally, default message",
			filename: "Feedback.XLSX",
			data:     xlsxData,
			setup: func(api *MockBackendAPI) {
				api.On("Upload", mock.Anything, "Feedback.XLSX", xlsxData).
					Return(&backend.UploadResponse{Success: true, Count: 3}, nil)
			},
			expectedRows: 3,
			expectedMsg:  "Successfully uploaded 3 records",
		},
		{
			name:     "xls skips preflight",
			filename: "legacy.xls",
			data:     []byte("binary"),
			setup: func(api *MockBackendAPI) {
				api.On("Upload", mock.Anything, "legacy.xls", []byte("binary")).
					Return(&backend.UploadResponse{Success: true, Count: 5}, nil)
			},
			expectedRows: 0,
			expectedMsg:  "Successfully uploaded 5 records",
		},
		{
			name:          "unsupported extension",
			filename:      "feedback.pdf",
			data:          []byte("%PDF"),
			setup:         func(api *MockBackendAPI) {},
			expectedError: ErrInvalidFileType,
		},
		{
			name:     "header only csv is left to the backend",
			filename: "empty.csv",
			data:     []byte("staff_id,qn1\n"),
			setup: func(api *MockBackendAPI) {
				api.On("Upload", mock.Anything, "empty.csv", []byte("staff_id,qn1\n")).
					Return(&backend.UploadResponse{Success: true, Count: 0, Message: "No records found"}, nil)
			},
			expectedRows: 0,
			expectedMsg:  "No records found",
		},
		{
			name:     "single headerless row still forwarded",
			filename: "one.csv",
			data:     []byte("S1,3,2\n"),
			setup: func(api *MockBackendAPI) {
				api.On("Upload", mock.Anything, "one.csv", []byte("S1,3,2\n")).
					Return(&backend.UploadResponse{Success: true, Count: 1}, nil)
			},
			expectedRows: 0,
			expectedMsg:  "Successfully uploaded 1 records",
		},
		{
			name:     "bare quote in comment",
			filename: "comments.csv",
			data:     []byte("staff_id,comment\nS1,Uses a 5\" monitor well\n"),
			setup: func(api *MockBackendAPI) {
				api.On("Upload", mock.Anything, "comments.csv", []byte("staff_id,comment\nS1,Uses a 5\" monitor well\n")).
					Return(&backend.UploadResponse{Success: true, Count: 1}, nil)
			},
			expectedRows: 1,
			expectedMsg:  "Successfully uploaded 1 records",
		},
		{
			name:     "unreadable xlsx forwarded for the backend to judge",
			filename: "broken.xlsx",
			data:     []byte("not a zip"),
			setup: func(api *MockBackendAPI) {
				api.On("Upload", mock.Anything, "broken.xlsx", []byte("not a zip")).
					Return(nil, &backend.APIError{StatusCode: 400, Message: "File is not a valid spreadsheet"})
			},
			checkError: func(t *testing.T, err error) {
				assert.True(t, IsUpstream(err))
				assert.Contains(t, err.Error(), "File is not a valid spreadsheet")
			},
		},
		{
			name:     "backend rejects upload",
			filename: "feedback.csv",
			data:     csvData,
			setup: func(api *MockBackendAPI) {
				api.On("Upload", mock.Anything, "feedback.csv", csvData).
					Return(nil, &backend.APIError{StatusCode: 400, Message: "Missing column qn3"})
			},
			checkError: func(t *testing.T, err error) {
				assert.True(t, IsUpstream(err))
				assert.Contains(t, err.Error(), "Missing column qn3")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockBackendAPI)
			tt.setup(api)
			activity := &recordingActivity{}
			service := NewUploadService(api, activity, testLogger(), validator.New())

			result, err := service.Upload(context.Background(), tt.filename, bytes.NewReader(tt.data))

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
				assert.True(t, IsValidation(err))
				assert.Nil(t, result)
				api.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
			case tt.checkError != nil:
				require.Error(t, err)
				tt.checkError(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.expectedRows, result.PreflightRows)
				assert.Equal(t, tt.expectedMsg, result.Message)
				assert.Equal(t, []models.ActivityType{models.ActivityUploadCompleted}, activity.types())
			}
			api.AssertExpectations(t)
		})
	}
}

func TestUploadService_TooLarge(t *testing.T) {
	api := new(MockBackendAPI)
	service := NewUploadService(api, &recordingActivity{}, testLogger(), validator.New())

	data := strings.Repeat("x", MaxUploadBytes+1)
	_, err := service.Upload(context.Background(), "huge.csv", strings.NewReader(data))

	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, "file", errs[0].Field)
}

func TestExportService_ExportScores(t *testing.T) {
	result := sampleAnalysis("S1")
	result.Analysis["assessment"] = models.Section{
		SectionName: "ASSESSMENT AND FEEDBACK",
		Questions: map[string]models.QuestionResult{
			"qn5": {
				Question:       "Returns graded work promptly",
				TotalResponses: 4,
				Options: []models.OptionCount{
					{Text: "Poor", Value: 1, Count: 2},
					{Text: "Good", Value: 3, Count: 2},
				},
			},
		},
	}
	activity := &recordingActivity{}
	service := NewExportService(activity, testLogger())

	file, err := service.ExportScores(context.Background(), result, models.Faculty{StaffID: "S1", FacultyName: "Jane Doe"})
	require.NoError(t, err)

	assert.Equal(t, "feedback_scores_S1.xlsx", file.Name)
	assert.Equal(t, models.SpreadsheetContentType, file.ContentType)
	assert.Equal(t, []models.ActivityType{models.ActivityScoresExported}, activity.types())

	f, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Scores", "ASSESSMENT AND FEEDBACK", "TEACHING EFFECTIVENESS"}, f.GetSheetList())

	name, err := f.GetCellValue("Scores", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", name)

	// (2*1 + 2*5) / (4*5) = 60; overall mean of 60 and 100
	overall, err := f.GetCellValue("Scores", "B5")
	require.NoError(t, err)
	assert.Equal(t, "80", overall)

	question, err := f.GetCellValue("ASSESSMENT AND FEEDBACK", "A4")
	require.NoError(t, err)
	assert.Equal(t, "Returns graded work promptly", question)

	pct, err := f.GetCellValue("ASSESSMENT AND FEEDBACK", "E5")
	require.NoError(t, err)
	assert.Equal(t, "50", pct)
}

func TestExportService_NoAnalysis(t *testing.T) {
	service := NewExportService(&recordingActivity{}, testLogger())

	_, err := service.ExportScores(context.Background(), nil, models.Faculty{})

	assert.ErrorIs(t, err, ErrHandoffMissing)
}

func TestExportService_SectionNamesDifferingOnlyInCase(t *testing.T) {
	result := sampleAnalysis("S1")
	section := result.Analysis["teaching"]
	result.Analysis["a"] = models.Section{SectionName: "scores", Questions: section.Questions}
	result.Analysis["b"] = models.Section{SectionName: "Teaching Effectiveness", Questions: section.Questions}
	service := NewExportService(&recordingActivity{}, testLogger())

	file, err := service.ExportScores(context.Background(), result, models.Faculty{StaffID: "S1", FacultyName: "Jane"})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Scores", "scores (2)", "Teaching Effectiveness", "TEACHING EFFECTIVENESS (2)"}, f.GetSheetList())

	name, err := f.GetCellValue("Scores", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Jane", name)

	heading, err := f.GetCellValue("scores (2)", "A1")
	require.NoError(t, err)
	assert.Equal(t, "scores", heading)
}

func TestUniqueSheetName(t *testing.T) {
	used := map[string]bool{"scores": true}

	assert.Equal(t, "A_B", uniqueSheetName("A/B", used))
	assert.Equal(t, "A_B (2)", uniqueSheetName("A:B", used))
	assert.Equal(t, "Scores (2)", uniqueSheetName("Scores", used))
	assert.Equal(t, "Section", uniqueSheetName("  ", used))
	assert.Equal(t, "SCORES (3)", uniqueSheetName("SCORES", used))
	assert.Equal(t, "a_b (3)", uniqueSheetName("a_b", used))

	long := uniqueSheetName(strings.Repeat("x", 40), used)
	assert.Len(t, []rune(long), maxSheetNameLength)
}
