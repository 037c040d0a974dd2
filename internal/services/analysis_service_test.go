package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iqac-kare/feedback-dashboard/internal/backend"
	"github.com/iqac-kare/feedback-dashboard/internal/cache"
	"github.com/iqac-kare/feedback-dashboard/internal/handoff"
	"github.com/iqac-kare/feedback-dashboard/internal/models"
	"github.com/iqac-kare/feedback-dashboard/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleAnalysis(staffID string) *models.AnalysisResult {
	return &models.AnalysisResult{
		StaffID:        staffID,
		CourseCode:     "CS101",
		CourseName:     "Programming",
		TotalResponses: 10,
		Analysis: map[string]models.Section{
			"teaching": {
				SectionName: "TEACHING EFFECTIVENESS",
				Questions: map[string]models.QuestionResult{
					"qn1": {
						Question:       "Explains clearly",
						TotalResponses: 10,
						Options: []models.OptionCount{
							{Text: "Poor", Value: 1, Count: 0},
							{Text: "Average", Value: 2, Count: 0},
							{Text: "Good", Value: 3, Count: 10},
						},
					},
				},
			},
		},
	}
}

func newTestAnalysisService(api *MockBackendAPI) (AnalysisService, handoff.Store) {
	store := handoff.NewStore(cache.NewMemoryCache(), time.Hour)
	return NewAnalysisService(api, store, testLogger(), validator.New()), store
}

func TestAnalysisService_Load(t *testing.T) {
	filter := models.Filter{Degree: "B.E", Department: "CSE", Batch: "2022", Course: "CS101"}
	req := models.AnalysisRequest{Filter: filter, StaffID: "S1"}

	t.Run("attaches comments", func(t *testing.T) {
		api := new(MockBackendAPI)
		api.On("Feedback", mock.Anything, req).Return(sampleAnalysis("S1"), nil)
		api.On("Comments", mock.Anything, req).Return(&models.CommentsSummary{HasComments: true, TotalComments: 4}, nil)
		service, _ := newTestAnalysisService(api)

		result, err := service.Load(context.Background(), " S1 ", filter)

		require.NoError(t, err)
		require.NotNil(t, result.Comments)
		assert.Equal(t, 4, result.Comments.TotalComments)
		api.AssertExpectations(t)
	})

	t.Run("comments failure is tolerated", func(t *testing.T) {
		api := new(MockBackendAPI)
		api.On("Feedback", mock.Anything, req).Return(sampleAnalysis(""), nil)
		api.On("Comments", mock.Anything, req).Return(nil, backend.ErrUnavailable)
		service, _ := newTestAnalysisService(api)

		result, err := service.Load(context.Background(), "S1", filter)

		require.NoError(t, err)
		assert.Nil(t, result.Comments)
		assert.Equal(t, "S1", result.StaffID)
	})

	t.Run("missing staff id", func(t *testing.T) {
		api := new(MockBackendAPI)
		service, _ := newTestAnalysisService(api)

		_, err := service.Load(context.Background(), "  ", filter)

		assert.True(t, IsValidation(err))
		api.AssertNotCalled(t, "Feedback", mock.Anything, mock.Anything)
	})

	t.Run("backend error keeps api message", func(t *testing.T) {
		api := new(MockBackendAPI)
		api.On("Feedback", mock.Anything, req).Return(nil, &backend.APIError{StatusCode: 404, Message: "No feedback found"})
		service, _ := newTestAnalysisService(api)

		_, err := service.Load(context.Background(), "S1", filter)

		var apiErr *backend.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "No feedback found", apiErr.Message)
		assert.True(t, IsUpstream(err))
	})

	t.Run("unavailable backend", func(t *testing.T) {
		api := new(MockBackendAPI)
		api.On("Feedback", mock.Anything, req).Return(nil, backend.ErrUnavailable)
		service, _ := newTestAnalysisService(api)

		_, err := service.Load(context.Background(), "S1", filter)

		assert.ErrorIs(t, err, ErrBackendUnavailable)
	})
}

func TestAnalysisService_Handoff(t *testing.T) {
	ctx := context.Background()
	filter := models.Filter{Degree: "B.E", Department: "CSE", Batch: "2022", Course: "CS101"}
	faculty := models.Faculty{StaffID: "S1", FacultyName: "Jane Doe"}
	req := models.AnalysisRequest{Filter: filter, StaffID: "S1"}

	api := new(MockBackendAPI)
	api.On("Feedback", mock.Anything, req).Return(sampleAnalysis("S1"), nil)
	api.On("Comments", mock.Anything, req).Return(nil, nil)
	service, _ := newTestAnalysisService(api)

	require.NoError(t, service.SaveFilterState(ctx, "sess", &FilterState{Filter: filter, Faculty: []models.Faculty{faculty}}))

	_, err := service.Select(ctx, "sess", filter, faculty)
	require.NoError(t, err)

	view, err := service.OpenResults(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, "S1", view.Analysis.StaffID)
	assert.Equal(t, "Jane Doe", view.Faculty.FacultyName)
	assert.Equal(t, filter, view.Filter)
	assert.Equal(t, 100, view.Scores.Overall)

	// The handoff is consumed once
	_, err = service.OpenResults(ctx, "sess")
	assert.ErrorIs(t, err, ErrHandoffMissing)

	current, err := service.CurrentResults(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, view.Scores, current.Scores)

	require.NoError(t, service.CloseResults(ctx, "sess"))
	_, err = service.CurrentResults(ctx, "sess")
	assert.ErrorIs(t, err, ErrHandoffMissing)

	state := service.RestoreFilterState(ctx, "sess")
	assert.Equal(t, filter, state.Filter)
	assert.Len(t, state.Faculty, 1)
}

func TestAnalysisService_OpenResults_FacultyReadFailureKeepsAnalysis(t *testing.T) {
	ctx := context.Background()
	filter := models.Filter{Degree: "B.E", Department: "CSE", Batch: "2022", Course: "CS101"}
	faculty := models.Faculty{StaffID: "S1", FacultyName: "Jane Doe"}
	req := models.AnalysisRequest{Filter: filter, StaffID: "S1"}

	api := new(MockBackendAPI)
	api.On("Feedback", mock.Anything, req).Return(sampleAnalysis("S1"), nil)
	api.On("Comments", mock.Anything, req).Return(nil, nil)
	service, store := newTestAnalysisService(api)

	_, err := service.Select(ctx, "sess", filter, faculty)
	require.NoError(t, err)

	// A faculty entry that does not decode
	require.NoError(t, store.Put(ctx, "sess", handoff.KeyFacultyData, "not a faculty"))
	_, err = service.OpenResults(ctx, "sess")
	require.Error(t, err)
	assert.False(t, IsNotFound(err))

	require.NoError(t, store.Put(ctx, "sess", handoff.KeyFacultyData, faculty))
	view, err := service.OpenResults(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, "S1", view.Analysis.StaffID)
	assert.Equal(t, "Jane Doe", view.Faculty.FacultyName)

	var leftover models.Faculty
	assert.ErrorIs(t, store.Peek(ctx, "sess", handoff.KeyFacultyData, &leftover), handoff.ErrNotFound)
}

func TestAnalysisService_ResetSession(t *testing.T) {
	ctx := context.Background()
	filter := models.Filter{Degree: "B.E", Department: "CSE", Batch: "2022", Course: "CS101"}
	req := models.AnalysisRequest{Filter: filter, StaffID: "S1"}

	api := new(MockBackendAPI)
	api.On("Feedback", mock.Anything, req).Return(sampleAnalysis("S1"), nil)
	api.On("Comments", mock.Anything, req).Return(nil, nil)
	service, _ := newTestAnalysisService(api)

	require.NoError(t, service.SaveFilterState(ctx, "sess", &FilterState{Filter: filter, StaffIDSearch: "S1"}))
	require.NoError(t, service.SaveFilterState(ctx, "other", &FilterState{Filter: filter}))
	_, err := service.Select(ctx, "sess", filter, models.Faculty{StaffID: "S1"})
	require.NoError(t, err)
	_, err = service.OpenResults(ctx, "sess")
	require.NoError(t, err)

	require.NoError(t, service.ResetSession(ctx, "sess"))

	_, err = service.CurrentResults(ctx, "sess")
	assert.ErrorIs(t, err, ErrHandoffMissing)
	state := service.RestoreFilterState(ctx, "sess")
	assert.Equal(t, models.Filter{}, state.Filter)
	assert.Empty(t, state.StaffIDSearch)

	assert.Equal(t, filter, service.RestoreFilterState(ctx, "other").Filter)
}

func TestAnalysisService_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	filter := models.Filter{Degree: "B.E", Department: "CSE", Batch: "2022", Course: "CS101"}
	req := models.AnalysisRequest{Filter: filter, StaffID: "S1"}

	api := new(MockBackendAPI)
	api.On("Feedback", mock.Anything, req).Return(sampleAnalysis("S1"), nil)
	api.On("Comments", mock.Anything, req).Return(nil, nil)
	service, _ := newTestAnalysisService(api)

	_, err := service.Select(ctx, "a", filter, models.Faculty{StaffID: "S1"})
	require.NoError(t, err)

	_, err = service.OpenResults(ctx, "b")
	assert.ErrorIs(t, err, ErrHandoffMissing)
	assert.True(t, IsNotFound(err))
}

func TestAnalysisService_RestoreFilterState_Empty(t *testing.T) {
	service, _ := newTestAnalysisService(new(MockBackendAPI))

	state := service.RestoreFilterState(context.Background(), "fresh")

	assert.Equal(t, models.Filter{}, state.Filter)
	assert.Equal(t, []models.Faculty{}, state.Faculty)
	assert.Empty(t, state.StaffIDSearch)
}
