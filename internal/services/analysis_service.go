package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iqac-kare/feedback-dashboard/internal/backend"
	"github.com/iqac-kare/feedback-dashboard/internal/handoff"
	"github.com/iqac-kare/feedback-dashboard/internal/models"
	"github.com/iqac-kare/feedback-dashboard/internal/scoring"
	"github.com/iqac-kare/feedback-dashboard/internal/validator"
)

// AnalysisService loads per-faculty feedback analysis and moves it between
// the filter screen and the results screen through the handoff store.
type AnalysisService interface {
	Load(ctx context.Context, staffID string, filter models.Filter) (*models.AnalysisResult, error)

	// Filter screen state
	SaveFilterState(ctx context.Context, sessionID string, state *FilterState) error
	RestoreFilterState(ctx context.Context, sessionID string) *FilterState

	// Screen handoff
	Select(ctx context.Context, sessionID string, filter models.Filter, faculty models.Faculty) (*models.AnalysisResult, error)
	OpenResults(ctx context.Context, sessionID string) (*ResultsView, error)
	CurrentResults(ctx context.Context, sessionID string) (*ResultsView, error)
	CloseResults(ctx context.Context, sessionID string) error

	// ResetSession forgets every screen's state for the session
	ResetSession(ctx context.Context, sessionID string) error
}

// FilterState is what the filter screen restores when the user comes back to it
type FilterState struct {
	Filter        models.Filter    `json:"filter"`
	Faculty       []models.Faculty `json:"faculty"`
	StaffIDSearch string           `json:"staff_id_search"`
}

// ResultsView is the results screen model
type ResultsView struct {
	Analysis *models.AnalysisResult `json:"analysis"`
	Faculty  models.Faculty         `json:"faculty"`
	Filter   models.Filter          `json:"filter"`
	Scores   scoring.Scores         `json:"scores"`
}

type analysisService struct {
	api       backend.AnalysisAPI
	store     handoff.Store
	logger    *slog.Logger
	validator *validator.Validator
}

func NewAnalysisService(api backend.AnalysisAPI, store handoff.Store, logger *slog.Logger, validator *validator.Validator) AnalysisService {
	return &analysisService{
		api:       api,
		store:     store,
		logger:    logger,
		validator: validator,
	}
}

// ===== LOADING =====

func (s *analysisService) Load(ctx context.Context, staffID string, filter models.Filter) (*models.AnalysisResult, error) {
	req := models.AnalysisRequest{Filter: filter, StaffID: strings.TrimSpace(staffID)}
	if err := s.validator.Validate(&req); err != nil {
		return nil, err
	}

	s.logger.Info("Loading feedback analysis", "staff_id", req.StaffID, "course", filter.Course)

	result, err := s.api.Feedback(ctx, req)
	if err != nil {
		return nil, wrapBackendError("load feedback analysis", err)
	}
	if result.StaffID == "" {
		result.StaffID = req.StaffID
	}

	comments, err := s.api.Comments(ctx, req)
	if err != nil {
		s.logger.Warn("Comments unavailable", "staff_id", req.StaffID, "error", err)
	} else if comments != nil {
		result.Comments = comments
	}

	return result, nil
}

// ===== FILTER SCREEN STATE =====

func (s *analysisService) SaveFilterState(ctx context.Context, sessionID string, state *FilterState) error {
	if err := s.store.Put(ctx, sessionID, handoff.KeyFilters, state.Filter); err != nil {
		return fmt.Errorf("failed to save filters: %w", err)
	}
	if err := s.store.Put(ctx, sessionID, handoff.KeyFacultyList, nonNil(state.Faculty)); err != nil {
		return fmt.Errorf("failed to save faculty list: %w", err)
	}
	if err := s.store.Put(ctx, sessionID, handoff.KeyStaffIDSearch, state.StaffIDSearch); err != nil {
		return fmt.Errorf("failed to save staff id search: %w", err)
	}
	return nil
}

// RestoreFilterState returns the saved filter screen state, or an empty state
func (s *analysisService) RestoreFilterState(ctx context.Context, sessionID string) *FilterState {
	state := &FilterState{Faculty: []models.Faculty{}}

	for key, dest := range map[handoff.Key]interface{}{
		handoff.KeyFilters:       &state.Filter,
		handoff.KeyFacultyList:   &state.Faculty,
		handoff.KeyStaffIDSearch: &state.StaffIDSearch,
	} {
		if err := s.store.Peek(ctx, sessionID, key, dest); err != nil && !errors.Is(err, handoff.ErrNotFound) {
			s.logger.Warn("Failed to restore filter state", "key", key, "error", err)
		}
	}
	return state
}

// ===== SCREEN HANDOFF =====

// Select loads the analysis for faculty and hands it to the results screen
func (s *analysisService) Select(ctx context.Context, sessionID string, filter models.Filter, faculty models.Faculty) (*models.AnalysisResult, error) {
	result, err := s.Load(ctx, faculty.ID(), filter)
	if err != nil {
		return nil, err
	}

	if err := s.store.Put(ctx, sessionID, handoff.KeyAnalysisResults, result); err != nil {
		return nil, fmt.Errorf("failed to hand off analysis: %w", err)
	}
	if err := s.store.Put(ctx, sessionID, handoff.KeyFacultyData, faculty); err != nil {
		return nil, fmt.Errorf("failed to hand off faculty: %w", err)
	}
	return result, nil
}

// OpenResults consumes the handoff written by Select. The view it builds is
// kept for the report and export actions of the results screen. Faculty data
// is read before the analysis is consumed so a failed read leaves the handoff
// intact.
func (s *analysisService) OpenResults(ctx context.Context, sessionID string) (*ResultsView, error) {
	var faculty models.Faculty
	if err := s.store.Peek(ctx, sessionID, handoff.KeyFacultyData, &faculty); err != nil && !errors.Is(err, handoff.ErrNotFound) {
		return nil, fmt.Errorf("failed to read faculty handoff: %w", err)
	}

	var result models.AnalysisResult
	if err := s.store.Take(ctx, sessionID, handoff.KeyAnalysisResults, &result); err != nil {
		if errors.Is(err, handoff.ErrNotFound) {
			return nil, ErrHandoffMissing
		}
		return nil, fmt.Errorf("failed to read analysis handoff: %w", err)
	}

	view := &ResultsView{Analysis: &result, Faculty: faculty, Scores: scoring.Compute(&result)}
	if err := s.store.Peek(ctx, sessionID, handoff.KeyFilters, &view.Filter); err != nil && !errors.Is(err, handoff.ErrNotFound) {
		s.logger.Warn("Failed to read filters for results", "error", err)
	}

	if err := s.store.Put(ctx, sessionID, handoff.KeyResultsView, view); err != nil {
		return nil, fmt.Errorf("failed to keep results view: %w", err)
	}
	if err := s.store.Clear(ctx, sessionID, handoff.KeyFacultyData); err != nil {
		s.logger.Warn("Failed to clear faculty handoff", "error", err)
	}
	return view, nil
}

func (s *analysisService) CurrentResults(ctx context.Context, sessionID string) (*ResultsView, error) {
	var view ResultsView
	if err := s.store.Peek(ctx, sessionID, handoff.KeyResultsView, &view); err != nil {
		if errors.Is(err, handoff.ErrNotFound) {
			return nil, ErrHandoffMissing
		}
		return nil, fmt.Errorf("failed to read results view: %w", err)
	}
	return &view, nil
}

// CloseResults drops the results screen state; filter screen state is kept
func (s *analysisService) CloseResults(ctx context.Context, sessionID string) error {
	return s.store.Clear(ctx, sessionID,
		handoff.KeyResultsView,
		handoff.KeyAnalysisResults,
		handoff.KeyFacultyData,
	)
}

func (s *analysisService) ResetSession(ctx context.Context, sessionID string) error {
	if err := s.store.ClearSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to reset session: %w", err)
	}
	return nil
}
