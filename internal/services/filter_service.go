package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/iqac-kare/feedback-dashboard/internal/backend"
	"github.com/iqac-kare/feedback-dashboard/internal/models"
)

// FilterService loads the option lists of the degree → department → batch →
// course → faculty cascade. Backend failures never surface: a level whose
// list cannot be loaded is shown empty and the levels below it stay disabled.
type FilterService interface {
	Degrees(ctx context.Context) []string
	Departments(ctx context.Context, degree string) []string
	Batches(ctx context.Context, degree, department string) []string
	Courses(ctx context.Context, degree, department, batch string) []models.Course
	Faculty(ctx context.Context, filter models.Filter, staffID string) []models.Faculty

	// Options loads every list the current selection enables
	Options(ctx context.Context, filter models.Filter) models.FilterOptions
}

type filterService struct {
	api    backend.AnalysisAPI
	logger *slog.Logger
}

func NewFilterService(api backend.AnalysisAPI, logger *slog.Logger) FilterService {
	return &filterService{
		api:    api,
		logger: logger,
	}
}

func (s *filterService) Degrees(ctx context.Context) []string {
	degrees, err := s.api.Degrees(ctx)
	if err != nil {
		s.logger.Warn("Failed to load degrees", "error", err)
		return []string{}
	}
	return nonNil(degrees)
}

func (s *filterService) Departments(ctx context.Context, degree string) []string {
	if degree == "" {
		return []string{}
	}
	departments, err := s.api.Departments(ctx, degree)
	if err != nil {
		s.logger.Warn("Failed to load departments", "degree", degree, "error", err)
		return []string{}
	}
	return nonNil(departments)
}

func (s *filterService) Batches(ctx context.Context, degree, department string) []string {
	if degree == "" || department == "" {
		return []string{}
	}
	batches, err := s.api.Batches(ctx, degree, department)
	if err != nil {
		s.logger.Warn("Failed to load batches", "degree", degree, "dept", department, "error", err)
		return []string{}
	}
	return nonNil(batches)
}

func (s *filterService) Courses(ctx context.Context, degree, department, batch string) []models.Course {
	if degree == "" || department == "" || batch == "" {
		return []models.Course{}
	}
	courses, err := s.api.Courses(ctx, degree, department, batch)
	if err != nil {
		s.logger.Warn("Failed to load courses",
			"degree", degree,
			"dept", department,
			"batch", batch,
			"error", err)
		return []models.Course{}
	}
	return nonNil(courses)
}

func (s *filterService) Faculty(ctx context.Context, filter models.Filter, staffID string) []models.Faculty {
	if !filter.Complete() {
		return []models.Faculty{}
	}
	faculty, err := s.api.Faculty(ctx, filter, strings.TrimSpace(staffID))
	if err != nil {
		s.logger.Warn("Failed to load faculty",
			"course", filter.Course,
			"staff_id", staffID,
			"error", err)
		return []models.Faculty{}
	}
	return nonNil(faculty)
}

func (s *filterService) Options(ctx context.Context, filter models.Filter) models.FilterOptions {
	opts := models.FilterOptions{
		Degrees:     s.Degrees(ctx),
		Departments: []string{},
		Batches:     []string{},
		Courses:     []models.Course{},
	}
	if filter.Enabled(models.LevelDepartment) {
		opts.Departments = s.Departments(ctx, filter.Degree)
	}
	if filter.Enabled(models.LevelBatch) {
		opts.Batches = s.Batches(ctx, filter.Degree, filter.Department)
	}
	if filter.Enabled(models.LevelCourse) {
		opts.Courses = s.Courses(ctx, filter.Degree, filter.Department, filter.Batch)
	}
	return opts
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
