package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/iqac-kare/feedback-dashboard/internal/models"
)

func (c *Client) Degrees(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.doJSON(ctx, http.MethodGet, "/api/analysis/degrees", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Departments(ctx context.Context, degree string) ([]string, error) {
	var out []string
	q := url.Values{"degree": {degree}}
	if err := c.doJSON(ctx, http.MethodGet, "/api/analysis/departments", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Batches(ctx context.Context, degree, department string) ([]string, error) {
	var out []string
	q := url.Values{"degree": {degree}, "dept": {department}}
	if err := c.doJSON(ctx, http.MethodGet, "/api/analysis/batches", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Courses(ctx context.Context, degree, department, batch string) ([]models.Course, error) {
	var out []models.Course
	q := url.Values{"degree": {degree}, "dept": {department}, "batch": {batch}}
	if err := c.doJSON(ctx, http.MethodGet, "/api/analysis/courses", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Faculty(ctx context.Context, filter models.Filter, staffID string) ([]models.Faculty, error) {
	q := filterQuery(filter)
	if s := strings.TrimSpace(staffID); s != "" {
		q.Set("staffId", s)
	}
	var out []models.Faculty
	if err := c.doJSON(ctx, http.MethodGet, "/api/analysis/faculty", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Feedback(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	var out models.AnalysisResult
	if err := c.getEnvelope(ctx, "/api/analysis/feedback", analysisQuery(req), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Comments(ctx context.Context, req models.AnalysisRequest) (*models.CommentsSummary, error) {
	var out models.CommentsSummary
	if err := c.getEnvelope(ctx, "/api/analysis/comments", analysisQuery(req), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func filterQuery(f models.Filter) url.Values {
	return url.Values{
		"degree": {f.Degree},
		"dept":   {f.Department},
		"batch":  {f.Batch},
		"course": {f.Course},
	}
}

func analysisQuery(req models.AnalysisRequest) url.Values {
	q := filterQuery(req.Filter)
	q.Set("staffId", req.StaffID)
	return q
}
