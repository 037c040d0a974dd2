package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/iqac-kare/feedback-dashboard/internal/models"
	"github.com/iqac-kare/feedback-dashboard/internal/scoring"
	"github.com/iqac-kare/feedback-dashboard/internal/services"
	"github.com/iqac-kare/feedback-dashboard/internal/utils"
)

type AnalysisHandler struct {
	BaseHandler
	filterService   services.FilterService
	analysisService services.AnalysisService
	reportService   services.ReportService
	exportService   services.ExportService
}

func NewAnalysisHandler(
	filterService services.FilterService,
	analysisService services.AnalysisService,
	reportService services.ReportService,
	exportService services.ExportService,
	logger utils.Logger,
) *AnalysisHandler {
	return &AnalysisHandler{
		BaseHandler:     NewBaseHandler(logger),
		filterService:   filterService,
		analysisService: analysisService,
		reportService:   reportService,
		exportService:   exportService,
	}
}

// AnalysisResponse is an analysis result with its derived scores
type AnalysisResponse struct {
	Analysis  *models.AnalysisResult  `json:"analysis"`
	Scores    scoring.Scores          `json:"scores"`
	Breakdown []scoring.SectionDetail `json:"breakdown"`
}

// ScoresExportRequest is the body of the score export endpoint
type ScoresExportRequest struct {
	Analysis *models.AnalysisResult `json:"analysisData" binding:"required"`
	Faculty  models.Faculty         `json:"facultyData"`
}

// ===== JSON API =====

// GetFilterOptions returns the dropdown contents the selection enables
// @Summary Filter options
// @Tags analysis
// @Produce json
// @Param degree query string false "Degree"
// @Param dept query string false "Department"
// @Param batch query string false "Batch"
// @Success 200 {object} SuccessResponse{data=models.FilterOptions}
// @Router /filters/options [get]
func (h *AnalysisHandler) GetFilterOptions(c *gin.Context) {
	filter := queryFilter(c)
	h.RespondWithSuccess(c, http.StatusOK, "Filter options retrieved", h.filterService.Options(c.Request.Context(), filter))
}

// GetFaculty lists faculty teaching the selected course
// @Summary Faculty list
// @Tags analysis
// @Produce json
// @Param degree query string true "Degree"
// @Param dept query string true "Department"
// @Param batch query string true "Batch"
// @Param course query string true "Course code"
// @Param staffId query string false "Staff ID substring"
// @Success 200 {object} SuccessResponse{data=[]models.Faculty}
// @Router /filters/faculty [get]
func (h *AnalysisHandler) GetFaculty(c *gin.Context) {
	filter := queryFilter(c)
	faculty := h.filterService.Faculty(c.Request.Context(), filter, staffIDQuery(c))
	h.RespondWithSuccess(c, http.StatusOK, "Faculty retrieved", faculty)
}

// GetAnalysis loads the feedback analysis of one faculty member
// @Summary Feedback analysis
// @Tags analysis
// @Produce json
// @Param degree query string true "Degree"
// @Param dept query string true "Department"
// @Param batch query string true "Batch"
// @Param course query string true "Course code"
// @Param staffId query string true "Staff ID"
// @Success 200 {object} SuccessResponse{data=AnalysisResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /analysis [get]
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	filter := queryFilter(c)
	staffID := staffIDQuery(c)
	h.LogRequest(c, "Loading analysis", "staff_id", staffID, "course", filter.Course)

	result, err := h.analysisService.Load(c.Request.Context(), staffID, filter)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Analysis retrieved", newAnalysisResponse(result))
}

// ComputeScores scores an analysis result supplied by the caller
// @Summary Compute scores
// @Tags analysis
// @Accept json
// @Produce json
// @Param analysis body models.AnalysisResult true "Analysis result"
// @Success 200 {object} SuccessResponse{data=AnalysisResponse}
// @Failure 400 {object} ErrorResponse
// @Router /scores [post]
func (h *AnalysisHandler) ComputeScores(c *gin.Context) {
	var result models.AnalysisResult
	if err := c.ShouldBindJSON(&result); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Scores computed", newAnalysisResponse(&result))
}

// ExportScores writes the computed scores of an analysis result to xlsx
// @Summary Export scores
// @Tags analysis
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param request body ScoresExportRequest true "Analysis and faculty"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Router /scores/export [post]
func (h *AnalysisHandler) ExportScores(c *gin.Context) {
	var req ScoresExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	file, err := h.exportService.ExportScores(c.Request.Context(), req.Analysis, req.Faculty)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	sendFile(c, file)
}

func newAnalysisResponse(result *models.AnalysisResult) AnalysisResponse {
	return AnalysisResponse{
		Analysis:  result,
		Scores:    scoring.Compute(result),
		Breakdown: scoring.Breakdown(result),
	}
}

func queryFilter(c *gin.Context) models.Filter {
	return models.Filter{
		Degree:     strings.TrimSpace(c.Query("degree")),
		Department: strings.TrimSpace(c.Query("dept")),
		Batch:      strings.TrimSpace(c.Query("batch")),
		Course:     strings.TrimSpace(c.Query("course")),
	}
}

func staffIDQuery(c *gin.Context) string {
	if v := c.Query("staffId"); v != "" {
		return v
	}
	return c.Query("staff_id")
}

// ===== FILTER SCREEN =====

// FilterPage renders the filter screen from the session's saved state
func (h *AnalysisHandler) FilterPage(c *gin.Context) {
	state := h.analysisService.RestoreFilterState(c.Request.Context(), sessionID(c))
	h.renderFilter(c, http.StatusOK, state, "", "")
}

// ApplyFilter applies the posted cascade selection and staff ID search
func (h *AnalysisHandler) ApplyFilter(c *gin.Context) {
	ctx := c.Request.Context()
	state := h.analysisService.RestoreFilterState(ctx, sessionID(c))

	var posted models.Filter
	if err := c.ShouldBind(&posted); err != nil {
		h.renderFilter(c, http.StatusBadRequest, state, "", "Invalid filter selection")
		return
	}

	previous := state.Filter
	state.Filter.Apply(posted)
	if state.Filter != previous {
		state.StaffIDSearch = ""
	} else {
		state.StaffIDSearch = strings.TrimSpace(c.PostForm("staff_id"))
	}
	state.Faculty = h.filterService.Faculty(ctx, state.Filter, state.StaffIDSearch)

	if err := h.analysisService.SaveFilterState(ctx, sessionID(c), state); err != nil {
		h.LogError(c, err, "Failed to save filter state")
	}
	c.Redirect(http.StatusSeeOther, "/analysis")
}

// SelectFaculty loads the chosen faculty member's analysis and opens the results screen
func (h *AnalysisHandler) SelectFaculty(c *gin.Context) {
	ctx := c.Request.Context()
	state := h.analysisService.RestoreFilterState(ctx, sessionID(c))

	staffID := strings.TrimSpace(c.PostForm("staff_id"))
	faculty := models.Faculty{StaffID: staffID}
	for _, f := range state.Faculty {
		if f.ID() == staffID {
			faculty = f
			break
		}
	}

	h.LogRequest(c, "Selecting faculty", "staff_id", staffID)
	if _, err := h.analysisService.Select(ctx, sessionID(c), state.Filter, faculty); err != nil {
		status, _ := errorStatus(err)
		h.LogWarn(c, "Analysis load failed", "staff_id", staffID, "error", err)
		h.renderFilter(c, status, state, "", errorMessage(err))
		return
	}
	c.Redirect(http.StatusSeeOther, "/analysis/results")
}

// FilterReport downloads a department or bulk report for the saved filter
func (h *AnalysisHandler) FilterReport(c *gin.Context) {
	ctx := c.Request.Context()
	state := h.analysisService.RestoreFilterState(ctx, sessionID(c))

	kind := models.ReportKind(c.PostForm("kind"))
	if kind == models.ReportFaculty {
		h.renderFilter(c, http.StatusBadRequest, state, "", "Select a faculty member to download their report")
		return
	}

	h.LogRequest(c, "Generating report", "kind", kind)
	result, err := h.reportService.Generate(ctx, &services.ReportRequest{
		Kind:        kind,
		Filter:      state.Filter,
		FacultyList: state.Faculty,
	})
	if err != nil {
		status, _ := errorStatus(err)
		h.renderFilter(c, status, state, "", reportErrorMessage(err, result))
		return
	}

	if result.Collection != nil && len(result.Collection.Failed) > 0 {
		setBulkFailureHeaders(c, result.Collection)
	}
	sendFile(c, result.File)
}

func (h *AnalysisHandler) renderFilter(c *gin.Context, status int, state *services.FilterState, flash, errMsg string) {
	filter := state.Filter
	c.HTML(status, "analysis.html", gin.H{
		"Title":          "Analysis",
		"Nav":            "analysis",
		"State":          state,
		"Options":        h.filterService.Options(c.Request.Context(), filter),
		"DeptEnabled":    filter.Enabled(models.LevelDepartment),
		"BatchEnabled":   filter.Enabled(models.LevelBatch),
		"CourseEnabled":  filter.Enabled(models.LevelCourse),
		"FacultyEnabled": filter.Enabled(models.LevelFaculty),
		"Flash":          flash,
		"Error":          errMsg,
	})
}

// ===== RESULTS SCREEN =====

// ResultsPage consumes the handoff written by SelectFaculty. A reload shows
// the kept view; with neither the user is sent back to the filter screen.
func (h *AnalysisHandler) ResultsPage(c *gin.Context) {
	ctx := c.Request.Context()

	view, err := h.analysisService.OpenResults(ctx, sessionID(c))
	if errors.Is(err, services.ErrHandoffMissing) {
		view, err = h.analysisService.CurrentResults(ctx, sessionID(c))
	}
	if err != nil {
		if !errors.Is(err, services.ErrHandoffMissing) {
			h.LogError(c, err, "Failed to open results")
		}
		c.Redirect(http.StatusSeeOther, "/analysis")
		return
	}

	h.renderResults(c, http.StatusOK, view, "")
}

// BackToFilters drops the results view and returns to the filter screen
func (h *AnalysisHandler) BackToFilters(c *gin.Context) {
	if err := h.analysisService.CloseResults(c.Request.Context(), sessionID(c)); err != nil {
		h.LogError(c, err, "Failed to clear results")
	}
	c.Redirect(http.StatusSeeOther, "/analysis")
}

// ResetFilters forgets the session's selection and results
func (h *AnalysisHandler) ResetFilters(c *gin.Context) {
	if err := h.analysisService.ResetSession(c.Request.Context(), sessionID(c)); err != nil {
		h.LogError(c, err, "Failed to reset session")
	}
	c.Redirect(http.StatusSeeOther, "/analysis")
}

// ResultsReport downloads the faculty report for the displayed analysis
func (h *AnalysisHandler) ResultsReport(c *gin.Context) {
	view, ok := h.currentView(c)
	if !ok {
		return
	}

	file, err := h.reportService.FacultyReport(c.Request.Context(), view.Analysis, view.Faculty)
	if err != nil {
		status, _ := errorStatus(err)
		h.LogWarn(c, "Faculty report failed", "error", err)
		h.renderResults(c, status, view, errorMessage(err))
		return
	}
	sendFile(c, file)
}

// ResultsExport writes the displayed scores to a local spreadsheet
func (h *AnalysisHandler) ResultsExport(c *gin.Context) {
	view, ok := h.currentView(c)
	if !ok {
		return
	}

	file, err := h.exportService.ExportScores(c.Request.Context(), view.Analysis, view.Faculty)
	if err != nil {
		h.LogError(c, err, "Score export failed")
		h.renderResults(c, http.StatusInternalServerError, view, errorMessage(err))
		return
	}
	sendFile(c, file)
}

func (h *AnalysisHandler) currentView(c *gin.Context) (*services.ResultsView, bool) {
	view, err := h.analysisService.CurrentResults(c.Request.Context(), sessionID(c))
	if err != nil {
		c.Redirect(http.StatusSeeOther, "/analysis")
		return nil, false
	}
	return view, true
}

func (h *AnalysisHandler) renderResults(c *gin.Context, status int, view *services.ResultsView, errMsg string) {
	tab := c.DefaultQuery("tab", "overview")
	if tab != "details" {
		tab = "overview"
	}
	c.HTML(status, "results.html", gin.H{
		"Title":     "Results",
		"Nav":       "analysis",
		"View":      view,
		"Breakdown": scoring.Breakdown(view.Analysis),
		"Tab":       tab,
		"Error":     errMsg,
	})
}
