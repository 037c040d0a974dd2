package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/iqac-kare/feedback-dashboard/internal/models"
	"github.com/iqac-kare/feedback-dashboard/internal/services"
	"github.com/iqac-kare/feedback-dashboard/internal/utils"
)

// Bulk report responses report faculty members whose analysis could not be collected
const (
	headerBulkSucceeded = "X-Bulk-Succeeded"
	headerBulkFailed    = "X-Bulk-Failed"
)

type ReportHandler struct {
	BaseHandler
	reportService services.ReportService
}

func NewReportHandler(reportService services.ReportService, logger utils.Logger) *ReportHandler {
	return &ReportHandler{
		BaseHandler:   NewBaseHandler(logger),
		reportService: reportService,
	}
}

// GenerateReport generates and streams a spreadsheet report
// @Summary Generate report
// @Description Kinds: faculty, department, department_all_batches, bulk, bulk_server
// @Tags reports
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param request body services.ReportRequest true "Report request"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /reports [post]
func (h *ReportHandler) GenerateReport(c *gin.Context) {
	var req services.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	h.LogRequest(c, "Generating report", "kind", req.Kind)

	result, err := h.reportService.Generate(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrBulkCollectionFail) && result != nil && result.Collection != nil {
			h.RespondWithError(c, http.StatusBadGateway, "No faculty analysis could be loaded", err, result.Collection.Failed)
			return
		}
		h.handleServiceError(c, err)
		return
	}

	if result.Collection != nil {
		setBulkFailureHeaders(c, result.Collection)
	}
	sendFile(c, result.File)
}

// CollectAnalyses gathers the analyses a bulk report would contain without
// generating the report
// @Summary Collect bulk analyses
// @Tags reports
// @Accept json
// @Produce json
// @Param request body services.ReportRequest true "Filters and optional faculty list"
// @Success 200 {object} SuccessResponse{data=models.BulkCollection}
// @Router /reports/bulk/collect [post]
func (h *ReportHandler) CollectAnalyses(c *gin.Context) {
	var req services.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	if len(req.FacultyList) == 0 {
		h.RespondWithError(c, http.StatusBadRequest, "Faculty list is required", nil)
		return
	}

	collection, err := h.reportService.CollectAnalyses(c.Request.Context(), req.Filter, req.FacultyList)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK,
		fmt.Sprintf("Collected %d of %d analyses", len(collection.Succeeded), len(req.FacultyList)),
		collection)
}

func setBulkFailureHeaders(c *gin.Context, collection *models.BulkCollection) {
	c.Header(headerBulkSucceeded, strconv.Itoa(len(collection.Succeeded)))
	c.Header(headerBulkFailed, strconv.Itoa(len(collection.Failed)))
}

// reportErrorMessage adds the per-faculty reasons of a failed bulk collection
func reportErrorMessage(err error, result *services.ReportResult) string {
	message := errorMessage(err)
	if result == nil || result.Collection == nil || len(result.Collection.Failed) == 0 {
		return message
	}
	first := result.Collection.Failed[0]
	return fmt.Sprintf("%s (%d failed, e.g. %s: %s)", message, len(result.Collection.Failed), first.StaffID, first.Reason)
}
