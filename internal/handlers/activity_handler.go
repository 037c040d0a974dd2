package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iqac-kare/feedback-dashboard/internal/models"
	"github.com/iqac-kare/feedback-dashboard/internal/repositories"
	"github.com/iqac-kare/feedback-dashboard/internal/services"
	"github.com/iqac-kare/feedback-dashboard/internal/utils"
)

const homeActivityLimit = 5

type ActivityHandler struct {
	BaseHandler
	activityService services.ActivityService
}

func NewActivityHandler(activityService services.ActivityService, logger utils.Logger) *ActivityHandler {
	return &ActivityHandler{
		BaseHandler:     NewBaseHandler(logger),
		activityService: activityService,
	}
}

// Home renders the landing page with the latest activity
func (h *ActivityHandler) Home(c *gin.Context) {
	data := gin.H{
		"Title": "Home",
		"Nav":   "home",
	}

	recent, err := h.activityService.Recent(c.Request.Context(), repositories.ActivityFilters{Limit: homeActivityLimit})
	if err != nil {
		h.LogWarn(c, "Recent activity unavailable", "error", err)
	} else {
		data["Activity"] = recent.Entries
	}

	c.HTML(http.StatusOK, "home.html", data)
}

// ListActivity lists recorded dashboard actions
// @Summary List activity
// @Tags activity
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Param type query string false "Activity type"
// @Param target_type query string false "Target type (upload, report, question)"
// @Param from query string false "RFC3339 lower bound"
// @Param to query string false "RFC3339 upper bound"
// @Success 200 {object} SuccessResponse{data=services.ActivityListResponse}
// @Router /activity [get]
func (h *ActivityHandler) ListActivity(c *gin.Context) {
	filters, ok := h.parseActivityFilters(c)
	if !ok {
		return
	}

	recent, err := h.activityService.Recent(c.Request.Context(), filters)
	if err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to list activity", err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Activity retrieved", recent)
}

// GetActivityStats returns activity counts per type
// @Summary Activity statistics
// @Tags activity
// @Produce json
// @Success 200 {object} SuccessResponse{data=repositories.ActivityStats}
// @Router /activity/stats [get]
func (h *ActivityHandler) GetActivityStats(c *gin.Context) {
	stats, err := h.activityService.Stats(c.Request.Context())
	if err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to load activity stats", err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Activity stats retrieved", stats)
}

func (h *ActivityHandler) parseActivityFilters(c *gin.Context) (repositories.ActivityFilters, bool) {
	filters := repositories.ActivityFilters{
		Limit:      parseIntQuery(c, "limit", 20),
		Offset:     parseIntQuery(c, "offset", 0),
		TargetType: c.Query("target_type"),
		SortOrder:  c.DefaultQuery("sort_order", "desc"),
	}

	if eventType := c.Query("type"); eventType != "" {
		t := models.ActivityType(eventType)
		filters.EventType = &t
	}

	for param, dest := range map[string]**time.Time{"from": &filters.DateFrom, "to": &filters.DateTo} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid " + param,
				Details: "expected an RFC3339 timestamp",
			})
			return filters, false
		}
		*dest = &ts
	}
	return filters, true
}
