package handlers

import (
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/iqac-kare/feedback-dashboard/internal/backend"
	"github.com/iqac-kare/feedback-dashboard/internal/models"
	"github.com/iqac-kare/feedback-dashboard/internal/services"
)

const sessionCookie = "dashboard_session"

// SessionMiddleware assigns every browser a session id cookie. The id scopes
// the screen handoff store and is attached to the request context for the
// activity log.
func SessionMiddleware(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(sessionCookie)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookie, id, 0, "/", "", secure, true)
		}
		c.Set("session_id", id)

		ctx := services.WithRequestMeta(c.Request.Context(), services.RequestMeta{
			SessionID: id,
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString("session_id")
}

func parseIDParam(c *gin.Context, param string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(c.Param(param)))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

func parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// sendFile streams a generated spreadsheet as a download
func sendFile(c *gin.Context, file *models.ReportFile) {
	contentType := file.ContentType
	if contentType == "" {
		contentType = models.SpreadsheetContentType
	}
	c.Header("Content-Disposition", contentDisposition(file.Name))
	c.Data(http.StatusOK, contentType, file.Data)
}

// contentDisposition quotes or RFC 2231 encodes the file name as needed
func contentDisposition(name string) string {
	if value := mime.FormatMediaType("attachment", map[string]string{"filename": name}); value != "" {
		return value
	}
	return "attachment"
}

// errorStatus maps a service error to its HTTP status and user-facing message
func errorStatus(err error) (int, string) {
	var validationErrors services.ValidationErrors
	var apiErr *backend.APIError

	switch {
	case errors.Is(err, services.ErrInvalidFileType):
		return http.StatusBadRequest, "Please select a valid file (.csv, .xlsx, .xls)"
	case errors.Is(err, services.ErrMissingFilter):
		return http.StatusBadRequest, "Please select all required filters"
	case errors.Is(err, services.ErrInvalidReportKind):
		return http.StatusBadRequest, "Unknown report type"
	case errors.As(err, &validationErrors):
		return http.StatusBadRequest, "Validation failed"
	case errors.Is(err, services.ErrDeleteNotConfirmed):
		return http.StatusBadRequest, "Deletion must be confirmed"
	case errors.Is(err, services.ErrQuestionNotFound):
		return http.StatusNotFound, "Question not found"
	case errors.Is(err, services.ErrHandoffMissing):
		return http.StatusNotFound, "No analysis selected"
	case errors.Is(err, services.ErrNoFaculty):
		return http.StatusNotFound, "No faculty found for the selected filters"
	case errors.Is(err, services.ErrBulkCollectionFail):
		return http.StatusBadGateway, "No faculty analysis could be loaded"
	case errors.Is(err, services.ErrBackendUnavailable):
		return http.StatusServiceUnavailable, "The analysis server is unreachable"
	case errors.Is(err, services.ErrUnexpectedContentType):
		return http.StatusBadGateway, "Invalid response format - expected Excel file"
	case errors.Is(err, services.ErrInvalidBackendReply):
		return http.StatusBadGateway, "The analysis server returned an invalid response"
	case errors.As(err, &apiErr):
		// Backend client errors are the caller's fault and keep their status
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return apiErr.StatusCode, apiErr.Message
		}
		return http.StatusBadGateway, apiErr.Message
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// handleServiceError writes the JSON error response for err
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	status, message := errorStatus(err)

	var details interface{}
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		details = validationErrors
	}

	h.RespondWithError(c, status, message, err, details)
}

// errorMessage is the one-line message shown on HTML screens
func errorMessage(err error) string {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 &&
		!errors.Is(err, services.ErrInvalidFileType) && !errors.Is(err, services.ErrMissingFilter) {
		msgs := make([]string, 0, len(validationErrors))
		for _, ve := range validationErrors {
			msgs = append(msgs, ve.Field+": "+ve.Message)
		}
		return strings.Join(msgs, "; ")
	}
	_, message := errorStatus(err)
	return message
}
