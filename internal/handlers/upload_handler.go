package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iqac-kare/feedback-dashboard/internal/services"
	"github.com/iqac-kare/feedback-dashboard/internal/utils"
)

type UploadHandler struct {
	BaseHandler
	uploadService services.UploadService
}

func NewUploadHandler(uploadService services.UploadService, logger utils.Logger) *UploadHandler {
	return &UploadHandler{
		BaseHandler:   NewBaseHandler(logger),
		uploadService: uploadService,
	}
}

// Upload forwards a feedback spreadsheet to the analysis backend
// @Summary Upload feedback file
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Feedback spreadsheet (.csv, .xlsx, .xls)"
// @Success 200 {object} SuccessResponse{data=services.UploadResult}
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	result, err := h.upload(c)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, result.Message, result)
}

// UploadPage renders the upload screen
func (h *UploadHandler) UploadPage(c *gin.Context) {
	c.HTML(http.StatusOK, "upload.html", gin.H{
		"Title": "Upload",
		"Nav":   "upload",
	})
}

// SubmitUpload handles the upload screen form
func (h *UploadHandler) SubmitUpload(c *gin.Context) {
	data := gin.H{
		"Title": "Upload",
		"Nav":   "upload",
	}

	result, err := h.upload(c)
	if err != nil {
		status, _ := errorStatus(err)
		h.LogWarn(c, "Upload failed", "error", err)
		data["Error"] = errorMessage(err)
		c.HTML(status, "upload.html", data)
		return
	}

	data["Flash"] = result.Message
	data["Result"] = result
	c.HTML(http.StatusOK, "upload.html", data)
}

func (h *UploadHandler) upload(c *gin.Context) (*services.UploadResult, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxUploadBytes+1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, services.ValidationErrors{*services.NewValidationError("file", "file is too large", tooLarge.Limit)}
		}
		return nil, fmt.Errorf("%w: no file selected", services.ErrInvalidFileType)
	}
	h.LogRequest(c, "Uploading feedback file", "filename", header.Filename, "size", header.Size)

	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return h.uploadService.Upload(c.Request.Context(), header.Filename, file)
}
