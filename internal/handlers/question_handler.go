package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/iqac-kare/feedback-dashboard/internal/models"
	"github.com/iqac-kare/feedback-dashboard/internal/services"
	"github.com/iqac-kare/feedback-dashboard/internal/utils"
)

type QuestionHandler struct {
	BaseHandler
	questionService services.QuestionService
}

func NewQuestionHandler(questionService services.QuestionService, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:     NewBaseHandler(logger),
		questionService: questionService,
	}
}

// ===== JSON API =====

// ListQuestions lists the question catalog with options
// @Summary List questions
// @Tags questions
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]models.Question}
// @Failure 502 {object} ErrorResponse
// @Router /questions [get]
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	questions, err := h.questionService.List(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Questions retrieved", questions)
}

// GetQuestion retrieves a question by ID
// @Summary Get question
// @Tags questions
// @Produce json
// @Param id path int true "Question ID"
// @Success 200 {object} SuccessResponse{data=models.Question}
// @Failure 404 {object} ErrorResponse
// @Router /questions/{id} [get]
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	question, err := h.questionService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Question retrieved", question)
}

// CreateQuestion creates a question and its options
// @Summary Create question
// @Tags questions
// @Accept json
// @Produce json
// @Param question body models.QuestionForm true "Question data"
// @Success 201 {object} SuccessResponse{data=models.Question}
// @Failure 400 {object} ErrorResponse
// @Router /questions [post]
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	h.LogRequest(c, "Creating question")

	var form models.QuestionForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	form.EditingID = 0

	question, err := h.questionService.Save(c.Request.Context(), &form)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "Question created successfully", question)
}

// UpdateQuestion replaces a question and its options
// @Summary Update question
// @Tags questions
// @Accept json
// @Produce json
// @Param id path int true "Question ID"
// @Param question body models.QuestionForm true "Question data"
// @Success 200 {object} SuccessResponse{data=models.Question}
// @Failure 400 {object} ErrorResponse
// @Router /questions/{id} [put]
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	h.LogRequest(c, "Updating question", "question_id", id)

	var form models.QuestionForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	form.EditingID = id

	question, err := h.questionService.Save(c.Request.Context(), &form)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Question updated successfully", question)
}

// DeleteQuestion deletes a question. The request must carry confirm=true.
// @Summary Delete question
// @Tags questions
// @Param id path int true "Question ID"
// @Param confirm query bool true "Confirms the deletion"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /questions/{id} [delete]
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	h.LogRequest(c, "Deleting question", "question_id", id)

	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	if err := h.questionService.Delete(c.Request.Context(), id, confirmed); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Question deleted successfully", nil)
}

// ===== HTML SCREEN =====

// QuestionsPage renders the catalog with an empty add form
func (h *QuestionHandler) QuestionsPage(c *gin.Context) {
	h.renderQuestions(c, http.StatusOK, models.NewQuestionForm(), nil, "")
}

// EditQuestionPage pre-fills the form from an existing question
func (h *QuestionHandler) EditQuestionPage(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.Redirect(http.StatusSeeOther, "/questions")
		return
	}

	question, err := h.questionService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.renderQuestions(c, http.StatusOK, models.NewQuestionForm(), err, "")
		return
	}

	form := models.NewQuestionForm()
	form.LoadForEdit(*question)
	h.renderQuestions(c, http.StatusOK, form, nil, "")
}

// AddOption re-renders the posted form with one more option
func (h *QuestionHandler) AddOption(c *gin.Context) {
	form := bindQuestionForm(c)
	form.AddOption()
	h.renderQuestions(c, http.StatusOK, form, nil, "")
}

// RemoveOption re-renders the posted form without the option at ?index=
func (h *QuestionHandler) RemoveOption(c *gin.Context) {
	form := bindQuestionForm(c)
	form.RemoveOption(parseIntQuery(c, "index", -1))
	h.renderQuestions(c, http.StatusOK, form, nil, "")
}

// CancelEdit discards the in-progress edit
func (h *QuestionHandler) CancelEdit(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/questions")
}

// SaveQuestion creates or updates the posted question
func (h *QuestionHandler) SaveQuestion(c *gin.Context) {
	form := bindQuestionForm(c)
	editing := form.IsEditing()

	_, err := h.questionService.Save(c.Request.Context(), form)
	if err != nil {
		h.renderQuestions(c, http.StatusOK, form, err, "")
		return
	}

	message := "Question created successfully"
	if editing {
		message = "Question updated successfully"
	}
	h.renderQuestions(c, http.StatusOK, models.NewQuestionForm(), nil, message)
}

// DeleteQuestionForm deletes a question after the browser confirmation
func (h *QuestionHandler) DeleteQuestionForm(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.Redirect(http.StatusSeeOther, "/questions")
		return
	}

	confirmed, _ := strconv.ParseBool(c.PostForm("confirm"))
	err = h.questionService.Delete(c.Request.Context(), id, confirmed)
	switch {
	case errors.Is(err, services.ErrDeleteNotConfirmed):
		c.Redirect(http.StatusSeeOther, "/questions")
	case err != nil:
		h.renderQuestions(c, http.StatusOK, models.NewQuestionForm(), err, "")
	default:
		h.renderQuestions(c, http.StatusOK, models.NewQuestionForm(), nil, "Question deleted successfully")
	}
}

// renderQuestions re-fetches the catalog and renders the screen. Field-level
// validation failures are shown next to their inputs.
func (h *QuestionHandler) renderQuestions(c *gin.Context, status int, form *models.QuestionForm, formErr error, flash string) {
	data := gin.H{
		"Title":       "Questions",
		"Nav":         "questions",
		"Form":        form,
		"FieldErrors": map[string]string{},
		"Flash":       flash,
	}

	if formErr != nil {
		var validationErrors services.ValidationErrors
		if errors.As(formErr, &validationErrors) {
			fieldErrors := make(map[string]string, len(validationErrors))
			for _, ve := range validationErrors {
				fieldErrors[ve.Field] = ve.Message
			}
			data["FieldErrors"] = fieldErrors
			data["Error"] = "Please correct the highlighted fields"
		} else {
			h.LogWarn(c, "Question action failed", "error", formErr)
			data["Error"] = errorMessage(formErr)
		}
	}

	questions, err := h.questionService.List(c.Request.Context())
	if err != nil {
		h.LogWarn(c, "Question list unavailable", "error", err)
		if data["Error"] == nil {
			data["Error"] = errorMessage(err)
		}
		questions = []models.Question{}
	}
	data["Questions"] = questions

	c.HTML(status, "questions.html", data)
}

// bindQuestionForm reads the question screen's form fields. Option labels are
// re-derived from position.
func bindQuestionForm(c *gin.Context) *models.QuestionForm {
	form := &models.QuestionForm{
		SectionType: models.SectionType(c.PostForm("section_type")),
		Question:    c.PostForm("question"),
		ColumnName:  strings.TrimSpace(c.PostForm("column_name")),
	}
	form.EditingID, _ = strconv.Atoi(c.PostForm("editing_id"))

	for _, text := range c.PostFormArray("option_text") {
		form.Options = append(form.Options, models.Option{OptionText: text})
	}
	if len(form.Options) == 0 {
		form.Options = []models.Option{{}}
	}
	form.Relabel()
	return form
}
