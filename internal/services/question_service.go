package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/iqac-kare/feedback-dashboard/internal/backend"
	"github.com/iqac-kare/feedback-dashboard/internal/events"
	"github.com/iqac-kare/feedback-dashboard/internal/models"
	"github.com/iqac-kare/feedback-dashboard/internal/validator"
)

// QuestionService manages the feedback question catalog held by the backend
type QuestionService interface {
	List(ctx context.Context) ([]models.Question, error)
	GetByID(ctx context.Context, id int) (*models.Question, error)

	// Save creates the question when form.EditingID is zero and updates it otherwise
	Save(ctx context.Context, form *models.QuestionForm) (*models.Question, error)
	Delete(ctx context.Context, id int, confirmed bool) error
}

type questionService struct {
	api       backend.QuestionAPI
	activity  ActivityService
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuestionService(api backend.QuestionAPI, activity ActivityService, logger *slog.Logger, validator *validator.Validator) QuestionService {
	return &questionService{
		api:       api,
		activity:  activity,
		logger:    logger,
		validator: validator,
	}
}

func (s *questionService) List(ctx context.Context) ([]models.Question, error) {
	questions, err := s.api.ListQuestions(ctx)
	if err != nil {
		return nil, wrapBackendError("list questions", err)
	}
	return nonNil(questions), nil
}

func (s *questionService) GetByID(ctx context.Context, id int) (*models.Question, error) {
	questions, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range questions {
		if questions[i].ID == id {
			return &questions[i], nil
		}
	}
	return nil, ErrQuestionNotFound
}

func (s *questionService) Save(ctx context.Context, form *models.QuestionForm) (*models.Question, error) {
	if errs := s.validator.Question().ValidateForm(form); len(errs) > 0 {
		return nil, errs
	}

	clean := *form
	clean.Options = append([]models.Option(nil), form.Options...)
	clean.Normalize()
	clean.Relabel()

	payload := backend.QuestionPayload{
		SectionType: clean.SectionType,
		Question:    clean.Question,
		ColumnName:  clean.ColumnName,
	}

	if clean.IsEditing() {
		return s.update(ctx, &clean, payload)
	}
	return s.create(ctx, &clean, payload)
}

func (s *questionService) create(ctx context.Context, form *models.QuestionForm, payload backend.QuestionPayload) (*models.Question, error) {
	s.logger.Info("Creating question", "column_name", payload.ColumnName, "section_type", payload.SectionType)

	id, err := s.api.CreateQuestion(ctx, payload)
	if err != nil {
		return nil, wrapBackendError("create question", err)
	}

	options := form.OptionsFor(id)
	if err := s.api.CreateOptions(ctx, options); err != nil {
		return nil, wrapBackendError(fmt.Sprintf("create options for question %d", id), err)
	}

	question := questionFromPayload(id, payload, options)
	s.recordQuestionChange(ctx, models.ActivityQuestionCreated, events.EventQuestionCreated, question, "Question created")
	return question, nil
}

func (s *questionService) update(ctx context.Context, form *models.QuestionForm, payload backend.QuestionPayload) (*models.Question, error) {
	id := form.EditingID
	s.logger.Info("Updating question", "question_id", id, "column_name", payload.ColumnName)

	if err := s.api.UpdateQuestion(ctx, id, payload); err != nil {
		return nil, wrapBackendError(fmt.Sprintf("update question %d", id), err)
	}

	options := form.OptionsFor(id)
	if err := s.api.UpdateOptions(ctx, id, options); err != nil {
		return nil, wrapBackendError(fmt.Sprintf("update options for question %d", id), err)
	}

	question := questionFromPayload(id, payload, options)
	s.recordQuestionChange(ctx, models.ActivityQuestionUpdated, events.EventQuestionUpdated, question, "Question updated")
	return question, nil
}

func (s *questionService) Delete(ctx context.Context, id int, confirmed bool) error {
	if !confirmed {
		return ErrDeleteNotConfirmed
	}

	s.logger.Info("Deleting question", "question_id", id)
	if err := s.api.DeleteQuestion(ctx, id); err != nil {
		return wrapBackendError(fmt.Sprintf("delete question %d", id), err)
	}

	s.recordQuestionChange(ctx, models.ActivityQuestionDeleted, events.EventQuestionDeleted, &models.Question{ID: id}, "Question deleted")
	return nil
}

func (s *questionService) recordQuestionChange(ctx context.Context, activityType models.ActivityType, eventType events.EventType, q *models.Question, description string) {
	target := strconv.Itoa(q.ID)
	if q.ColumnName != "" {
		description = fmt.Sprintf("%s: %s", description, q.ColumnName)
	}
	s.activity.Record(ctx, ActivityEntry{
		Type:        activityType,
		TargetType:  "question",
		TargetID:    target,
		Description: description,
		Metadata: map[string]interface{}{
			"section_type": q.SectionType,
			"option_count": len(q.Options),
		},
		Event: events.NewQuestionChangedEvent(eventType, *q),
	})
}

func questionFromPayload(id int, payload backend.QuestionPayload, options []models.Option) *models.Question {
	return &models.Question{
		ID:          id,
		SectionType: payload.SectionType,
		Question:    payload.Question,
		ColumnName:  payload.ColumnName,
		Options:     options,
	}
}
