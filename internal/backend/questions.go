package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/iqac-kare/feedback-dashboard/internal/models"
)

func (c *Client) ListQuestions(ctx context.Context) ([]models.Question, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/api/questions/with-options", nil, nil, &raw); err != nil {
		return nil, err
	}
	var out []models.Question
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: question list is not an array: %v", ErrInvalidResponse, err)
	}
	return out, nil
}

// CreateQuestion stores the question and returns the id the backend assigned
func (c *Client) CreateQuestion(ctx context.Context, q QuestionPayload) (int, error) {
	env, err := c.mutate(ctx, http.MethodPost, "/api/questions", q)
	if err != nil {
		return 0, err
	}

	var created []struct {
		ID int `json:"id"`
	}
	if len(env.Data) == 0 || json.Unmarshal(env.Data, &created) != nil || len(created) == 0 || created[0].ID == 0 {
		return 0, fmt.Errorf("%w: create question returned no id", ErrInvalidResponse)
	}
	return created[0].ID, nil
}

func (c *Client) UpdateQuestion(ctx context.Context, id int, q QuestionPayload) error {
	_, err := c.mutate(ctx, http.MethodPut, questionPath(id), q)
	return err
}

func (c *Client) CreateOptions(ctx context.Context, options []models.Option) error {
	_, err := c.mutate(ctx, http.MethodPost, "/api/questions/options", options)
	return err
}

func (c *Client) UpdateOptions(ctx context.Context, questionID int, options []models.Option) error {
	_, err := c.mutate(ctx, http.MethodPut, questionPath(questionID)+"/options", options)
	return err
}

func (c *Client) DeleteQuestion(ctx context.Context, id int) error {
	env, err := c.mutate(ctx, http.MethodDelete, questionPath(id), nil)
	if err != nil {
		return err
	}
	if env.Success == nil {
		return fmt.Errorf("%w: delete question did not report success", ErrInvalidResponse)
	}
	return nil
}

// mutate sends a write and fails on a success:false body
func (c *Client) mutate(ctx context.Context, method, path string, body interface{}) (*envelope, error) {
	var env envelope
	if err := c.doJSON(ctx, method, path, nil, body, &env); err != nil {
		return nil, err
	}
	if env.Success != nil && !*env.Success {
		msg := env.failureMessage()
		if msg == "" {
			msg = fmt.Sprintf("%s %s failed", method, path)
		}
		return nil, &APIError{StatusCode: http.StatusOK, Message: msg}
	}
	return &env, nil
}

func questionPath(id int) string {
	return "/api/questions/" + strconv.Itoa(id)
}
