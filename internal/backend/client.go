// Package backend is the HTTP client for the feedback-analysis service that
// owns questions, feedback data and report generation.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrUnavailable wraps transport failures (refused connections, timeouts)
	ErrUnavailable = errors.New("backend unavailable")
	// ErrInvalidResponse is returned when a body does not have the expected shape
	ErrInvalidResponse = errors.New("invalid backend response")
	// ErrUnexpectedContentType is returned when a report endpoint answers with something other than a spreadsheet
	ErrUnexpectedContentType = errors.New("unexpected report content type")
)

// APIError is a non-success answer from the backend
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error %d: %s", e.StatusCode, e.Message)
}

// envelope is the {success, data, ...} wrapper most endpoints use
type envelope struct {
	Success *bool           `json:"success,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Count   int             `json:"count,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Details string          `json:"details,omitempty"`
}

// failureMessage picks the most specific message: details, then error, then message
func (e envelope) failureMessage() string {
	switch {
	case e.Details != "":
		return e.Details
	case e.Error != "":
		return e.Error
	case e.Message != "":
		return e.Message
	}
	return ""
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

var _ API = (*Client)(nil)

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q: scheme and host are required", baseURL)
	}
	return &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = u.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends the request and returns the response; callers close the body
func (c *Client) do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Backend request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"error", err)
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, req.Method, req.URL.Path, err)
	}
	c.logger.Debug("Backend request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start))
	return resp, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, query url.Values, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// doJSON performs a JSON round trip and decodes a 2xx body into dest when dest is non-nil
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, dest interface{}) error {
	req, err := c.newJSONRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", ErrUnavailable, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp.StatusCode, data)
	}

	if dest == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidResponse, path, err)
	}
	return nil
}

// getEnvelope fetches a {success, data} endpoint and decodes data into dest
func (c *Client) getEnvelope(ctx context.Context, path string, query url.Values, dest interface{}) error {
	var env envelope
	if err := c.doJSON(ctx, http.MethodGet, path, query, nil, &env); err != nil {
		return err
	}
	if env.Success != nil && !*env.Success {
		return &APIError{StatusCode: http.StatusOK, Message: env.failureMessage()}
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("%w: %s: missing data", ErrInvalidResponse, path)
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidResponse, path, err)
	}
	return nil
}

// apiError builds an APIError from a failed response body
func apiError(status int, body []byte) *APIError {
	var env envelope
	msg := ""
	if json.Unmarshal(body, &env) == nil {
		msg = env.failureMessage()
	}
	if msg == "" {
		msg = "server error occurred"
	}
	return &APIError{StatusCode: status, Message: msg}
}
