package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// Upload forwards a feedback file as a single multipart request with field "file"
func (c *Client) Upload(ctx context.Context, filename string, file io.Reader) (*UploadResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/upload", nil), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading upload response: %v", ErrUnavailable, err)
	}

	var out UploadResponse
	decodeErr := json.Unmarshal(data, &out)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && out.Message != "" {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: out.Message}
		}
		return nil, apiError(resp.StatusCode, data)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: upload: %v", ErrInvalidResponse, decodeErr)
	}
	if !out.Success {
		msg := out.Message
		if msg == "" {
			msg = "Upload failed"
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return &out, nil
}
