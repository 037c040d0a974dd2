package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/iqac-kare/feedback-dashboard/internal/models"
)

// GenerateReport posts payload to a report endpoint and returns the spreadsheet.
// The returned file has no Name; callers pick the download name.
func (c *Client) GenerateReport(ctx context.Context, path string, payload interface{}) (*models.ReportFile, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", models.SpreadsheetContentType+", application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading report: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiError(resp.StatusCode, data)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "spreadsheetml") {
		return nil, fmt.Errorf("%w: %q from %s", ErrUnexpectedContentType, contentType, path)
	}

	return &models.ReportFile{ContentType: contentType, Data: data}, nil
}
