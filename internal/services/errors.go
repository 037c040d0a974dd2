package services

import (
	"errors"
	"fmt"

	"github.com/iqac-kare/feedback-dashboard/internal/backend"
	apperrors "github.com/iqac-kare/feedback-dashboard/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Backend errors
	ErrBackendUnavailable    = errors.New("analysis backend unavailable")
	ErrInvalidBackendReply   = errors.New("analysis backend returned an invalid response")
	ErrUnexpectedContentType = errors.New("report response is not a spreadsheet")

	// Question specific errors
	ErrQuestionNotFound   = errors.New("question not found")
	ErrDeleteNotConfirmed = errors.New("question deletion was not confirmed")

	// Upload specific errors
	ErrInvalidFileType = errors.New("invalid file type")

	// Report specific errors
	ErrMissingFilter      = errors.New("required filter fields are missing")
	ErrInvalidReportKind  = errors.New("invalid report kind")
	ErrNoFaculty          = errors.New("no faculty members match the selected filters")
	ErrBulkCollectionFail = errors.New("no faculty analysis could be collected")

	// Handoff errors
	ErrHandoffMissing = errors.New("no analysis selected")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// wrapBackendError attaches the service sentinel matching a backend failure.
// The original error stays in the chain so *backend.APIError remains reachable.
func wrapBackendError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, backend.ErrUnavailable):
		return fmt.Errorf("%s: %w: %w", op, ErrBackendUnavailable, err)
	case errors.Is(err, backend.ErrUnexpectedContentType):
		return fmt.Errorf("%s: %w: %w", op, ErrUnexpectedContentType, err)
	case errors.Is(err, backend.ErrInvalidResponse):
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidBackendReply, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrHandoffMissing)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrInvalidFileType) ||
		errors.Is(err, ErrMissingFilter) ||
		errors.Is(err, ErrInvalidReportKind) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsUpstream checks if error came from the analysis backend
func IsUpstream(err error) bool {
	var apiErr *backend.APIError
	return errors.Is(err, ErrBackendUnavailable) ||
		errors.Is(err, ErrInvalidBackendReply) ||
		errors.Is(err, ErrUnexpectedContentType) ||
		errors.As(err, &apiErr)
}
