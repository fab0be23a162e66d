// Package errors provides the standard error type shared by the HTTP API and
// the booking workflow workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidTransition    ErrorCode = "INVALID_TRANSITION"
	ErrCodeListingNotFound      ErrorCode = "LISTING_NOT_FOUND"
	ErrCodeOfferNotFound        ErrorCode = "OFFER_NOT_FOUND"
	ErrCodeWizardNotActive      ErrorCode = "WIZARD_NOT_ACTIVE"
	ErrCodeSubmissionInProgress ErrorCode = "SUBMISSION_IN_PROGRESS"

	ErrCodeStoreReadFailed  ErrorCode = "STORE_READ_FAILED"
	ErrCodeStoreWriteFailed ErrorCode = "STORE_WRITE_FAILED"

	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeIndexNotFound     ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeProcessStartFailed     ErrorCode = "PROCESS_START_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT_ERROR"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// NewValidationError creates a non-retryable input validation error.
func NewValidationError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Validation failed", details, false, nil)
}

// NewInvalidTransitionError reports an intent that is not allowed from the current view.
func NewInvalidTransitionError(details string, cause error) *StandardError {
	return newError(ErrCodeInvalidTransition, "Action not available on the current screen", details, false, cause)
}

// NewListingNotFoundError creates a non-retryable lookup error.
func NewListingNotFoundError(listingID string) *StandardError {
	return newError(ErrCodeListingNotFound, "Listing not found", fmt.Sprintf("listingId: %s", listingID), false, nil)
}

// NewOfferNotFoundError reports a building or room offer outside the selected listing.
func NewOfferNotFoundError(details string, cause error) *StandardError {
	return newError(ErrCodeOfferNotFound, "Room offer not found", details, false, cause)
}

// NewWizardNotActiveError reports a booking intent with no booking in progress.
func NewWizardNotActiveError() *StandardError {
	return newError(ErrCodeWizardNotActive, "No booking in progress", "", false, nil)
}

// NewSubmissionInProgressError reports an intent rejected while a booking is being submitted.
func NewSubmissionInProgressError() *StandardError {
	return newError(ErrCodeSubmissionInProgress, "Booking submission in progress", "", true, nil)
}

// NewStoreReadFailedError creates a retryable persistence error.
func NewStoreReadFailedError(key string, err error) *StandardError {
	return newError(ErrCodeStoreReadFailed, "Failed to read persisted state",
		fmt.Sprintf("key: %s, error: %s", key, err.Error()), true, err)
}

// NewStoreWriteFailedError creates a retryable persistence error.
func NewStoreWriteFailedError(key string, err error) *StandardError {
	return newError(ErrCodeStoreWriteFailed, "Failed to persist state",
		fmt.Sprintf("key: %s, error: %s", key, err.Error()), true, err)
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true, err)
}

// NewIndexNotFoundError creates a non-retryable index not found error.
func NewIndexNotFoundError(indexName string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Elasticsearch index not found",
		fmt.Sprintf("indexName: %s", indexName), false, nil)
}

// NewProcessStartFailedError creates a retryable workflow error.
func NewProcessStartFailedError(processID string, err error) *StandardError {
	return newError(ErrCodeProcessStartFailed, "Failed to start booking process",
		fmt.Sprintf("processId: %s, error: %s", processID, err.Error()), true, err)
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true, err)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err.Error(), true, err)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true, err)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// Normalize returns err as a StandardError, wrapping anything else as INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// HTTPStatus maps an error code to the status the API responds with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeListingNotFound, ErrCodeOfferNotFound, ErrCodeIndexNotFound:
		return http.StatusNotFound
	case ErrCodeInvalidTransition, ErrCodeWizardNotActive, ErrCodeSubmissionInProgress:
		return http.StatusConflict
	case ErrCodeStoreReadFailed, ErrCodeStoreWriteFailed, ErrCodeSearchQueryFailed,
		ErrCodeProcessStartFailed, ErrCodeNotificationSendFailed, ErrCodeExternalService:
		return http.StatusServiceUnavailable
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreReadFailed,
		ErrCodeStoreWriteFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeProcessStartFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeExternalService:
		return 3

	case ErrCodeTimeout:
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "STORE"):
		return "STORAGE"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "PROCESS") || strings.Contains(codeStr, "NOTIFICATION"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "TRANSITION") || strings.Contains(codeStr, "WIZARD") || strings.Contains(codeStr, "SUBMISSION"):
		return "NAVIGATION"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "LOOKUP"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
