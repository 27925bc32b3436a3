// Package errors provides standardized error handling for the Salesforce to
// Elasticsearch integration tools.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidURL ErrorCode = "INVALID_URL"
	ErrCodeInvalidID  ErrorCode = "INVALID_ID"

	ErrCodeSalesforceAuthFailed ErrorCode = "SALESFORCE_AUTH_FAILED"

	ErrCodeElasticsearchAuthFailed       ErrorCode = "ELASTICSEARCH_AUTH_FAILED"
	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeBulkWritePartialFailure       ErrorCode = "BULK_WRITE_PARTIAL_FAILURE"

	ErrCodeNetworkError  ErrorCode = "NETWORK_ERROR"
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// AppError is a structured application error. Record-level errors are
// captured as data (error documents) by the mapper; connection-level errors
// abort the current operation and surface Guidance to the user.
type AppError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Guidance  string    `json:"guidance,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf extracts the error code from err, or empty when err is not an AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsRecordLevel reports whether the error should be captured as data rather
// than aborting the run. Missing records and classified query failures never
// reach this path: the readers return (nil, nil) and salesforce.QueryError
// values, both of which the pipeline turns into error documents.
func IsRecordLevel(err error) bool {
	switch CodeOf(err) {
	case ErrCodeInvalidURL, ErrCodeInvalidID:
		return true
	}
	return false
}

func NewInvalidURLError(url string) *AppError {
	return &AppError{
		Code:      ErrCodeInvalidURL,
		Message:   "could not resolve a Salesforce record ID from URL",
		Details:   url,
		Retryable: false,
		Guidance:  "Expected a lightning record URL or a raw 15/18 character record ID.",
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidIDError(id string) *AppError {
	return &AppError{
		Code:      ErrCodeInvalidID,
		Message:   "value is not a valid Salesforce record ID",
		Details:   id,
		Retryable: false,
		Guidance:  "Record IDs are 15 or 18 alphanumeric characters with an entity key prefix.",
		Timestamp: time.Now().UTC(),
	}
}

func NewSalesforceAuthError(err error) *AppError {
	return &AppError{
		Code:      ErrCodeSalesforceAuthFailed,
		Message:   "Salesforce authentication failed",
		Details:   err.Error(),
		Retryable: false,
		Guidance:  "Re-authenticate with: sf org login web",
		Timestamp: time.Now().UTC(),
	}
}

func NewElasticsearchAuthError(err error) *AppError {
	return &AppError{
		Code:      ErrCodeElasticsearchAuthFailed,
		Message:   "Elasticsearch authentication failed",
		Details:   err.Error(),
		Retryable: false,
		Guidance:  "Check ES_API_KEY or ES_USERNAME/ES_PASSWORD.",
		Timestamp: time.Now().UTC(),
	}
}

func NewElasticsearchConnectionError(err error) *AppError {
	return &AppError{
		Code:      ErrCodeElasticsearchConnectionFailed,
		Message:   "Elasticsearch connection error",
		Details:   err.Error(),
		Retryable: true,
		Guidance:  "Check ES_CLUSTER_URL and network connectivity.",
		Timestamp: time.Now().UTC(),
	}
}

func NewBulkWritePartialFailureError(failed, total int) *AppError {
	return &AppError{
		Code:      ErrCodeBulkWritePartialFailure,
		Message:   fmt.Sprintf("%d of %d documents failed to index", failed, total),
		Retryable: false,
		Guidance:  "Inspect the per-document errors and re-run with --continue-on-error.",
		Timestamp: time.Now().UTC(),
	}
}

func NewNetworkError(service string, err error) *AppError {
	return &AppError{
		Code:      ErrCodeNetworkError,
		Message:   fmt.Sprintf("network error talking to %s", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidConfigError(details string) *AppError {
	return &AppError{
		Code:      ErrCodeInvalidConfig,
		Message:   "invalid configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
