// internal/salesforce/query.go
package salesforce

import (
	"fmt"
	"strings"

	apperrors "sf-indexer/internal/common/errors"
)

// Error statuses attached to synthesized error documents when a SOQL query
// fails for a reason other than the record being absent.
const (
	StatusCustomFieldError  = "CUSTOM_FIELD_ERROR"
	StatusInvalidFieldError = "INVALID_FIELD_ERROR"
	StatusMalformedQuery    = "MALFORMED_QUERY_ERROR"
	StatusAccessError       = "ACCESS_ERROR"
	StatusQueryError        = "QUERY_ERROR"
)

// QueryError carries the classified status alongside the underlying failure
// so record-level errors can be captured as data.
type QueryError struct {
	Status string
	Entity string
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s %s query failed: %v", e.Entity, e.Status, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// classifyQueryError inspects a Salesforce API error and classifies it. Auth
// failures are connection-level and abort; everything else is record-level.
func classifyQueryError(entity string, err error) error {
	msg := err.Error()

	if strings.Contains(msg, "INVALID_SESSION_ID") || strings.Contains(msg, "401") {
		return apperrors.NewSalesforceAuthError(err)
	}

	status := StatusQueryError
	switch {
	case strings.Contains(msg, "No such column") && strings.Contains(msg, "__c"):
		status = StatusCustomFieldError
	case strings.Contains(msg, "INVALID_FIELD"):
		status = StatusInvalidFieldError
	case strings.Contains(msg, "MALFORMED_QUERY"):
		status = StatusMalformedQuery
	case strings.Contains(msg, "INSUFFICIENT_ACCESS"):
		status = StatusAccessError
	}

	return &QueryError{Status: status, Entity: entity, Err: err}
}
