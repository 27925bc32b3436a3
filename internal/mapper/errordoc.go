// internal/mapper/errordoc.go
package mapper

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"sf-indexer/internal/common/metrics"
	"sf-indexer/internal/salesforce"
)

// ErrorDocument is indexed in place of a real document when a record could
// not be extracted, so failed lookups stay queryable alongside the data.
type ErrorDocument struct {
	RecordID     string `json:"record_id"`
	Entity       string `json:"entity"`
	ErrorStatus  string `json:"error_status"`
	ErrorMessage string `json:"error_message"`
	ExtractedAt  string `json:"extracted_at"`
	SourceName   string `json:"source"`
}

// NotFoundDocument synthesizes the error document for a record that does not
// exist in the org. The status is e.g. OPPORTUNITY_NOT_FOUND.
func NotFoundDocument(entity, recordID string) *ErrorDocument {
	status := strings.ToUpper(entity) + "_NOT_FOUND"
	metrics.ErrorDocuments.WithLabelValues(entity, status).Inc()

	return &ErrorDocument{
		RecordID:     recordID,
		Entity:       entity,
		ErrorStatus:  status,
		ErrorMessage: fmt.Sprintf("No %s found with ID %s", entity, recordID),
		ExtractedAt:  now().Format(time.RFC3339),
		SourceName:   Source,
	}
}

// QueryFailureDocument synthesizes the error document for a record-level
// query failure, carrying the classified status (CUSTOM_FIELD_ERROR,
// MALFORMED_QUERY_ERROR, ...).
func QueryFailureDocument(entity, recordID string, err error) *ErrorDocument {
	status := salesforce.StatusQueryError
	var qerr *salesforce.QueryError
	if errors.As(err, &qerr) {
		status = qerr.Status
	}
	metrics.ErrorDocuments.WithLabelValues(entity, status).Inc()

	return &ErrorDocument{
		RecordID:     recordID,
		Entity:       entity,
		ErrorStatus:  status,
		ErrorMessage: err.Error(),
		ExtractedAt:  now().Format(time.RFC3339),
		SourceName:   Source,
	}
}
