// internal/common/errors/errors_test.go
package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	err := NewInvalidIDError("nope")
	assert.Equal(t, ErrCodeInvalidID, CodeOf(err))

	wrapped := fmt.Errorf("resolving input: %w", err)
	assert.Equal(t, ErrCodeInvalidID, CodeOf(wrapped))

	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
}

func TestIsRecordLevel(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		recordLevel bool
	}{
		{"invalid URL", NewInvalidURLError("https://example.com"), true},
		{"invalid ID", NewInvalidIDError("xyz"), true},
		{"salesforce auth", NewSalesforceAuthError(errors.New("expired")), false},
		{"elasticsearch auth", NewElasticsearchAuthError(errors.New("401")), false},
		{"elasticsearch connection", NewElasticsearchConnectionError(errors.New("refused")), false},
		{"bulk partial failure", NewBulkWritePartialFailureError(1, 10), false},
		{"network", NewNetworkError("exchange rate API", errors.New("timeout")), false},
		{"plain error", errors.New("plain"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.recordLevel, IsRecordLevel(tt.err))
		})
	}
}
