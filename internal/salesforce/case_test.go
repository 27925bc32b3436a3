// internal/salesforce/case_test.go
package salesforce

import (
	"errors"
	"testing"

	"github.com/simpleforce/simpleforce"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sf-indexer/internal/common/errors"
	"sf-indexer/internal/common/logger"
)

func TestBuildCaseSOQL(t *testing.T) {
	tests := []struct {
		name     string
		filter   CaseFilter
		contains []string
		excludes []string
	}{
		{
			name:     "no filter",
			filter:   CaseFilter{},
			contains: []string{"FROM Case", "ORDER BY CreatedDate DESC"},
			excludes: []string{"WHERE", "LIMIT"},
		},
		{
			name:     "account scoped",
			filter:   CaseFilter{AccountID: "001Vv00000AbCdEQAV"},
			contains: []string{"WHERE AccountId = '001Vv00000AbCdEQAV'"},
		},
		{
			name:     "open only",
			filter:   CaseFilter{OpenOnly: true},
			contains: []string{"IsClosed = false"},
		},
		{
			name:     "closed only",
			filter:   CaseFilter{ClosedOnly: true},
			contains: []string{"IsClosed = true"},
		},
		{
			name:   "combined filters join with AND",
			filter: CaseFilter{AccountID: "001Vv00000AbCdEQAV", Priority: "High", OpenOnly: true},
			contains: []string{
				"AccountId = '001Vv00000AbCdEQAV' AND IsClosed = false AND Priority = 'High'",
			},
		},
		{
			name:     "date range",
			filter:   CaseFilter{DateFrom: "2024-01-01", DateTo: "2024-06-30"},
			contains: []string{"CreatedDate >= 2024-01-01T00:00:00Z", "CreatedDate <= 2024-06-30T23:59:59Z"},
		},
		{
			name:     "limit",
			filter:   CaseFilter{Limit: 50},
			contains: []string{"LIMIT 50"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			soql := buildCaseSOQL(tt.filter)
			for _, s := range tt.contains {
				assert.Contains(t, soql, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, soql, s)
			}
		})
	}
}

// fakeRunner returns canned query results keyed by a substring of the SOQL.
type fakeRunner struct {
	result *simpleforce.QueryResult
	err    error
}

func (f *fakeRunner) Query(soql string) (*simpleforce.QueryResult, error) {
	return f.result, f.err
}

func TestCaseReader_Fetch_NotFound(t *testing.T) {
	reader := &CaseReader{
		client: &fakeRunner{result: &simpleforce.QueryResult{TotalSize: 0}},
		logger: logger.NewTestLogger(t),
	}

	rec, err := reader.Fetch("500Vv00000CaSeIQAV")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestCaseReader_Fetch_MapsFields(t *testing.T) {
	record := simpleforce.SObject{
		"Id":         "500Vv00000CaSeIQAV",
		"CaseNumber": "00012345",
		"Subject":    "Cannot log in",
		"Status":     "Open",
		"Priority":   "High",
		"IsClosed":   false,
		"Account":    map[string]interface{}{"Name": "Acme Corp"},
		"Owner":      map[string]interface{}{"Name": "Jordan Lee"},
	}
	reader := &CaseReader{
		client: &fakeRunner{result: &simpleforce.QueryResult{
			TotalSize: 1,
			Records:   []simpleforce.SObject{record},
		}},
		logger: logger.NewTestLogger(t),
	}

	rec, err := reader.Fetch("500Vv00000CaSeIQAV")
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "00012345", rec.CaseNumber)
	assert.Equal(t, "Acme Corp", rec.AccountName)
	assert.Equal(t, "Jordan Lee", rec.OwnerName)
	assert.False(t, rec.IsClosed)
}

func TestCaseReader_List_ClassifiesAuthFailure(t *testing.T) {
	reader := &CaseReader{
		client: &fakeRunner{err: errors.New("INVALID_SESSION_ID: Session expired or invalid")},
		logger: logger.NewTestLogger(t),
	}

	_, err := reader.List(CaseFilter{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeSalesforceAuthFailed, apperrors.CodeOf(err))
}

func TestCaseReader_Comments(t *testing.T) {
	reader := &CaseReader{
		client: &fakeRunner{result: &simpleforce.QueryResult{
			TotalSize: 2,
			Records: []simpleforce.SObject{
				{"Id": "00aVv000001", "CommentBody": "Reset the password", "IsPublished": true},
				{"Id": "00aVv000002", "CommentBody": "Resolved", "IsPublished": false},
			},
		}},
		logger: logger.NewTestLogger(t),
	}

	comments, err := reader.Comments("500Vv00000CaSeIQAV")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "Reset the password", comments[0].Body)
	assert.True(t, comments[0].IsPublished)
	assert.False(t, comments[1].IsPublished)
}
