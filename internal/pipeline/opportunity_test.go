// internal/pipeline/opportunity_test.go
package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sf-indexer/internal/common/config"
	"sf-indexer/internal/common/database"
	apperrors "sf-indexer/internal/common/errors"
	"sf-indexer/internal/common/logger"
	"sf-indexer/internal/currency"
	"sf-indexer/internal/models"
	"sf-indexer/internal/salesforce"
)

// fakeOpportunityReader serves records from a map; missing IDs return
// (nil, nil) like the real reader, and errIDs return their mapped error.
type fakeOpportunityReader struct {
	records map[string]*models.OpportunityRecord
	errIDs  map[string]error
}

func (f *fakeOpportunityReader) Fetch(id string) (*models.OpportunityRecord, error) {
	if err, ok := f.errIDs[id]; ok {
		return nil, err
	}
	return f.records[id], nil
}

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	return &Pipeline{
		Converter: currency.NewConverter(nil, logger.NewTestLogger(t)),
		Logger:    logger.NewTestLogger(t),
	}
}

func opp(id string, amount float64, iso string) *models.OpportunityRecord {
	return &models.OpportunityRecord{
		ID:              id,
		Name:            "Deal " + id,
		Amount:          amount,
		CurrencyISOCode: iso,
		StageName:       "Prospecting",
	}
}

// fakeBulkCluster serves a fake Elasticsearch whose _bulk endpoint rejects
// the given document IDs and accepts everything else.
func fakeBulkCluster(t *testing.T, failingIDs map[string]bool) *database.ElasticsearchClient {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if !strings.Contains(r.URL.Path, "_bulk") {
			fmt.Fprint(w, `{}`)
			return
		}

		// Pull the _id out of each action line of the NDJSON payload.
		body, _ := io.ReadAll(r.Body)

		var items []string
		hadError := false
		for _, line := range strings.Split(strings.TrimSpace(string(body)), "\n") {
			var action struct {
				Index struct {
					ID string `json:"_id"`
				} `json:"index"`
			}
			if json.Unmarshal([]byte(line), &action) != nil || action.Index.ID == "" {
				continue
			}
			if failingIDs[action.Index.ID] {
				hadError = true
				items = append(items, fmt.Sprintf(
					`{"index":{"_id":"%s","status":400,"error":{"type":"document_parsing_exception","reason":"failed to parse"}}}`,
					action.Index.ID))
			} else {
				items = append(items, fmt.Sprintf(`{"index":{"_id":"%s","status":201}}`, action.Index.ID))
			}
		}
		fmt.Fprintf(w, `{"took":3,"errors":%t,"items":[%s]}`, hadError, strings.Join(items, ","))
	}))
	t.Cleanup(srv.Close)

	es, err := database.NewElasticsearch(config.ElasticsearchConfig{
		ClusterURL: srv.URL,
		AuthMethod: config.AuthBasic,
		Username:   "elastic",
		Password:   "changeme",
	})
	require.NoError(t, err)
	return es
}

func tenOpportunities() ([]string, map[string]*models.OpportunityRecord) {
	ids := make([]string, 10)
	records := map[string]*models.OpportunityRecord{}
	for i := range ids {
		id := fmt.Sprintf("006Vv00000IZa%02d", i)
		ids[i] = id
		records[id] = opp(id, 100, "USD")
	}
	return ids, records
}

func TestRunOpportunities_BulkPartialFailureFailsRun(t *testing.T) {
	ids, records := tenOpportunities()
	reader := &fakeOpportunityReader{records: records}

	p := testPipeline(t)
	p.ES = fakeBulkCluster(t, map[string]bool{ids[7]: true})

	stats, err := p.RunOpportunities(context.Background(), reader, OpportunityOptions{
		Inputs:         ids,
		Index:          "salesforce-opportunities",
		TargetCurrency: "USD",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeBulkWritePartialFailure, apperrors.CodeOf(err))

	assert.Equal(t, 10, stats.Processed)
	assert.Equal(t, 9, stats.Indexed)
	assert.Equal(t, 1, stats.Failed)
}

func TestRunOpportunities_BulkPartialFailureContinues(t *testing.T) {
	ids, records := tenOpportunities()
	reader := &fakeOpportunityReader{records: records}

	p := testPipeline(t)
	p.ES = fakeBulkCluster(t, map[string]bool{ids[7]: true})

	stats, err := p.RunOpportunities(context.Background(), reader, OpportunityOptions{
		Inputs:          ids,
		Index:           "salesforce-opportunities",
		TargetCurrency:  "USD",
		ContinueOnError: true,
	})
	require.NoError(t, err)

	// 9 of 10 land and the run still succeeds.
	assert.Equal(t, 10, stats.Processed)
	assert.Equal(t, 9, stats.Indexed)
	assert.Equal(t, 1, stats.Failed)
}

func TestRunOpportunities_BulkAllSucceed(t *testing.T) {
	ids, records := tenOpportunities()
	reader := &fakeOpportunityReader{records: records}

	p := testPipeline(t)
	p.ES = fakeBulkCluster(t, nil)

	stats, err := p.RunOpportunities(context.Background(), reader, OpportunityOptions{
		Inputs:         ids,
		Index:          "salesforce-opportunities",
		TargetCurrency: "USD",
		MaxWorkers:     4,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Indexed)
	assert.Equal(t, 0, stats.Failed)
}

func TestRunOpportunities_JSONOnly(t *testing.T) {
	reader := &fakeOpportunityReader{records: map[string]*models.OpportunityRecord{
		"006Vv00000IZaFx": opp("006Vv00000IZaFx", 100, "USD"),
	}}

	stats, err := testPipeline(t).RunOpportunities(context.Background(), reader, OpportunityOptions{
		Inputs:         []string{"006Vv00000IZaFx"},
		TargetCurrency: "USD",
		JSONOnly:       true,
		MaxWorkers:     2,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 0, stats.ErrorDocs)
	assert.Equal(t, 0, stats.Failed)
}

func TestRunOpportunities_MissingRecordBecomesErrorDoc(t *testing.T) {
	reader := &fakeOpportunityReader{} // nothing exists

	stats, err := testPipeline(t).RunOpportunities(context.Background(), reader, OpportunityOptions{
		Inputs:         []string{"006Vv00000IZaFx"},
		TargetCurrency: "USD",
		JSONOnly:       true,
	})
	require.NoError(t, err)

	// Exactly one error document, no hard failure.
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.ErrorDocs)
	assert.Equal(t, 0, stats.Failed)
}

func TestRunOpportunities_QueryFailureBecomesErrorDoc(t *testing.T) {
	reader := &fakeOpportunityReader{errIDs: map[string]error{
		"006Vv00000IZaFx": &salesforce.QueryError{
			Status: salesforce.StatusCustomFieldError,
			Entity: "opportunity",
			Err:    assert.AnError,
		},
	}}

	stats, err := testPipeline(t).RunOpportunities(context.Background(), reader, OpportunityOptions{
		Inputs:         []string{"006Vv00000IZaFx"},
		TargetCurrency: "USD",
		JSONOnly:       true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.ErrorDocs)
}

func TestRunOpportunities_AuthFailureAborts(t *testing.T) {
	reader := &fakeOpportunityReader{errIDs: map[string]error{
		"006Vv00000IZaFx": apperrors.NewSalesforceAuthError(assert.AnError),
	}}

	_, err := testPipeline(t).RunOpportunities(context.Background(), reader, OpportunityOptions{
		Inputs:          []string{"006Vv00000IZaFx"},
		TargetCurrency:  "USD",
		JSONOnly:        true,
		ContinueOnError: true, // auth failures abort regardless
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeSalesforceAuthFailed, apperrors.CodeOf(err))
}

func TestRunOpportunities_InvalidInputAbortsByDefault(t *testing.T) {
	reader := &fakeOpportunityReader{}

	_, err := testPipeline(t).RunOpportunities(context.Background(), reader, OpportunityOptions{
		Inputs:         []string{"not-a-record"},
		TargetCurrency: "USD",
		JSONOnly:       true,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidID, apperrors.CodeOf(err))
}

func TestRunOpportunities_ContinueOnErrorSkipsInvalidInputs(t *testing.T) {
	reader := &fakeOpportunityReader{records: map[string]*models.OpportunityRecord{
		"006Vv00000IZaFx": opp("006Vv00000IZaFx", 100, "USD"),
	}}

	stats, err := testPipeline(t).RunOpportunities(context.Background(), reader, OpportunityOptions{
		Inputs:          []string{"not-a-record", "006Vv00000IZaFx"},
		TargetCurrency:  "USD",
		JSONOnly:        true,
		ContinueOnError: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.ErrorDocs)
}

func TestRunOpportunities_ValidateOnlyNeverFetches(t *testing.T) {
	stats, err := testPipeline(t).RunOpportunities(context.Background(), nil, OpportunityOptions{
		Inputs:         []string{"006Vv00000IZaFx"},
		TargetCurrency: "USD",
		ValidateOnly:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Processed)
}

func TestRunOpportunities_ParallelFetchPreservesOrder(t *testing.T) {
	records := map[string]*models.OpportunityRecord{}
	inputs := make([]string, 0, 8)
	for _, suffix := range []string{"Aa", "Bb", "Cc", "Dd", "Ee", "Ff", "Gg", "Hh"} {
		id := "006Vv00000IZa0" + suffix[:1]
		records[id] = opp(id, 10, "USD")
		inputs = append(inputs, id)
	}
	reader := &fakeOpportunityReader{records: records}

	stats, err := testPipeline(t).RunOpportunities(context.Background(), reader, OpportunityOptions{
		Inputs:         inputs,
		TargetCurrency: "USD",
		JSONOnly:       true,
		MaxWorkers:     4,
	})
	require.NoError(t, err)
	assert.Equal(t, len(inputs), stats.Processed)
	assert.Equal(t, 0, stats.Failed)
}
