// internal/common/database/indexsetup.go
package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// opportunityMapping keeps amounts numeric and dates typed so range queries
// and aggregations work out of the box. error documents share the index, so
// the status fields are mapped too.
var opportunityMapping = map[string]interface{}{
	"mappings": map[string]interface{}{
		"properties": map[string]interface{}{
			"opportunity_id":        map[string]string{"type": "keyword"},
			"opportunity_name":      map[string]string{"type": "text"},
			"account_id":            map[string]string{"type": "keyword"},
			"account_name":          map[string]string{"type": "text"},
			"amount":                map[string]string{"type": "double"},
			"currency_iso_code":     map[string]string{"type": "keyword"},
			"amount_converted":      map[string]string{"type": "double"},
			"converted_currency":    map[string]string{"type": "keyword"},
			"conversion_rate":       map[string]string{"type": "double"},
			"conversion_successful": map[string]string{"type": "boolean"},
			"stage_name":            map[string]string{"type": "keyword"},
			"probability":           map[string]string{"type": "double"},
			"is_won":                map[string]string{"type": "boolean"},
			"is_closed":             map[string]string{"type": "boolean"},
			"close_date":            map[string]string{"type": "date"},
			"created_date":          map[string]string{"type": "date"},
			"last_modified_date":    map[string]string{"type": "date"},
			"extracted_at":          map[string]string{"type": "date"},
			"indexed_at":            map[string]string{"type": "date"},
			"source":                map[string]string{"type": "keyword"},
			"error_status":          map[string]string{"type": "keyword"},
			"error_message":         map[string]string{"type": "text"},
		},
	},
}

var caseMapping = map[string]interface{}{
	"mappings": map[string]interface{}{
		"properties": map[string]interface{}{
			"case_id":      map[string]string{"type": "keyword"},
			"case_number":  map[string]string{"type": "keyword"},
			"subject":      map[string]string{"type": "text"},
			"description":  map[string]string{"type": "text"},
			"status":       map[string]string{"type": "keyword"},
			"priority":     map[string]string{"type": "keyword"},
			"origin":       map[string]string{"type": "keyword"},
			"account_id":   map[string]string{"type": "keyword"},
			"account_name": map[string]string{"type": "text"},
			"is_closed":    map[string]string{"type": "boolean"},
			"is_escalated": map[string]string{"type": "boolean"},
			"created_date": map[string]string{"type": "date"},
			"closed_date":  map[string]string{"type": "date"},
			"extracted_at": map[string]string{"type": "date"},
			"indexed_at":   map[string]string{"type": "date"},
			"source":       map[string]string{"type": "keyword"},
			"error_status": map[string]string{"type": "keyword"},
			"comments": map[string]interface{}{
				"type": "nested",
				"properties": map[string]interface{}{
					"comment_id":   map[string]string{"type": "keyword"},
					"body":         map[string]string{"type": "text"},
					"created_by":   map[string]string{"type": "keyword"},
					"created_date": map[string]string{"type": "date"},
					"is_published": map[string]string{"type": "boolean"},
				},
			},
		},
	},
}

// MappingFor returns the index mapping for the given entity kind.
func MappingFor(entity string) (map[string]interface{}, error) {
	switch strings.ToLower(entity) {
	case "opportunity":
		return opportunityMapping, nil
	case "case":
		return caseMapping, nil
	default:
		return nil, fmt.Errorf("no mapping defined for entity %q", entity)
	}
}

// IngestPipelineName is attached as the default pipeline of every index the
// indexers create. It stamps documents with the indexing time.
const IngestPipelineName = "sf-indexer-timestamp"

var ingestPipeline = map[string]interface{}{
	"description": "Stamp Salesforce documents with the indexing time",
	"processors": []map[string]interface{}{
		{
			"set": map[string]interface{}{
				"field": "indexed_at",
				"value": "{{_ingest.timestamp}}",
			},
		},
	},
}

// EnsureIngestPipeline creates (or overwrites) the default ingest pipeline.
func (c *ElasticsearchClient) EnsureIngestPipeline(ctx context.Context) error {
	body, err := json.Marshal(ingestPipeline)
	if err != nil {
		return fmt.Errorf("marshal ingest pipeline: %w", err)
	}

	res, err := c.Client.Ingest.PutPipeline(
		IngestPipelineName,
		strings.NewReader(string(body)),
		c.Client.Ingest.PutPipeline.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("put ingest pipeline: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("put ingest pipeline: %s", res.Status())
	}
	return nil
}

// EnsureIndex creates the index with the entity's mapping when it does not
// exist yet. Existing indices are left untouched.
func (c *ElasticsearchClient) EnsureIndex(ctx context.Context, index, entity string) error {
	res, err := c.Client.Indices.Exists(
		[]string{index},
		c.Client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	if err := c.EnsureIngestPipeline(ctx); err != nil {
		return err
	}

	mapping, err := MappingFor(entity)
	if err != nil {
		return err
	}
	settings := map[string]interface{}{
		"settings": map[string]interface{}{
			"index.default_pipeline": IngestPipelineName,
		},
		"mappings": mapping["mappings"],
	}
	body, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}

	createRes, err := c.Client.Indices.Create(
		index,
		c.Client.Indices.Create.WithContext(ctx),
		c.Client.Indices.Create.WithBody(strings.NewReader(string(body))),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("create index %s: %s", index, createRes.Status())
	}
	return nil
}
