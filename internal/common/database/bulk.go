// internal/common/database/bulk.go
package database

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	apperrors "sf-indexer/internal/common/errors"
	"sf-indexer/internal/common/metrics"
)

// BulkDocument pairs a document ID with its JSON-serializable body.
type BulkDocument struct {
	ID   string
	Body interface{}
}

// ItemError records a single document that the bulk API rejected.
type ItemError struct {
	ID     string `json:"id"`
	Status int    `json:"status"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// BulkResult summarizes one bulk request. A partial failure leaves the
// successfully indexed documents in place.
type BulkResult struct {
	Succeeded int
	Failed    int
	Errors    []ItemError
}

// bulkResponse mirrors the _bulk API response shape.
type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// BulkIndex writes the documents to the index in a single _bulk request.
// Per-document rejections are collected into the result rather than aborting;
// only transport-level and auth failures return an error.
func (c *ElasticsearchClient) BulkIndex(ctx context.Context, index string, docs []BulkDocument) (*BulkResult, error) {
	if len(docs) == 0 {
		return &BulkResult{}, nil
	}

	var buf bytes.Buffer
	for _, doc := range docs {
		action := map[string]map[string]string{
			"index": {"_index": index, "_id": doc.ID},
		}
		actionLine, err := json.Marshal(action)
		if err != nil {
			return nil, fmt.Errorf("marshal bulk action: %w", err)
		}
		docLine, err := json.Marshal(doc.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal document %s: %w", doc.ID, err)
		}
		buf.Write(actionLine)
		buf.WriteByte('\n')
		buf.Write(docLine)
		buf.WriteByte('\n')
	}

	res, err := c.Client.Bulk(
		bytes.NewReader(buf.Bytes()),
		c.Client.Bulk.WithContext(ctx),
		c.Client.Bulk.WithIndex(index),
	)
	if err != nil {
		return nil, apperrors.NewElasticsearchConnectionError(err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		return nil, apperrors.NewElasticsearchAuthError(fmt.Errorf("bulk returned %s", res.Status()))
	}
	if res.IsError() {
		return nil, apperrors.NewElasticsearchConnectionError(fmt.Errorf("bulk returned %s", res.Status()))
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read bulk response: %w", err)
	}

	var parsed bulkResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse bulk response: %w", err)
	}

	result := &BulkResult{}
	for _, item := range parsed.Items {
		for _, detail := range item {
			if detail.Error != nil {
				result.Failed++
				itemErr := ItemError{ID: detail.ID, Status: detail.Status}
				itemErr.Type = detail.Error.Type
				itemErr.Reason = detail.Error.Reason
				result.Errors = append(result.Errors, itemErr)
				metrics.DocumentsFailed.WithLabelValues(index).Inc()
			} else {
				result.Succeeded++
				metrics.DocumentsIndexed.WithLabelValues(index).Inc()
			}
		}
	}

	return result, nil
}

// IndexOne writes a single document, reusing the bulk path so failure
// semantics stay uniform.
func (c *ElasticsearchClient) IndexOne(ctx context.Context, index, id string, body interface{}) (*BulkResult, error) {
	return c.BulkIndex(ctx, index, []BulkDocument{{ID: id, Body: body}})
}
