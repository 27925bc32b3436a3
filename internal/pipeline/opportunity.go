// internal/pipeline/opportunity.go
package pipeline

import (
	"context"
	"errors"

	"github.com/sourcegraph/conc/pool"

	"sf-indexer/internal/common/database"
	apperrors "sf-indexer/internal/common/errors"
	"sf-indexer/internal/common/metrics"
	"sf-indexer/internal/mapper"
	"sf-indexer/internal/models"
	"sf-indexer/internal/salesforce"
)

// OpportunityOptions controls one opportunity indexing run.
type OpportunityOptions struct {
	Inputs          []string // record URLs or bare IDs
	Index           string
	TargetCurrency  string
	JSONOnly        bool
	ContinueOnError bool
	ValidateOnly    bool
	Export          ExportMode
	OutputFile      string
	MaxWorkers      int
}

// opportunityFetcher is the reader surface the run needs; satisfied by
// *salesforce.OpportunityReader and by test fakes.
type opportunityFetcher interface {
	Fetch(id string) (*models.OpportunityRecord, error)
}

type fetchResult struct {
	input string
	id    string
	rec   *models.OpportunityRecord
	err   error
}

// RunOpportunities drives extract -> convert -> map -> write for a batch of
// opportunity inputs. Record-level failures become error documents; only
// auth and connection failures abort the run.
func (p *Pipeline) RunOpportunities(ctx context.Context, reader opportunityFetcher, opts OpportunityOptions) (*Stats, error) {
	stats := &Stats{}

	// Resolve IDs up front so malformed inputs fail before any org traffic.
	ids := make([]string, len(opts.Inputs))
	for i, input := range opts.Inputs {
		id, err := salesforce.ExtractOpportunityID(input)
		if err != nil {
			if !opts.ContinueOnError {
				return stats, err
			}
			p.Logger.Error("skipping invalid input", map[string]interface{}{
				"input": input,
				"error": err.Error(),
			})
			stats.Processed++
			stats.Failed++
			continue
		}
		ids[i] = id
	}

	if opts.ValidateOnly {
		for i, id := range ids {
			if id != "" {
				p.Logger.Info("input is valid", map[string]interface{}{
					"input": opts.Inputs[i],
					"id":    id,
				})
			}
		}
		return stats, nil
	}

	results := p.fetchOpportunities(reader, opts.Inputs, ids, opts.MaxWorkers)

	var docs []database.BulkDocument

	for _, r := range results {
		if r.id == "" {
			continue // already counted as failed during resolution
		}
		stats.Processed++
		metrics.RecordsProcessed.WithLabelValues("opportunity").Inc()

		doc, isErrDoc, err := p.buildOpportunityDoc(ctx, r, opts.TargetCurrency)
		if err != nil {
			if !apperrors.IsRecordLevel(err) {
				return stats, err
			}
			if !opts.ContinueOnError {
				return stats, err
			}
			p.Logger.Error("record failed, continuing", map[string]interface{}{
				"input": r.input,
				"error": err.Error(),
			})
			stats.Failed++
			continue
		}
		if isErrDoc {
			stats.ErrorDocs++
		}
		docs = append(docs, database.BulkDocument{ID: r.id, Body: doc})
	}

	if err := p.exportDocs("opportunity", opts.Export, opts.OutputFile, docs); err != nil {
		return stats, err
	}

	if opts.JSONOnly || len(docs) == 0 {
		return stats, nil
	}

	bulkRes, err := p.ES.BulkIndex(ctx, opts.Index, docs)
	if err != nil {
		return stats, err
	}
	stats.Indexed = bulkRes.Succeeded
	stats.Failed += bulkRes.Failed

	for _, itemErr := range bulkRes.Errors {
		p.Logger.Error("document rejected by bulk API", map[string]interface{}{
			"id":     itemErr.ID,
			"status": itemErr.Status,
			"reason": itemErr.Reason,
		})
	}
	if bulkRes.Failed > 0 && !opts.ContinueOnError {
		return stats, apperrors.NewBulkWritePartialFailureError(bulkRes.Failed, len(docs))
	}

	return stats, nil
}

// fetchOpportunities fetches records concurrently while preserving input
// order. Entries whose ID resolution failed are passed through untouched.
func (p *Pipeline) fetchOpportunities(reader opportunityFetcher, inputs, ids []string, maxWorkers int) []fetchResult {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	results := make([]fetchResult, len(ids))
	workers := pool.New().WithMaxGoroutines(maxWorkers)
	for i := range ids {
		i := i
		results[i] = fetchResult{input: inputs[i], id: ids[i]}
		if ids[i] == "" {
			continue
		}
		workers.Go(func() {
			rec, err := reader.Fetch(ids[i])
			results[i].rec, results[i].err = rec, err
		})
	}
	workers.Wait()
	return results
}

// buildOpportunityDoc turns one fetch result into an indexable document.
// isErrDoc reports that an error document was synthesized.
func (p *Pipeline) buildOpportunityDoc(ctx context.Context, r fetchResult, targetCurrency string) (interface{}, bool, error) {
	if r.err != nil {
		var qerr *salesforce.QueryError
		if errors.As(r.err, &qerr) {
			doc := mapper.QueryFailureDocument("opportunity", r.id, r.err)
			if err := mapper.Validate(doc); err != nil {
				return nil, false, err
			}
			return doc, true, nil
		}
		return nil, false, r.err
	}

	if r.rec == nil {
		doc := mapper.NotFoundDocument("opportunity", r.id)
		if err := mapper.Validate(doc); err != nil {
			return nil, false, err
		}
		return doc, true, nil
	}

	conv := p.Converter.Convert(ctx, r.rec.Amount, r.rec.CurrencyISOCode, targetCurrency)
	doc := mapper.MapOpportunity(r.rec, conv)
	if err := mapper.Validate(doc); err != nil {
		return nil, false, err
	}
	return doc, false, nil
}

// ExportMode selects how a run's documents are written to disk.
type ExportMode int

const (
	ExportPerRecord ExportMode = iota
	ExportCombined
	ExportNDJSON
)

// exportDocs writes the run's documents to disk: one file per record, one
// combined file with run metadata, or an NDJSON stream.
func (p *Pipeline) exportDocs(entity string, mode ExportMode, outputFile string, docs []database.BulkDocument) error {
	if p.Exporter == nil || len(docs) == 0 {
		return nil
	}

	if mode == ExportNDJSON {
		bodies := make([]interface{}, len(docs))
		for i, d := range docs {
			bodies[i] = d.Body
		}
		_, err := p.Exporter.WriteNDJSON(entity, outputFile, bodies)
		return err
	}

	if mode == ExportCombined || outputFile != "" {
		bodies := make([]interface{}, len(docs))
		for i, d := range docs {
			bodies[i] = d.Body
		}
		_, err := p.Exporter.WriteCombined(entity, outputFile, bodies)
		return err
	}

	for _, d := range docs {
		if _, err := p.Exporter.WriteRecord(entity, d.ID, d.Body); err != nil {
			return err
		}
	}
	return nil
}
