// internal/pipeline/case.go
package pipeline

import (
	"context"
	"errors"

	"sf-indexer/internal/common/database"
	apperrors "sf-indexer/internal/common/errors"
	"sf-indexer/internal/common/metrics"
	"sf-indexer/internal/mapper"
	"sf-indexer/internal/models"
	"sf-indexer/internal/salesforce"
)

// CaseOptions controls one case indexing run. Either AccountInput scopes the
// run to an account's cases, or Inputs names individual cases.
type CaseOptions struct {
	AccountInput string   // account URL or ID; lists its cases
	Inputs       []string // case URLs or IDs
	Filter       salesforce.CaseFilter
	WithComments bool

	Index           string
	JSONOnly        bool
	ContinueOnError bool
	ValidateOnly    bool
	Export          ExportMode
	OutputFile      string
}

// caseFetcher is the reader surface the run needs; satisfied by
// *salesforce.CaseReader and by test fakes.
type caseFetcher interface {
	Fetch(id string) (*models.CaseRecord, error)
	List(filter salesforce.CaseFilter) ([]models.CaseRecord, error)
	Comments(caseID string) ([]models.CommentRecord, error)
}

// RunCases drives extract -> map -> write for cases, either account-scoped
// or by explicit case IDs.
func (p *Pipeline) RunCases(ctx context.Context, reader caseFetcher, opts CaseOptions) (*Stats, error) {
	stats := &Stats{}

	if opts.AccountInput != "" && len(opts.Inputs) > 0 {
		return stats, apperrors.NewInvalidConfigError("an account scope and explicit case inputs cannot be combined")
	}

	var docs []database.BulkDocument
	var err error
	if opts.AccountInput != "" {
		docs, err = p.collectAccountCases(reader, opts, stats)
	} else {
		docs, err = p.collectNamedCases(reader, opts, stats)
	}
	if err != nil || opts.ValidateOnly {
		return stats, err
	}

	if err := p.exportDocs("case", opts.Export, opts.OutputFile, docs); err != nil {
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

// collectAccountCases lists an account's cases and maps each of them.
func (p *Pipeline) collectAccountCases(reader caseFetcher, opts CaseOptions, stats *Stats) ([]database.BulkDocument, error) {
	accountID, err := salesforce.ExtractAccountID(opts.AccountInput)
	if err != nil {
		return nil, err
	}
	if opts.ValidateOnly {
		p.Logger.Info("input is valid", map[string]interface{}{
			"input": opts.AccountInput,
			"id":    accountID,
		})
		return nil, nil
	}

	filter := opts.Filter
	filter.AccountID = accountID
	cases, err := reader.List(filter)
	if err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		p.Logger.Warn("account has no matching cases", map[string]interface{}{"accountId": accountID})
		return nil, nil
	}

	var docs []database.BulkDocument
	for i := range cases {
		stats.Processed++
		metrics.RecordsProcessed.WithLabelValues("case").Inc()

		doc, err := p.buildCaseDoc(reader, &cases[i], opts.WithComments)
		if err != nil {
			if !opts.ContinueOnError {
				return nil, err
			}
			p.Logger.Error("case failed, continuing", map[string]interface{}{
				"id":    cases[i].ID,
				"error": err.Error(),
			})
			stats.Failed++
			continue
		}
		docs = append(docs, database.BulkDocument{ID: cases[i].ID, Body: doc})
	}
	return docs, nil
}

// collectNamedCases fetches explicitly named cases; a missing case becomes
// an error document.
func (p *Pipeline) collectNamedCases(reader caseFetcher, opts CaseOptions, stats *Stats) ([]database.BulkDocument, error) {
	var docs []database.BulkDocument
	for _, input := range opts.Inputs {
		id, err := salesforce.ExtractCaseID(input)
		if err != nil {
			if !opts.ContinueOnError {
				return nil, err
			}
			p.Logger.Error("skipping invalid input", map[string]interface{}{
				"input": input,
				"error": err.Error(),
			})
			stats.Processed++
			stats.Failed++
			continue
		}
		if opts.ValidateOnly {
			p.Logger.Info("input is valid", map[string]interface{}{"input": input, "id": id})
			continue
		}

		stats.Processed++
		metrics.RecordsProcessed.WithLabelValues("case").Inc()

		rec, err := reader.Fetch(id)
		if err != nil {
			var qerr *salesforce.QueryError
			if errors.As(err, &qerr) {
				doc := mapper.QueryFailureDocument("case", id, err)
				if verr := mapper.Validate(doc); verr != nil {
					return nil, verr
				}
				stats.ErrorDocs++
				docs = append(docs, database.BulkDocument{ID: id, Body: doc})
				continue
			}
			return nil, err
		}
		if rec == nil {
			doc := mapper.NotFoundDocument("case", id)
			if verr := mapper.Validate(doc); verr != nil {
				return nil, verr
			}
			stats.ErrorDocs++
			docs = append(docs, database.BulkDocument{ID: id, Body: doc})
			continue
		}

		doc, err := p.buildCaseDoc(reader, rec, opts.WithComments)
		if err != nil {
			if !opts.ContinueOnError {
				return nil, err
			}
			stats.Failed++
			continue
		}
		docs = append(docs, database.BulkDocument{ID: rec.ID, Body: doc})
	}
	return docs, nil
}

// buildCaseDoc maps one case, fetching its comments only when asked to.
func (p *Pipeline) buildCaseDoc(reader caseFetcher, rec *models.CaseRecord, withComments bool) (*mapper.CaseDocument, error) {
	var comments []models.CommentRecord
	if withComments {
		var err error
		comments, err = reader.Comments(rec.ID)
		if err != nil {
			return nil, err
		}
	}

	doc := mapper.MapCase(rec, comments)
	if err := mapper.Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}
