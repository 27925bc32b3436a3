// cmd/case-indexer/main.go
//
// case-indexer extracts Salesforce cases, either for one account or by
// explicit case URL/ID, and indexes them into Elasticsearch.
//
//	case-indexer --account-id 001Vv00000AbCdE --open-only --with-comments
//	case-indexer 500Vv00000XyZaB --json-only
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"sf-indexer/internal/common/config"
	"sf-indexer/internal/common/database"
	apperrors "sf-indexer/internal/common/errors"
	"sf-indexer/internal/common/logger"
	"sf-indexer/internal/common/metrics"
	"sf-indexer/internal/export"
	"sf-indexer/internal/pipeline"
	"sf-indexer/internal/salesforce"
)

func main() {
	var (
		accountInput    = pflag.String("account-id", "", "account URL or ID; index all its cases")
		file            = pflag.String("file", "", "file with one case URL or ID per line")
		index           = pflag.String("index", "", "target Elasticsearch index (overrides config)")
		openOnly        = pflag.Bool("open-only", false, "only open cases")
		closedOnly      = pflag.Bool("closed-only", false, "only closed cases")
		priority        = pflag.String("priority", "", "filter by priority (High, Medium, Low)")
		dateFrom        = pflag.String("date-from", "", "cases created on or after this date (YYYY-MM-DD)")
		dateTo          = pflag.String("date-to", "", "cases created on or before this date (YYYY-MM-DD)")
		limit           = pflag.Int("limit", 0, "maximum number of cases to fetch")
		withComments    = pflag.Bool("with-comments", false, "include case comments in documents")
		jsonOnly        = pflag.Bool("json-only", false, "export JSON files only, skip Elasticsearch")
		continueOnError = pflag.Bool("continue-on-error", false, "keep processing after record-level failures")
		validateOnly    = pflag.Bool("validate-only", false, "validate inputs without fetching or indexing")
		combinedJSON    = pflag.Bool("combined-json", false, "write one combined export file instead of per-record files")
		ndjson          = pflag.Bool("ndjson", false, "write exports as newline-delimited JSON")
		outputFile      = pflag.String("output-file", "", "path for the combined export file")
		outputDir       = pflag.String("output-dir", "", "directory for export files (overrides config)")
		verbose         = pflag.BoolP("verbose", "v", false, "debug logging")
	)
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	level := cfg.Logging.Level
	if *verbose {
		level = "debug"
	}
	log := logger.NewStructured(level, cfg.Logging.Format)

	inputs := pflag.Args()
	if *file != "" {
		fromFile, err := pipeline.ReadInputFile(*file)
		if err != nil {
			log.Error("could not read input file", map[string]interface{}{"error": err.Error()})
			os.Exit(2)
		}
		inputs = append(inputs, fromFile...)
	}
	if len(inputs) == 0 && *accountInput == "" {
		fmt.Fprintln(os.Stderr, "usage: case-indexer [flags] (<case-url-or-id>... | --account-id <url-or-id>)")
		pflag.PrintDefaults()
		os.Exit(2)
	}
	if *openOnly && *closedOnly {
		fmt.Fprintln(os.Stderr, "--open-only and --closed-only are mutually exclusive")
		os.Exit(2)
	}
	if *accountInput != "" && len(inputs) > 0 {
		fmt.Fprintln(os.Stderr, "--account-id cannot be combined with explicit case inputs")
		os.Exit(2)
	}

	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	indexName := *index
	if indexName == "" {
		indexName = cfg.Elasticsearch.IndexFor("case")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p := &pipeline.Pipeline{
		Exporter: export.NewWriter(cfg.Output.Dir, log),
		Logger:   log,
	}

	var reader *salesforce.CaseReader
	if !*validateOnly {
		sfClient, err := salesforce.NewClient(cfg.Salesforce, log)
		if err != nil {
			exitWithError(log, err)
		}
		reader = salesforce.NewCaseReader(sfClient, log)

		if !*jsonOnly {
			es, err := database.NewElasticsearch(cfg.Elasticsearch)
			if err != nil {
				exitWithError(log, err)
			}
			if err := es.Ping(); err != nil {
				exitWithError(log, err)
			}
			if err := es.EnsureIndex(ctx, indexName, "case"); err != nil {
				exitWithError(log, err)
			}
			p.ES = es
		}
	}

	stats, err := p.RunCases(ctx, reader, pipeline.CaseOptions{
		AccountInput: *accountInput,
		Inputs:       inputs,
		Filter: salesforce.CaseFilter{
			OpenOnly:   *openOnly,
			ClosedOnly: *closedOnly,
			Priority:   *priority,
			DateFrom:   *dateFrom,
			DateTo:     *dateTo,
			Limit:      *limit,
		},
		WithComments:    *withComments,
		Index:           indexName,
		JSONOnly:        *jsonOnly,
		ContinueOnError: *continueOnError,
		ValidateOnly:    *validateOnly,
		Export:          exportMode(*combinedJSON, *ndjson),
		OutputFile:      *outputFile,
	})
	if err != nil {
		log.Error("run failed", map[string]interface{}{"stats": stats.String()})
		exitWithError(log, err)
	}

	log.Info("run complete", map[string]interface{}{
		"processed": stats.Processed,
		"indexed":   stats.Indexed,
		"errorDocs": stats.ErrorDocs,
		"failed":    stats.Failed,
		"metrics":   metrics.Snapshot(),
	})
	if stats.Failed > 0 {
		os.Exit(1)
	}
}

func exportMode(combined, ndjson bool) pipeline.ExportMode {
	switch {
	case ndjson:
		return pipeline.ExportNDJSON
	case combined:
		return pipeline.ExportCombined
	default:
		return pipeline.ExportPerRecord
	}
}

// exitWithError prints actionable guidance when the failure carries it.
func exitWithError(log logger.Logger, err error) {
	log.Error(err.Error(), nil)

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Guidance != "" {
		fmt.Fprintf(os.Stderr, "\n%s\n", appErr.Guidance)
	}
	os.Exit(1)
}
