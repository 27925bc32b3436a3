// cmd/opportunity-indexer/main.go
//
// opportunity-indexer extracts Salesforce opportunities and indexes them into
// Elasticsearch, with currency normalization and JSON export.
//
//	opportunity-indexer <url-or-id> [<url-or-id>...]
//	opportunity-indexer --file urls.txt --continue-on-error
//	opportunity-indexer 006Vv00000IZaFx --json-only --combined-json
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"sf-indexer/internal/common/config"
	"sf-indexer/internal/common/database"
	apperrors "sf-indexer/internal/common/errors"
	"sf-indexer/internal/common/logger"
	"sf-indexer/internal/common/metrics"
	"sf-indexer/internal/currency"
	"sf-indexer/internal/export"
	"sf-indexer/internal/pipeline"
	"sf-indexer/internal/salesforce"
)

func main() {
	var (
		file            = pflag.String("file", "", "file with one record URL or ID per line")
		index           = pflag.String("index", "", "target Elasticsearch index (overrides config)")
		targetCurrency  = pflag.String("target-currency", "", "currency to normalize amounts into (overrides config)")
		jsonOnly        = pflag.Bool("json-only", false, "export JSON files only, skip Elasticsearch")
		continueOnError = pflag.Bool("continue-on-error", false, "keep processing after record-level failures")
		validateOnly    = pflag.Bool("validate-only", false, "validate inputs without fetching or indexing")
		combinedJSON    = pflag.Bool("combined-json", false, "write one combined export file instead of per-record files")
		ndjson          = pflag.Bool("ndjson", false, "write exports as newline-delimited JSON")
		outputFile      = pflag.String("output-file", "", "path for the combined export file")
		outputDir       = pflag.String("output-dir", "", "directory for export files (overrides config)")
		maxWorkers      = pflag.Int("max-workers", 4, "concurrent Salesforce fetches")
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
	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "usage: opportunity-indexer [flags] <url-or-id> [<url-or-id>...]")
		pflag.PrintDefaults()
		os.Exit(2)
	}

	if *targetCurrency != "" {
		cfg.Currency.TargetCurrency = *targetCurrency
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	indexName := *index
	if indexName == "" {
		indexName = cfg.Elasticsearch.IndexFor("opportunity")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p := &pipeline.Pipeline{
		Converter: currency.NewConverter(
			currency.NewAPIRateSource(cfg.Currency.RatesAPIURL, time.Duration(cfg.Currency.TimeoutMs)*time.Millisecond, log),
			log,
		),
		Exporter: export.NewWriter(cfg.Output.Dir, log),
		Logger:   log,
	}

	var reader *salesforce.OpportunityReader
	if !*validateOnly {
		sfClient, err := salesforce.NewClient(cfg.Salesforce, log)
		if err != nil {
			exitWithError(log, err)
		}
		reader = salesforce.NewOpportunityReader(sfClient, log)

		if !*jsonOnly {
			es, err := database.NewElasticsearch(cfg.Elasticsearch)
			if err != nil {
				exitWithError(log, err)
			}
			if err := es.Ping(); err != nil {
				exitWithError(log, err)
			}
			if err := es.EnsureIndex(ctx, indexName, "opportunity"); err != nil {
				exitWithError(log, err)
			}
			p.ES = es
		}
	}

	stats, err := p.RunOpportunities(ctx, reader, pipeline.OpportunityOptions{
		Inputs:          inputs,
		Index:           indexName,
		TargetCurrency:  cfg.Currency.TargetCurrency,
		JSONOnly:        *jsonOnly,
		ContinueOnError: *continueOnError,
		ValidateOnly:    *validateOnly,
		Export:          exportMode(*combinedJSON, *ndjson),
		OutputFile:      *outputFile,
		MaxWorkers:      *maxWorkers,
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
