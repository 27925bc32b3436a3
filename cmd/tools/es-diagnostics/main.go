// cmd/tools/es-diagnostics/main.go
//
// es-diagnostics checks connectivity and authentication against the
// configured Elasticsearch cluster and reports the state of the indices the
// indexers write to.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/pflag"

	"sf-indexer/internal/common/config"
	"sf-indexer/internal/common/database"
	apperrors "sf-indexer/internal/common/errors"
)

func main() {
	var (
		indices    = pflag.StringSlice("index", nil, "indices to inspect (default: the configured indexer indices)")
		smokeTest  = pflag.Bool("smoke-test", false, "bulk-write and delete a document in a scratch index")
		jsonOutput = pflag.Bool("json", false, "machine-readable output")
	)
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	es, err := database.NewElasticsearch(cfg.Elasticsearch)
	if err != nil {
		fail(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := es.Ping(); err != nil {
		fail(err)
	}

	info, err := es.Info(ctx)
	if err != nil {
		fail(err)
	}

	targets := *indices
	if len(targets) == 0 {
		targets = []string{
			cfg.Elasticsearch.IndexFor("opportunity"),
			cfg.Elasticsearch.IndexFor("case"),
		}
	}

	report := struct {
		ClusterName string           `json:"cluster_name"`
		Version     string           `json:"version"`
		AuthMethod  string           `json:"auth_method"`
		Indices     map[string]int64 `json:"indices"`
	}{
		ClusterName: info.ClusterName,
		Version:     info.Version.Number,
		AuthMethod:  string(cfg.Elasticsearch.AuthMethod),
		Indices:     map[string]int64{},
	}

	for _, index := range targets {
		count, err := docCount(ctx, es, index)
		if err != nil {
			report.Indices[index] = -1
			continue
		}
		report.Indices[index] = count
	}

	if *smokeTest {
		if err := runSmokeTest(ctx, es); err != nil {
			fail(err)
		}
	}

	if *jsonOutput {
		out, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(out))
		return
	}

	fmt.Printf("cluster:     %s (v%s)\n", report.ClusterName, report.Version)
	fmt.Printf("auth method: %s\n", report.AuthMethod)
	for _, index := range targets {
		count := report.Indices[index]
		if count < 0 {
			fmt.Printf("index %-30s missing\n", index)
			continue
		}
		fmt.Printf("index %-30s %d documents\n", index, count)
	}
	if *smokeTest {
		fmt.Println("bulk smoke test: ok")
	}
}

// runSmokeTest round-trips one document through the bulk API in a scratch
// index, then removes the index.
func runSmokeTest(ctx context.Context, es *database.ElasticsearchClient) error {
	const scratch = "sf-indexer-diagnostics"

	result, err := es.IndexOne(ctx, scratch, "smoke", map[string]interface{}{"source": "diagnostics"})
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("smoke document rejected: %+v", result.Errors[0])
	}

	res, err := es.Client.Indices.Delete(
		[]string{scratch},
		es.Client.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete scratch index: %w", err)
	}
	res.Body.Close()
	return nil
}

// docCount returns the document count of an index, or an error when the
// index does not exist.
func docCount(ctx context.Context, es *database.ElasticsearchClient, index string) (int64, error) {
	res, err := es.Client.Count(
		es.Client.Count.WithContext(ctx),
		es.Client.Count.WithIndex(index),
	)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, fmt.Errorf("count returned %s", res.Status())
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, err
	}
	var parsed struct {
		Count int64 `json:"count"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, err
	}
	return parsed.Count, nil
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Guidance != "" {
		fmt.Fprintf(os.Stderr, "%s\n", appErr.Guidance)
	}
	os.Exit(1)
}
