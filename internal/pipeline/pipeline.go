// internal/pipeline/pipeline.go
package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"sf-indexer/internal/common/database"
	"sf-indexer/internal/common/logger"
	"sf-indexer/internal/currency"
	"sf-indexer/internal/export"
)

// Stats summarizes one indexing run.
type Stats struct {
	Processed int // inputs handled
	Indexed   int // documents accepted by the bulk API
	ErrorDocs int // synthesized error documents (counted within Indexed too)
	Failed    int // inputs that produced nothing indexable
}

func (s Stats) String() string {
	return fmt.Sprintf("processed=%d indexed=%d errorDocs=%d failed=%d",
		s.Processed, s.Indexed, s.ErrorDocs, s.Failed)
}

// Pipeline wires the extraction stages together. The Elasticsearch client is
// nil in JSON-only runs.
type Pipeline struct {
	ES        *database.ElasticsearchClient
	Converter *currency.Converter
	Exporter  *export.Writer
	Logger    logger.Logger
}

// ReadInputFile loads record URLs or IDs from a file, one per line. Blank
// lines and #-comments are skipped.
func ReadInputFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	var inputs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		inputs = append(inputs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}
	return inputs, nil
}
