// internal/export/export.go
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"sf-indexer/internal/common/logger"
)

// Writer persists extracted documents as JSON files, either one file per
// record or a single combined file with run metadata.
type Writer struct {
	dir    string
	logger logger.Logger
}

func NewWriter(dir string, log logger.Logger) *Writer {
	return &Writer{dir: dir, logger: log}
}

// ensureDir creates the output directory on first use.
func (w *Writer) ensureDir() error {
	if w.dir == "" {
		w.dir = "exports"
	}
	return os.MkdirAll(w.dir, 0o755)
}

// WriteRecord writes one document to <dir>/<entity>_<id>_<timestamp>.json
// and returns the file path.
func (w *Writer) WriteRecord(entity, id string, doc interface{}) (string, error) {
	if err := w.ensureDir(); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s.json", entity, id, time.Now().UTC().Format("20060102T150405Z"))
	path := filepath.Join(w.dir, name)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal %s %s: %w", entity, id, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	w.logger.Info("wrote export file", map[string]interface{}{"path": path})
	return path, nil
}

// RunMetadata describes one export run in a combined file.
type RunMetadata struct {
	RunID       string `json:"run_id"`
	Entity      string `json:"entity"`
	GeneratedAt string `json:"generated_at"`
	Count       int    `json:"count"`
}

// combinedExport is the on-disk shape of a combined export file.
type combinedExport struct {
	Metadata  RunMetadata   `json:"metadata"`
	Documents []interface{} `json:"documents"`
}

// WriteCombined writes all documents of a run into a single file, prefixed
// with run metadata, and returns the file path. When path is empty a name is
// derived from the entity and the run ID.
func (w *Writer) WriteCombined(entity, path string, docs []interface{}) (string, error) {
	if err := w.ensureDir(); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	runID := uuid.New().String()
	if path == "" {
		path = filepath.Join(w.dir, fmt.Sprintf("%s_export_%s.json", entity, runID[:8]))
	}

	out := combinedExport{
		Metadata: RunMetadata{
			RunID:       runID,
			Entity:      entity,
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			Count:       len(docs),
		},
		Documents: docs,
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal combined export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	w.logger.Info("wrote combined export", map[string]interface{}{
		"path":  path,
		"runId": runID,
		"count": len(docs),
	})
	return path, nil
}

// WriteNDJSON streams documents one JSON object per line, the shape the
// Elasticsearch bulk API and most log shippers ingest directly. When path is
// empty a name is derived from the entity.
func (w *Writer) WriteNDJSON(entity, path string, docs []interface{}) (string, error) {
	if err := w.ensureDir(); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	if path == "" {
		path = filepath.Join(w.dir, fmt.Sprintf("%s_export_%s.ndjson", entity, time.Now().UTC().Format("20060102T150405Z")))
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			return "", fmt.Errorf("encode document: %w", err)
		}
	}

	w.logger.Info("wrote NDJSON export", map[string]interface{}{"path": path, "count": len(docs)})
	return path, nil
}
