// internal/common/metrics/metrics.go
package metrics

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sf_records_processed_total",
			Help: "Total number of Salesforce records processed",
		},
		[]string{"entity"},
	)

	DocumentsIndexed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "es_documents_indexed_total",
			Help: "Total number of documents successfully indexed into Elasticsearch",
		},
		[]string{"index"},
	)

	DocumentsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "es_documents_failed_total",
			Help: "Total number of documents rejected by Elasticsearch",
		},
		[]string{"index"},
	)

	ErrorDocuments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sf_error_documents_total",
			Help: "Total number of error documents synthesized for missing or failed records",
		},
		[]string{"entity", "error_status"},
	)

	RateFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "currency_rate_fetches_total",
			Help: "Currency rate table resolutions by source",
		},
		[]string{"source"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "sf_fetch_duration_seconds",
			Help: "Duration of Salesforce record fetches in seconds",
		},
		[]string{"entity"},
	)
)

// Snapshot gathers the tool's own metric families from the default registry
// so a batch run can report them before the process exits. Runtime collectors
// (go_*, process_*) are skipped.
func Snapshot() map[string]float64 {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return nil
	}

	out := make(map[string]float64)
	for _, mf := range families {
		if !ownMetric(mf.GetName()) {
			continue
		}
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			if labels := m.GetLabel(); len(labels) > 0 {
				pairs := make([]string, 0, len(labels))
				for _, lp := range labels {
					pairs = append(pairs, fmt.Sprintf("%s=%s", lp.GetName(), lp.GetValue()))
				}
				key += "{" + strings.Join(pairs, ",") + "}"
			}
			switch {
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[key] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				out[key+"_count"] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}

func ownMetric(name string) bool {
	for _, prefix := range []string{"sf_", "es_", "currency_"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
