package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search, dedup and ingestion metrics.
var (
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "newsvec",
			Name:      "search_duration_seconds",
			Help:      "Similarity search duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"kind"}, // "text" / "similar"
	)

	SearchResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "newsvec",
			Name:      "search_results",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		},
		[]string{"kind"},
	)

	DedupVerdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsvec",
			Name:      "dedup_verdicts_total",
			Help:      "Duplicate checks by verdict",
		},
		[]string{"verdict"}, // "exact" / "semantic" / "unique"
	)

	IngestItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsvec",
			Name:      "ingest_items_total",
			Help:      "Ingested items by outcome",
		},
		[]string{"status"},
	)
)

var registerOnce sync.Once

// Register registers the domain metrics with the default registry.
// Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		for _, c := range embeddingCollectors() {
			prometheus.MustRegister(c)
		}
		prometheus.MustRegister(SearchDuration, SearchResults, DedupVerdictsTotal, IngestItemsTotal)
	})
}
