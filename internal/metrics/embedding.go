package metrics

import "github.com/prometheus/client_golang/prometheus"

// Embedding Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsvec",
			Name:      "embedding_requests_total",
			Help:      "Embedding attempts per tier",
		},
		[]string{"backend", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "newsvec",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding attempt duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"backend"},
	)

	EmbeddingFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsvec",
			Name:      "embedding_fallbacks_total",
			Help:      "Times a tier failed and the next one was tried",
		},
		[]string{"from"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsvec",
			Name:      "embedding_tokens_total",
			Help:      "Remote embedding tokens consumed",
		},
		[]string{"type"},
	)

	EmbeddingQuotaTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "newsvec",
			Name:      "embedding_quota_tokens_remaining",
			Help:      "Remaining remote token quota",
		},
		[]string{"period"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsvec",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

func embeddingCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		EmbeddingFallbacksTotal,
		EmbeddingTokensTotal,
		EmbeddingQuotaTokensRemaining,
		EmbeddingCacheTotal,
	}
}
