package metrics

import "github.com/prometheus/client_golang/prometheus"

// Embedding and search engine Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agridex",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "agridex",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agridex",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agridex",
			Name:      "embedding_errors_total",
			Help:      "Total embedding errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agridex",
			Name:      "search_requests_total",
			Help:      "Total searches by effective method",
		},
		[]string{"method"}, // hybrid / vector / keyword / empty
	)

	SearchDegradationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agridex",
			Name:      "search_degradations_total",
			Help:      "Searches that lost a retrieval channel",
		},
		[]string{"channel", "reason"}, // keyword/vector x index_missing/timeout/upstream
	)

	KnowledgeEntriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "agridex",
			Name:      "knowledge_entries_total",
			Help:      "Knowledge entries synthesized from ingested records",
		},
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers the engine metrics. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingTokensTotal)
	prometheus.MustRegister(EmbeddingErrorsTotal)
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDegradationsTotal)
	prometheus.MustRegister(KnowledgeEntriesTotal)
	engineMetricsRegistered = true
}
