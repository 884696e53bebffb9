package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collection-layer Prometheus metrics: ingest throughput, search fan-out
// shape, and per-shard latency.
var (
	IngestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexidex",
			Name:      "ingest_total",
			Help:      "Total number of Add calls",
		},
		[]string{"collection", "status"},
	)

	IngestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lexidex",
			Name:      "ingest_duration_seconds",
			Help:      "Add call duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		},
		[]string{"collection"},
	)

	SearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexidex",
			Name:      "search_total",
			Help:      "Total number of Search calls",
		},
		[]string{"collection", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lexidex",
			Name:      "search_duration_seconds",
			Help:      "Search call duration in seconds, including shard fan-out and hydration",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"collection"},
	)

	ShardSearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lexidex",
			Name:      "shard_search_duration_seconds",
			Help:      "Per-shard search call duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
		[]string{"collection", "shard"},
	)

	ShardDocuments = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "lexidex",
			Name:      "shard_documents",
			Help:      "Live document count per shard",
		},
		[]string{"collection", "shard"},
	)
)

var collectionMetricsRegistered bool

// RegisterCollectionMetrics registers the collection-layer Prometheus
// metrics. Must be called once from main.
func RegisterCollectionMetrics() {
	if collectionMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestTotal)
	prometheus.MustRegister(IngestDuration)
	prometheus.MustRegister(SearchTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(ShardSearchDuration)
	prometheus.MustRegister(ShardDocuments)
	collectionMetricsRegistered = true
}
