package metrics

import "github.com/prometheus/client_golang/prometheus"

// Aggregation run Prometheus metrics.
var (
	KeysTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "speechagg",
			Name:      "keys_total",
			Help:      "Aggregation keys processed, by outcome",
		},
		[]string{"dimension", "status"}, // status: ok / failed / abandoned
	)

	KeyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "speechagg",
			Name:      "key_duration_seconds",
			Help:      "Time to aggregate and persist one key",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"dimension"},
	)

	SpeechesScannedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "speechagg",
			Name:      "speeches_scanned_total",
			Help:      "Speech records decoded from the corpus",
		},
	)

	ScoresExcludedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "speechagg",
			Name:      "scores_excluded_total",
			Help:      "Topic scores that could not be parsed and were excluded",
		},
	)

	PersistRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "speechagg",
			Name:      "persist_retries_total",
			Help:      "Result writes retried after a failure",
		},
		[]string{"dimension"},
	)

	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "speechagg",
			Name:      "events_published_total",
			Help:      "Completion events published, by outcome",
		},
		[]string{"status"}, // "ok" / "error" / "skipped"
	)

	SummariesPrunedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "speechagg",
			Name:      "summaries_pruned_total",
			Help:      "Stored summaries deleted because their value left the corpus",
		},
		[]string{"dimension"},
	)

	DimensionKeys = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "speechagg",
			Name:      "dimension_keys",
			Help:      "Keys enumerated for the last run of a dimension",
		},
		[]string{"dimension"},
	)
)

var aggMetricsRegistered bool

// RegisterAggregationMetrics registers run metrics. Must be called once from main.
func RegisterAggregationMetrics() {
	if aggMetricsRegistered {
		return
	}
	prometheus.MustRegister(KeysTotal)
	prometheus.MustRegister(KeyDuration)
	prometheus.MustRegister(SpeechesScannedTotal)
	prometheus.MustRegister(ScoresExcludedTotal)
	prometheus.MustRegister(PersistRetriesTotal)
	prometheus.MustRegister(EventsPublishedTotal)
	prometheus.MustRegister(SummariesPrunedTotal)
	prometheus.MustRegister(DimensionKeys)
	aggMetricsRegistered = true
}
