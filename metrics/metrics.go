// Package metrics provides Prometheus metrics for the formulary engine:
// HTTP request metrics plus engine counters for question resolution,
// response caching, retrieval latency, and corpus size.
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	QuestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formulary_questions_total",
			Help: "Questions answered, by resolution outcome (validated, unresolved, comparison)",
		},
		[]string{"outcome"},
	)

	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "formulary_cache_hits_total",
			Help: "Response cache hits",
		},
	)

	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "formulary_cache_misses_total",
			Help: "Response cache misses",
		},
	)

	RetrievalDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "formulary_retrieval_duration_seconds",
			Help:    "Latency of one merged retrieval (all expanded queries)",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	ClassifierFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "formulary_classifier_failures_total",
			Help: "Classifier collaborator calls that failed or timed out",
		},
	)

	CorpusDrugs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "formulary_corpus_drugs",
			Help: "Drug entries in the current corpus build",
		},
	)

	CorpusChunks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "formulary_corpus_chunks",
			Help: "Retrievable chunks in the current corpus build",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(QuestionsTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(RetrievalDuration)
	prometheus.MustRegister(ClassifierFailuresTotal)
	prometheus.MustRegister(CorpusDrugs)
	prometheus.MustRegister(CorpusChunks)
}
