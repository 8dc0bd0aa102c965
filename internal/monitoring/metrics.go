package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for the service. A custom
// registry keeps the default Go collectors out of the scrape output.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	predictionsTotal  *prometheus.CounterVec
	predictionLatency prometheus.Histogram
	completionsTotal  *prometheus.CounterVec

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	storeWriteFailures prometheus.Counter
	rateLimitBlocks    *prometheus.CounterVec
}

// NewMetrics creates and registers the service instruments.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roadrank",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),

		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "roadrank",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by path.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		predictionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roadrank",
			Name:      "predictions_total",
			Help:      "Scoring pipeline runs by resulting category.",
		}, []string{"category"}),

		predictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "roadrank",
			Name:      "prediction_duration_seconds",
			Help:      "End to end scoring pipeline latency.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),

		completionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roadrank",
			Name:      "task_completions_total",
			Help:      "Accepted task completions by task.",
		}, []string{"task_id"}),

		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "roadrank",
			Name:      "cache_hits_total",
			Help:      "Prediction cache hits.",
		}),

		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "roadrank",
			Name:      "cache_misses_total",
			Help:      "Prediction cache misses.",
		}),

		storeWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "roadrank",
			Name:      "store_write_failures_total",
			Help:      "Failed appends to the record store.",
		}),

		rateLimitBlocks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roadrank",
			Name:      "rate_limit_blocks_total",
			Help:      "Requests rejected by rate limiting, by scope.",
		}, []string{"scope"}),
	}
}

// Handler returns the /metrics scrape handler for the custom registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one finished HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordPrediction records one pipeline run.
func (m *Metrics) RecordPrediction(category string, duration time.Duration) {
	m.predictionsTotal.WithLabelValues(category).Inc()
	m.predictionLatency.Observe(duration.Seconds())
}

// RecordCompletion records one accepted task completion.
func (m *Metrics) RecordCompletion(taskID string) {
	m.completionsTotal.WithLabelValues(taskID).Inc()
}

// IncrementCacheHit records a prediction cache hit.
func (m *Metrics) IncrementCacheHit() { m.cacheHits.Inc() }

// IncrementCacheMiss records a prediction cache miss.
func (m *Metrics) IncrementCacheMiss() { m.cacheMisses.Inc() }

// IncrementStoreWriteFailure records a failed record store append.
func (m *Metrics) IncrementStoreWriteFailure() { m.storeWriteFailures.Inc() }

// IncrementRateLimitBlock records a rejected request; scope is "ip" or
// "driver".
func (m *Metrics) IncrementRateLimitBlock(scope string) {
	m.rateLimitBlocks.WithLabelValues(scope).Inc()
}
