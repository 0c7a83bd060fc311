package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aura",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aura",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	// Chat turns by outcome
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aura",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total chat turns by outcome",
		},
		[]string{"outcome"},
	)

	// Completion latency
	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aura",
			Subsystem: "chat",
			Name:      "completion_duration_seconds",
			Help:      "Completion endpoint latency in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"status"},
	)

	RateLimitRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aura",
			Subsystem: "chat",
			Name:      "rate_limit_rejections_total",
			Help:      "Total turns rejected by the rate limiter",
		},
	)

	PersistenceFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aura",
			Subsystem: "chat",
			Name:      "persistence_failures_total",
			Help:      "Total conversation windows that failed to persist",
		},
	)

	// Rate limit records evicted by the sweeper
	RateLimitSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aura",
			Subsystem: "ratelimit",
			Name:      "swept_records_total",
			Help:      "Total expired rate limit records evicted from memory",
		},
	)
)

// Handler returns the Prometheus metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordTurn records the outcome of a chat turn
func RecordTurn(outcome string) {
	TurnsTotal.WithLabelValues(outcome).Inc()
}

// RecordCompletion records completion endpoint latency
func RecordCompletion(status string, durationSec float64) {
	CompletionDuration.WithLabelValues(status).Observe(durationSec)
}

// RecordRateLimited records a rate limit rejection
func RecordRateLimited() {
	RateLimitRejectionsTotal.Inc()
}

// RecordPersistenceFailure records a failed conversation write
func RecordPersistenceFailure() {
	PersistenceFailuresTotal.Inc()
}

// RecordSwept records evicted rate limit records
func RecordSwept(n int) {
	RateLimitSweptTotal.Add(float64(n))
}
