package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// AuthOutcomes counts register/login results (created, conflict, authenticated, rejected, invalid, error).
	AuthOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_outcomes_total",
			Help: "Total number of registration and login attempts by outcome",
		},
		[]string{"operation", "outcome"},
	)

	// StoreConnectAttempts counts individual database connection attempts by result (success, failure).
	StoreConnectAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_connect_attempts_total",
			Help: "Total number of database connection attempts by result",
		},
		[]string{"result"},
	)

	// StoreUp is 1 when the last health check reached the store, 0 otherwise.
	StoreUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "store_up",
			Help: "Whether the last health check reached the database",
		},
	)
)

func init() {
	prometheus.MustRegister(RequestDuration, RequestTotal, AuthOutcomes, StoreConnectAttempts, StoreUp)
}

// knownPaths bounds label cardinality; anything else is recorded as "other".
var knownPaths = map[string]bool{
	"/register": true,
	"/login":    true,
	"/health":   true,
	"/ready":    true,
}

// NormalizePath maps unrouted paths to a single label value.
func NormalizePath(path string) string {
	if knownPaths[path] {
		return path
	}
	return "other"
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// IncAuthOutcome increments the outcome counter for "register" or "login".
func IncAuthOutcome(operation, outcome string) {
	AuthOutcomes.WithLabelValues(operation, outcome).Inc()
}

// IncStoreConnectAttempts increments the connection attempt counter for the given result.
func IncStoreConnectAttempts(result string) {
	StoreConnectAttempts.WithLabelValues(result).Inc()
}

// SetStoreUp records the latest store reachability.
func SetStoreUp(up bool) {
	if up {
		StoreUp.Set(1)
		return
	}
	StoreUp.Set(0)
}
