package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	readyGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "service_ready",
		Help: "1 when the service considers itself ready to serve traffic.",
	})

	loginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Login attempts by outcome.",
		},
		[]string{"outcome"},
	)

	authDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_denials_total",
			Help: "Authorization denials by gate (role, permission, policy).",
		},
		[]string{"gate"},
	)

	resetTokensIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_reset_tokens_issued_total",
		Help: "Password reset tokens issued.",
	})

	resetTokensConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_reset_tokens_consumed_total",
			Help: "Password reset consumption attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

// Init registers all metrics in the default registry. Call once from main.
func Init() {
	prometheus.MustRegister(
		httpInFlight,
		httpRequestsTotal,
		httpRequestDuration,
		readyGauge,
		loginAttempts,
		authDenials,
		resetTokensIssued,
		resetTokensConsumed,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetReady flips the readiness gauge.
func SetReady(ready bool) {
	if ready {
		readyGauge.Set(1)
		return
	}
	readyGauge.Set(0)
}

// CountLogin records a login attempt outcome ("success", "invalid", "error").
func CountLogin(outcome string) {
	loginAttempts.WithLabelValues(outcome).Inc()
}

// CountDenial records an authorization denial for the given gate.
func CountDenial(gate string) {
	authDenials.WithLabelValues(gate).Inc()
}

// CountResetIssued records a password reset token issuance.
func CountResetIssued() {
	resetTokensIssued.Inc()
}

// CountResetConsumed records a reset consumption outcome.
func CountResetConsumed(outcome string) {
	resetTokensConsumed.WithLabelValues(outcome).Inc()
}

// CanonicalPath collapses identifier segments so metric cardinality stays
// bounded regardless of how many documents or users exist.
func CanonicalPath(path string) string {
	if path == "" {
		return "/"
	}
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path = path[:idx]
	}
	parts := strings.Split(path, "/")
	if len(parts) == 3 && parts[1] == "documents" && parts[2] != "" {
		return "/documents/:id"
	}
	return path
}

// Instrument wraps an http.Handler with RPS, latency and in-flight metrics.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
