package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Contact metrics
	contactSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Total number of stored contact form submissions",
		},
		[]string{"email_sent"}, // true, false
	)

	contactValidationFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "contact_validation_failures_total",
			Help: "Total number of rejected contact form submissions",
		},
	)

	// Resend metrics
	resendSweepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resend_sweeps_total",
			Help: "Total number of resend sweeps by outcome",
		},
		[]string{"outcome"}, // completed, locked, error
	)

	resendEmailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resend_emails_total",
			Help: "Total number of follow-up emails by result",
		},
		[]string{"result"}, // sent, failed, skipped
	)

	resendSweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resend_sweep_duration_seconds",
			Help:    "Resend sweep duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)
)

// Sweep outcomes.
const (
	SweepCompleted = "completed"
	SweepLocked    = "locked"
	SweepError     = "error"
)

// PrometheusMiddleware records request counts and latency labelled by the
// matched chi route pattern, so path parameters never explode cardinality.
func PrometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}

		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// responseWriter captures the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RecordContactSubmission records a stored submission.
func RecordContactSubmission(emailSent bool) {
	contactSubmissionsTotal.WithLabelValues(strconv.FormatBool(emailSent)).Inc()
}

// RecordValidationFailure records a rejected submission.
func RecordValidationFailure() {
	contactValidationFailuresTotal.Inc()
}

// RecordSweep records a finished sweep and its per-record counts.
func RecordSweep(sent, failed, skipped int, duration time.Duration) {
	resendSweepsTotal.WithLabelValues(SweepCompleted).Inc()
	resendEmailsTotal.WithLabelValues("sent").Add(float64(sent))
	resendEmailsTotal.WithLabelValues("failed").Add(float64(failed))
	resendEmailsTotal.WithLabelValues("skipped").Add(float64(skipped))
	resendSweepDuration.Observe(duration.Seconds())
}

// RecordSweepNotRun records a sweep that did not run, with outcome
// SweepLocked or SweepError.
func RecordSweepNotRun(outcome string) {
	resendSweepsTotal.WithLabelValues(outcome).Inc()
}
