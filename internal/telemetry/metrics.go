package telemetry

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	httpDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// ConfigureBatches counts configure commands by outcome: applied, rejected, failed.
	ConfigureBatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "configure_batches_total",
			Help: "Configure commands handled, by outcome",
		},
		[]string{"outcome"},
	)
	// ConfigureActions counts applied actions by operation: set, remove.
	ConfigureActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "configure_actions_total",
			Help: "Experiment actions applied by configure commands, by operation",
		},
		[]string{"op"},
	)
	// WebhookDeliveries counts webhook events by outcome: delivered, failed, dropped.
	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "Webhook event deliveries, by outcome",
		},
		[]string{"outcome"},
	)
)

// Outcome labels. Failed is shared by configure batches and webhook deliveries.
const (
	OutcomeApplied   = "applied"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
	OutcomeDelivered = "delivered"
	OutcomeDropped   = "dropped"
)

var registerOnce sync.Once

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpReqs, httpDur, ConfigureBatches, ConfigureActions, WebhookDeliveries)
	})
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		// the route pattern is only known once chi has routed the request
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		httpReqs.WithLabelValues(route, r.Method, http.StatusText(ww.status)).Inc()
		httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer, e.g. to flush.
func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
