package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sid-reconciliation-service/internal/reconciler"
)

// Metrics holds the collectors of one server on its own registry
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	runs         *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	identifiers  *prometheus.CounterVec
	matchPercent *prometheus.GaugeVec
}

// NewMetrics registers the server collectors plus the Go and process collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sid_reconciler",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sid_reconciler",
			Name:      "runs_total",
			Help:      "Reconciliation runs by mode and outcome.",
		}, []string{"mode", "outcome"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sid_reconciler",
			Name:      "run_duration_seconds",
			Help:      "Duration of reconciliation runs including upload parsing.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		identifiers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sid_reconciler",
			Name:      "identifiers_total",
			Help:      "Classified identifiers by mode and status.",
		}, []string{"mode", "status"}),
		matchPercent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sid_reconciler",
			Name:      "last_match_percentage",
			Help:      "Aggregate match percentage of the most recent successful run.",
		}, []string{"mode"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.runs,
		m.runDuration,
		m.identifiers,
		m.matchPercent,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRun records the outcome of one run. result is nil for failed runs.
func (m *Metrics) ObserveRun(mode string, started time.Time, result *reconciler.ReconciliationResult, err error) {
	if mode == "" {
		mode = "unknown"
	}
	m.runDuration.WithLabelValues(mode).Observe(time.Since(started).Seconds())

	if err != nil || result == nil {
		m.runs.WithLabelValues(mode, "error").Inc()
		return
	}
	m.runs.WithLabelValues(mode, "success").Inc()
	m.identifiers.WithLabelValues(mode, "matched").Add(float64(result.Totals.MatchedCount))
	m.identifiers.WithLabelValues(mode, "pending").Add(float64(result.Totals.PendingCount))
	m.matchPercent.WithLabelValues(mode).Set(result.Totals.MatchPercentage.InexactFloat64())
}

// instrument counts requests by their chi route pattern
func (m *Metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
	})
}
