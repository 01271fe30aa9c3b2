package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "knapsack"

// PrometheusHooks implements SolverHooks, CacheHooks and HTTPHooks by
// recording into Prometheus collectors. All methods are safe for
// concurrent use.
type PrometheusHooks struct {
	// SolvesTotal counts finished solves.
	// Labels: method (dp, bnb, greedy), status (ok, error)
	SolvesTotal *prometheus.CounterVec

	// SolveDuration measures solver wall time.
	// Labels: method
	SolveDuration *prometheus.HistogramVec

	// AbortedTotal counts DP requests declined at the memory check.
	AbortedTotal prometheus.Counter

	// ActiveSolves is the number of solves in flight.
	ActiveSolves prometheus.Gauge

	// CacheEventsTotal counts cache lookups and writes.
	// Labels: key_type, event (hit, miss, set)
	CacheEventsTotal *prometheus.CounterVec

	// RequestsTotal counts API responses.
	// Labels: method, route, code
	RequestsTotal *prometheus.CounterVec

	// RequestDuration measures API latency.
	// Labels: method, route
	RequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewPrometheusHooks registers the collectors with reg. A nil reg uses a
// fresh registry, which keeps tests independent of the global one.
func NewPrometheusHooks(reg *prometheus.Registry) *PrometheusHooks {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &PrometheusHooks{
		registry: reg,
		SolvesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "solves_total",
			Help:      "Finished solves by method and status",
		}, []string{"method", "status"}),
		SolveDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "solve_duration_seconds",
			Help:      "Solver wall time in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 12), // 0.1ms to ~7min
		}, []string{"method"}),
		AbortedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "aborted_total",
			Help:      "DP requests declined at the memory check",
		}),
		ActiveSolves: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "active_solves",
			Help:      "Solves currently running",
		}),
		CacheEventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_events_total",
			Help:      "Cache hits, misses and writes by key type",
		}, []string{"key_type", "event"}),
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "API responses by method, route and status code",
		}, []string{"method", "route", "code"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "API request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Register installs h as the solver, cache and HTTP hooks.
func (h *PrometheusHooks) Register() {
	SetSolverHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

// Handler serves the collected metrics in the Prometheus exposition format.
func (h *PrometheusHooks) Handler() http.Handler {
	return promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the collected metrics to path for the node_exporter
// textfile collector. The file is replaced atomically.
func (h *PrometheusHooks) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, h.registry)
}

func (h *PrometheusHooks) OnSolveStart(context.Context, string, int, int64) {
	h.ActiveSolves.Inc()
}

func (h *PrometheusHooks) OnSolveComplete(_ context.Context, method string, _ int64, d time.Duration, err error) {
	h.ActiveSolves.Dec()
	status := "ok"
	if err != nil {
		status = "error"
	}
	h.SolvesTotal.WithLabelValues(method, status).Inc()
	h.SolveDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (h *PrometheusHooks) OnAborted(context.Context, string, uint64) {
	h.AbortedTotal.Inc()
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.CacheEventsTotal.WithLabelValues(keyType, "hit").Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.CacheEventsTotal.WithLabelValues(keyType, "miss").Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, _ int) {
	h.CacheEventsTotal.WithLabelValues(keyType, "set").Inc()
}

func (h *PrometheusHooks) OnRequest(context.Context, string, string) {}

func (h *PrometheusHooks) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	h.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	h.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (h *PrometheusHooks) OnError(context.Context, string, string, error) {}

var (
	_ SolverHooks = (*PrometheusHooks)(nil)
	_ CacheHooks  = (*PrometheusHooks)(nil)
	_ HTTPHooks   = (*PrometheusHooks)(nil)
)
