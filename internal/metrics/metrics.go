// Package metrics exposes Prometheus metrics for scoring cycles, engine
// outputs and the HTTP API.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/snowcore/pdm-cli/internal/decision"
	"github.com/snowcore/pdm-cli/internal/model"
)

// Registry holds all metrics for the application.
type Registry struct {
	// Scoring cycle metrics
	CyclesTotal   *prometheus.CounterVec
	CycleDuration prometheus.Histogram
	CycleRetries  prometheus.Counter
	FallbackTotal prometheus.Counter

	// Engine output metrics
	Decisions         *prometheus.GaugeVec
	ExpectedLossTotal prometheus.Gauge
	NetBenefitTotal   prometheus.Gauge
	AssetImpact       *prometheus.GaugeVec
	DangerBuckets     prometheus.Gauge

	// Alert metrics
	AlertsTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
	mu       sync.Mutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with every metric initialized.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{registry: reg}
	f := promauto.With(reg)

	r.CyclesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdm_scoring_cycles_total",
			Help: "Total number of scoring cycles",
		},
		[]string{"status"}, // complete, failed
	)
	r.CycleDuration = f.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pdm_scoring_cycle_duration_seconds",
			Help:    "Duration of scoring cycles in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
	)
	r.CycleRetries = f.NewCounter(
		prometheus.CounterOpts{
			Name: "pdm_scoring_cycle_retries_total",
			Help: "Input loads retried after a transient store error",
		},
	)
	r.FallbackTotal = f.NewCounter(
		prometheus.CounterOpts{
			Name: "pdm_scoring_fallback_total",
			Help: "Scoring cycles that used the reference cost table",
		},
	)

	r.Decisions = f.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pdm_decisions",
			Help: "Assets per recommendation in the latest cycle",
		},
		[]string{"recommendation"},
	)
	r.ExpectedLossTotal = f.NewGauge(
		prometheus.GaugeOpts{
			Name: "pdm_expected_loss_usd",
			Help: "Expected unplanned cost over assets where PM pays off",
		},
	)
	r.NetBenefitTotal = f.NewGauge(
		prometheus.GaugeOpts{
			Name: "pdm_net_benefit_usd",
			Help: "Total net benefit of recommended PM",
		},
	)
	r.AssetImpact = f.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pdm_asset_impact",
			Help: "Propagated anomaly impact score per asset",
		},
		[]string{"asset_id"},
	)
	r.DangerBuckets = f.NewGauge(
		prometheus.GaugeOpts{
			Name: "pdm_correlation_danger_buckets",
			Help: "Correlation buckets currently flagged as danger zones",
		},
	)

	r.AlertsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdm_alerts_total",
			Help: "Maintenance alerts by type and delivery outcome",
		},
		[]string{"type", "outcome"}, // sent, failed
	)

	r.HTTPRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdm_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	r.HTTPRequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pdm_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// RecordCycle records a finished scoring cycle.
func (r *Registry) RecordCycle(status model.CycleStatus, duration time.Duration, fallback bool) {
	r.CyclesTotal.WithLabelValues(string(status)).Inc()
	r.CycleDuration.Observe(duration.Seconds())
	if fallback {
		r.FallbackTotal.Inc()
	}
}

// RecordResult publishes the engine outputs of a completed cycle. Gauges are
// reset first so assets dropped from the topology disappear.
func (r *Registry) RecordResult(c *model.CycleResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := decision.Summarize(c.Decisions)
	r.Decisions.WithLabelValues(string(model.RecommendationUrgent)).Set(float64(s.Urgent))
	r.Decisions.WithLabelValues(string(model.RecommendationPlanPM)).Set(float64(s.PlanPM))
	r.Decisions.WithLabelValues(string(model.RecommendationMonitor)).Set(float64(s.Monitor))
	r.ExpectedLossTotal.Set(s.TotalExpectedLoss)
	r.NetBenefitTotal.Set(s.TotalNetBenefit)

	r.AssetImpact.Reset()
	for _, st := range c.States {
		r.AssetImpact.WithLabelValues(st.AssetID).Set(st.Impact)
	}

	danger := 0
	for _, b := range c.Buckets {
		if b.Danger {
			danger++
		}
	}
	r.DangerBuckets.Set(float64(danger))
}

// RecordAlert counts one alert delivery attempt.
func (r *Registry) RecordAlert(alertType string, sent bool) {
	outcome := "sent"
	if !sent {
		outcome = "failed"
	}
	r.AlertsTotal.WithLabelValues(alertType, outcome).Inc()
}

// RecordHTTPRequest records an HTTP request with its duration.
func (r *Registry) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
