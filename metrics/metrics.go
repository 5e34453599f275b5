// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the server.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ModerationActions *prometheus.CounterVec
	FlagsCreated      *prometheus.CounterVec
	FlagReviews       *prometheus.CounterVec
	RatingsSubmitted  prometheus.Counter
	ResultsDuration   prometheus.Histogram
	RequestDuration   *prometheus.HistogramVec
	RequestsInFlight  prometheus.Gauge
}

// New creates and registers all collectors on a fresh registry.
// conn may be nil; when set, connection pool gauges are exported.
func New(conn *sql.DB) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		ModerationActions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logovote_moderation_actions_total",
				Help: "Moderation actions by action type and outcome.",
			},
			[]string{"action", "outcome"},
		),

		FlagsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logovote_flags_created_total",
				Help: "Flags submitted, by flag type and outcome.",
			},
			[]string{"flag_type", "outcome"},
		),

		FlagReviews: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logovote_flag_reviews_total",
				Help: "Flag reviews by resulting status and outcome.",
			},
			[]string{"status", "outcome"},
		),

		RatingsSubmitted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "logovote_ratings_submitted_total",
				Help: "Individual option ratings stored.",
			},
		),

		ResultsDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "logovote_results_compute_duration_seconds",
				Help:    "Time spent loading ratings and computing results.",
				Buckets: prometheus.DefBuckets,
			},
		),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "logovote_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds, by route, method, and status.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),

		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "logovote_http_requests_in_flight",
				Help: "Number of HTTP requests currently being served.",
			},
		),
	}

	m.registry.MustRegister(
		m.ModerationActions,
		m.FlagsCreated,
		m.FlagReviews,
		m.RatingsSubmitted,
		m.ResultsDuration,
		m.RequestDuration,
		m.RequestsInFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if conn != nil {
		m.registry.MustRegister(collectors.NewDBStatsCollector(conn, "logovote"))
	}

	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

func (m *Metrics) ObserveAction(action, outcome string) {
	if m == nil {
		return
	}
	m.ModerationActions.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) ObserveFlag(flagType, outcome string) {
	if m == nil {
		return
	}
	m.FlagsCreated.WithLabelValues(flagType, outcome).Inc()
}

func (m *Metrics) ObserveReview(status, outcome string) {
	if m == nil {
		return
	}
	m.FlagReviews.WithLabelValues(status, outcome).Inc()
}

func (m *Metrics) AddRatings(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RatingsSubmitted.Add(float64(n))
}

func (m *Metrics) ObserveResults(seconds float64) {
	if m == nil {
		return
	}
	m.ResultsDuration.Observe(seconds)
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
