package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GateDecisions counts quota gate outcomes (allowed, monthly_quota, burst_limit, fail_open).
	GateDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clarifier",
		Name:      "gate_decisions_total",
		Help:      "Quota gate decisions by outcome.",
	}, []string{"outcome"})

	// GenerationDuration tracks generation provider latency.
	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "clarifier",
		Name:      "generation_duration_seconds",
		Help:      "Generation provider call duration in seconds.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
	})

	// GenerationErrors counts orchestration failures by kind.
	GenerationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clarifier",
		Name:      "generation_errors_total",
		Help:      "Clarification failures by kind.",
	}, []string{"kind"})

	// RecorderEvents counts usage recorder outcomes.
	RecorderEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clarifier",
		Name:      "recorder_events_total",
		Help:      "Usage recorder events (incremented, increment_failed, persisted, persistence_degraded, dropped).",
	}, []string{"event"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clarifier",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"route", "status"})
)
