package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine metrics exposed on /metrics
var (
	TrainingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "service_desk_insights_training_runs_total",
			Help: "Total number of baseline training runs",
		},
		[]string{"result"}, // trained, failed
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "service_desk_insights_training_duration_seconds",
			Help:    "Baseline training duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
	)

	BaselineTicketsAnalyzed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "service_desk_insights_baseline_tickets_analyzed",
			Help: "Number of tickets in the current baseline",
		},
	)

	AnomaliesDetectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "service_desk_insights_anomalies_detected_total",
			Help: "Total number of anomalies reported by detection passes",
		},
		[]string{"type", "severity"},
	)

	TicketLoadFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "service_desk_insights_ticket_load_failures_total",
			Help: "Total number of failed ticket loads",
		},
	)
)

// Dashboard feed metrics
var (
	DashboardClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "service_desk_insights_dashboard_clients",
			Help: "Number of connected dashboard websocket clients",
		},
	)

	DashboardEventsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "service_desk_insights_dashboard_events_dropped_total",
			Help: "Total number of dashboard events dropped",
		},
		[]string{"reason"}, // queue_full, slow_client
	)
)
