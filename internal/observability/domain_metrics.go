package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "text2sql_generations_total",
			Help: "Total number of SQL generation attempts by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)
	generationLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "text2sql_generation_latency_seconds",
			Help:    "Model round-trip latency for SQL generation.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)
	executionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "text2sql_executions_total",
			Help: "Total number of SQL executions by backend and outcome.",
		},
		[]string{"backend", "outcome"},
	)
	executionLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "text2sql_execution_latency_seconds",
			Help:    "Database execution latency.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"backend"},
	)
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "text2sql_active_sessions",
			Help: "Current count of live database sessions.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		generationsTotal,
		generationLatencySeconds,
		executionsTotal,
		executionLatencySeconds,
		activeSessions,
	)
}

func ObserveGeneration(provider, outcome string, elapsed time.Duration) {
	generationsTotal.WithLabelValues(provider, outcome).Inc()
	generationLatencySeconds.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func ObserveExecution(backend, outcome string, elapsed time.Duration) {
	executionsTotal.WithLabelValues(backend, outcome).Inc()
	executionLatencySeconds.WithLabelValues(backend).Observe(elapsed.Seconds())
}

func SetActiveSessions(count int) {
	if count < 0 {
		count = 0
	}
	activeSessions.Set(float64(count))
}
