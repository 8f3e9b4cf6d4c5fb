package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "tldw"

var (
	TasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Total number of summarization tasks finished, labeled by execution mode and final state.",
		},
		[]string{"mode", "outcome"},
	)

	TaskDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "End-to-end pipeline latency from intake to final state (seconds).",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"outcome"},
	)

	TranscriptFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcript_fetches_total",
			Help:      "Total number of transcript lookups, labeled by result (ok, cached, unavailable, error).",
		},
		[]string{"result"},
	)

	SummarizationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summarizations_total",
			Help:      "Total number of summarization calls, labeled by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	SummarizationLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "summarization_latency_seconds",
			Help:      "Latency of provider summarization calls (seconds).",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"provider"},
	)

	WebhookDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_total",
			Help:      "Total number of push notification deliveries, labeled by outcome (delivered, skipped, failed).",
		},
		[]string{"outcome"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served, labeled by method, route and status code.",
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		TasksTotal,
		TaskDurationSeconds,
		TranscriptFetchesTotal,
		SummarizationsTotal,
		SummarizationLatencySeconds,
		WebhookDeliveriesTotal,
		HTTPRequestsTotal,
	)
}
