// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IntentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stayease_intents_total",
			Help: "User intents handled by the application controller",
		},
		[]string{"intent", "result"},
	)

	ViewTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stayease_view_transitions_total",
			Help: "Navigation transitions between views",
		},
		[]string{"from", "to"},
	)

	WishlistToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stayease_wishlist_toggles_total",
			Help: "Wishlist toggle outcomes",
		},
		[]string{"outcome"},
	)

	BookingsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stayease_bookings_completed_total",
			Help: "Bookings that reached the success screen, by path",
		},
		[]string{"path"},
	)

	PendingTasks = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stayease_pending_tasks",
			Help: "Simulated remote operations currently in flight",
		},
		[]string{"kind"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stayease_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of jobs currently being processed",
		},
		[]string{"task_type"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Job processing duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"task_type"},
	)
)
