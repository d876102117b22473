// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
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

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	ScholarshipsScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_scholarships_scored_total",
			Help: "Total number of student-scholarship pairs scored",
		},
	)

	MatchPercentage = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_match_percentage",
			Help:    "Distribution of computed match percentages",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	MatchQuality = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_match_quality_total",
			Help: "Count of match results by quality tier",
		},
		[]string{"quality"},
	)
)
