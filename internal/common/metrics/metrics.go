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

	AnalysisRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trend_analysis_runs_total",
			Help: "Total number of trend analysis runs by tier and outcome",
		},
		[]string{"tier", "outcome"},
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trend_analysis_duration_seconds",
			Help:    "End-to-end duration of trend analysis runs",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"tier"},
	)

	SynthesisCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synthesis_calls_total",
			Help: "Total number of synthesis service calls by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	SynthesisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "synthesis_call_duration_seconds",
			Help:    "Duration of individual synthesis service calls",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"endpoint"},
	)

	CacheEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trend_cache_events_total",
			Help: "Trend cache reads and writes by event (hit, miss, stale, write, error)",
		},
		[]string{"scope", "event"},
	)

	ChunksAnalyzed = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trend_analysis_chunks",
			Help:    "Number of chunks produced per hierarchical analysis run",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"scope"},
	)
)
