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

	SearchPathTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finder_search_path_total",
			Help: "Searches by the path that produced the result set",
		},
		[]string{"path", "outcome"},
	)

	SearchCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finder_search_cache_total",
			Help: "Search result cache lookups",
		},
		[]string{"result"},
	)

	OracleRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finder_oracle_requests_total",
			Help: "Oracle calls by call site and status",
		},
		[]string{"call", "status"},
	)

	OracleRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finder_oracle_request_duration_seconds",
			Help:    "Oracle call latency including retries",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"call"},
	)

	FilterFieldsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finder_filter_fields_dropped_total",
			Help: "Oracle filter fields rejected by validation",
		},
		[]string{"field"},
	)

	BudgetParseTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finder_budget_parse_total",
			Help: "Budget strings parsed, by the rule that matched",
		},
		[]string{"rule"},
	)

	HarvestPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finder_harvest_pages_total",
			Help: "Product pages visited by the harvester",
		},
		[]string{"status"},
	)
)
