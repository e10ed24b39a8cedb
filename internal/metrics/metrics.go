package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deposit_http_requests_total",
			Help: "Total HTTP requests by method, path and status code",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deposit_http_request_duration_seconds",
			Help:    "HTTP request latency by method and path",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// DepositTransitionsTotal counts lifecycle transitions by operation and
	// result (ok, rejected, error). Rejected means the state machine refused
	// the transition; error means infrastructure failed.
	DepositTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deposit_transitions_total",
			Help: "Deposit lifecycle transitions by operation and result",
		},
		[]string{"operation", "result"},
	)

	ReportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deposit_report_duration_seconds",
			Help:    "Report build latency by report type",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"report"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deposit_report_cache_hits_total",
			Help: "Report cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)
)
