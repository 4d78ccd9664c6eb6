package solver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSuccess  = "success"
	resultFailure  = "failure"
	resultAborted  = "aborted"
	resultRejected = "rejected"
)

var (
	// solveTotal counts requests by transport and outcome
	solveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mapcolor_solve_requests_total",
		Help: "Coloring requests by source and result",
	}, []string{"source", "result"})

	// solveSteps tracks the trace length of finished searches
	solveSteps = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mapcolor_solve_steps",
		Help:    "Number of trace steps recorded per search",
		Buckets: prometheus.ExponentialBuckets(1, 4, 11), // 1 to ~1M
	})

	// solveDuration tracks search latency
	solveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mapcolor_solve_duration_seconds",
		Help:    "Search duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3s
	}, []string{"source"})
)
