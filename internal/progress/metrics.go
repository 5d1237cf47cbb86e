package progress

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Counter for store calls, by operation, sink and result
	operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_progress_operations_total",
			Help: "Total number of progress store operations",
		},
		[]string{"op", "sink", "result"}, // result: ok/error
	)

	// Histogram for remote store latency
	remoteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quiz_progress_remote_seconds",
			Help:    "Time spent in remote progress store calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

func observe(op, sink string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	operations.WithLabelValues(op, sink, result).Inc()
}

func remoteTimer(op string) *prometheus.Timer {
	return prometheus.NewTimer(remoteDuration.WithLabelValues(op))
}
