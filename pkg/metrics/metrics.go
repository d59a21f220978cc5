package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels for StoreOperations.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "personstore", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "personstore", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	StoreOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "personstore", Name: "store_operations_total", Help: "Person store operations by name and result."},
		[]string{"op", "result"},
	)
	StoreOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "personstore", Name: "store_operation_duration_seconds", Help: "Latency of person store operations.", Buckets: prometheus.DefBuckets},
		[]string{"op"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(StoreOperations)
	reg.MustRegister(StoreOperationDuration)
}

// ObserveStoreOp records one finished store operation.
func ObserveStoreOp(op, result string, start time.Time) {
	StoreOperations.WithLabelValues(op, result).Inc()
	StoreOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
