package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveStoreOp(t *testing.T) {
	before := testutil.ToFloat64(StoreOperations.WithLabelValues("metrics_test", ResultOK))
	ObserveStoreOp("metrics_test", ResultOK, time.Now())
	ObserveStoreOp("metrics_test", ResultError, time.Now())
	require.Equal(t, before+1, testutil.ToFloat64(StoreOperations.WithLabelValues("metrics_test", ResultOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(StoreOperations.WithLabelValues("metrics_test", ResultError)))
}

func TestRegisterCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { RegisterCollectors(reg) })
	// registering twice on the same registry is a programming error
	require.Panics(t, func() { RegisterCollectors(reg) })
}
