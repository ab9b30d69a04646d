package metrics_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/print-farm/farm-go/internal/adapters/metrics"
	"github.com/print-farm/farm-go/internal/application/common"
)

func TestSchedulerMetricsCollector_RecordRun(t *testing.T) {
	// Arrange
	metrics.InitRegistry()
	defer func() { metrics.Registry = nil }()
	c := metrics.NewSchedulerMetricsCollector()
	require.NoError(t, c.Register())

	// Act
	c.RecordRun("OPTIMAL", 0.25)
	c.RecordRun("INFEASIBLE", 0.1)

	// Assert: one histogram series and one counter series per status.
	require.Equal(t, 4, testutil.CollectAndCount(metrics.Registry))
}

func TestDispatcherMetricsCollector_RecordCycle(t *testing.T) {
	// Arrange
	metrics.InitRegistry()
	defer func() { metrics.Registry = nil }()
	c := metrics.NewDispatcherMetricsCollector()
	require.NoError(t, c.Register())

	// Act
	c.RecordCycle(3, true)
	c.RecordCycle(0, false)

	// Assert: the launched-tasks counter plus one cycle series per outcome.
	require.Equal(t, 3, testutil.CollectAndCount(metrics.Registry))
}

func TestAPIMetricsCollector_RecordAPIRequest(t *testing.T) {
	// Arrange
	metrics.InitRegistry()
	defer func() { metrics.Registry = nil }()
	c := metrics.NewAPIMetricsCollector()
	require.NoError(t, c.Register())

	// Act
	c.RecordAPIRequest("GET", "/api/printer", "success", 0.05)

	// Assert
	require.Equal(t, 2, testutil.CollectAndCount(metrics.Registry))
}

func TestControllerMetricsCollector_Update(t *testing.T) {
	// Arrange
	metrics.InitRegistry()
	defer func() { metrics.Registry = nil }()
	printerID := uuid.New()
	c := metrics.NewControllerMetricsCollector(func() map[uuid.UUID]int {
		return map[uuid.UUID]int{printerID: 4}
	})
	require.NoError(t, c.Register())

	// Act
	c.Start(t.Context())
	defer c.Stop()

	// Assert: registration succeeds and the poll loop starts/stops cleanly.
	// The gauge only gains a series on the first 10s tick, so none is
	// collected yet.
	require.Equal(t, 0, testutil.CollectAndCount(metrics.Registry))
}

func TestCommandMetricsCollector_PrometheusMiddleware(t *testing.T) {
	// Arrange
	metrics.InitRegistry()
	defer func() { metrics.Registry = nil }()
	collector := metrics.NewCommandMetricsCollector()
	require.NoError(t, collector.Register())
	mw := metrics.PrometheusMiddleware(collector)

	// Act
	_, err := mw(t.Context(), nil, func(ctx context.Context, request common.Request) (common.Response, error) {
		return nil, nil
	})

	// Assert
	require.NoError(t, err)
	require.Equal(t, 2, testutil.CollectAndCount(metrics.Registry))
}
