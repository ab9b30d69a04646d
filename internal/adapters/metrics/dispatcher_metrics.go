package metrics

import "github.com/prometheus/client_golang/prometheus"

// DispatcherMetricsCollector tracks the dispatcher tick (C6): how many
// device tasks it launches per cycle and whether the cycle errored.
type DispatcherMetricsCollector struct {
	tasksLaunchedTotal prometheus.Counter
	cyclesTotal        *prometheus.CounterVec
}

// NewDispatcherMetricsCollector constructs a DispatcherMetricsCollector.
func NewDispatcherMetricsCollector() *DispatcherMetricsCollector {
	return &DispatcherMetricsCollector{
		tasksLaunchedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "dispatcher_tasks_launched_total",
				Help:      "Total number of device tasks launched by the dispatcher",
			},
		),
		cyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "dispatcher_cycles_total",
				Help:      "Total number of dispatch cycles by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// Register registers the collector's metrics with the global Registry.
func (c *DispatcherMetricsCollector) Register() error {
	if Registry == nil {
		return nil
	}
	for _, m := range []prometheus.Collector{c.tasksLaunchedTotal, c.cyclesTotal} {
		if err := Registry.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// RecordCycle records one dispatch cycle's launched-task count and
// success/failure outcome.
func (c *DispatcherMetricsCollector) RecordCycle(launched int, success bool) {
	c.tasksLaunchedTotal.Add(float64(launched))
	outcome := "success"
	if !success {
		outcome = "error"
	}
	c.cyclesTotal.WithLabelValues(outcome).Inc()
}
