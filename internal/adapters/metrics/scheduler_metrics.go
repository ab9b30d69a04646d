package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulerMetricsCollector tracks the scheduler tick (C5): how long each
// solve takes and how often it lands OPTIMAL vs INFEASIBLE vs errors.
type SchedulerMetricsCollector struct {
	runDuration *prometheus.HistogramVec
	runsTotal   *prometheus.CounterVec
}

// NewSchedulerMetricsCollector constructs a SchedulerMetricsCollector.
func NewSchedulerMetricsCollector() *SchedulerMetricsCollector {
	return &SchedulerMetricsCollector{
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "scheduler_run_duration_seconds",
				Help:      "Scheduler solve duration distribution",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"status"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "scheduler_runs_total",
				Help:      "Total number of scheduler runs by solver status",
			},
			[]string{"status"},
		),
	}
}

// Register registers the collector's metrics with the global Registry.
func (c *SchedulerMetricsCollector) Register() error {
	if Registry == nil {
		return nil
	}
	for _, m := range []prometheus.Collector{c.runDuration, c.runsTotal} {
		if err := Registry.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun records one scheduler run's solver status and duration.
func (c *SchedulerMetricsCollector) RecordRun(status string, durationSeconds float64) {
	c.runDuration.WithLabelValues(status).Observe(durationSeconds)
	c.runsTotal.WithLabelValues(status).Inc()
}
