package metrics

import "github.com/prometheus/client_golang/prometheus"

// CommandMetricsCollector handles operator mediator command/query
// execution metrics. Grounded on the teacher's command_metrics.go, field
// for field.
type CommandMetricsCollector struct {
	commandDuration *prometheus.HistogramVec
	commandsTotal   *prometheus.CounterVec
}

// NewCommandMetricsCollector constructs a CommandMetricsCollector.
func NewCommandMetricsCollector() *CommandMetricsCollector {
	return &CommandMetricsCollector{
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "command_duration_seconds",
				Help:      "Operator command/query execution duration distribution",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0},
			},
			[]string{"command", "status"},
		),
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "commands_total",
				Help:      "Total number of operator commands/queries executed by type and status",
			},
			[]string{"command", "status"},
		),
	}
}

// Register registers the collector's metrics with the global Registry.
func (c *CommandMetricsCollector) Register() error {
	if Registry == nil {
		return nil
	}
	for _, m := range []prometheus.Collector{c.commandDuration, c.commandsTotal} {
		if err := Registry.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// RecordCommandExecution records one mediator dispatch's duration and
// success/failure outcome.
func (c *CommandMetricsCollector) RecordCommandExecution(commandName string, durationSeconds float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	c.commandDuration.WithLabelValues(commandName, status).Observe(durationSeconds)
	c.commandsTotal.WithLabelValues(commandName, status).Inc()
}
