// Package metrics implements the Prometheus collectors exposed by the
// operator metrics endpoint, grounded on the teacher's per-domain
// collector-plus-global-registry idiom
// (internal/adapters/metrics/prometheus_collector.go): one collector
// struct per concern, a package-level Registry, and package-level
// RecordXxx functions that delegate to a singleton so deeply-nested
// application code can record a metric without threading a collector
// reference through every call.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "farm"
	subsystem = "daemon"
)

var (
	// Registry is the global Prometheus registry for all metrics.
	Registry *prometheus.Registry

	globalSchedulerCollector  *SchedulerMetricsCollector
	globalDispatcherCollector *DispatcherMetricsCollector
	globalAPICollector        *APIMetricsCollector
)

// InitRegistry initializes the Prometheus registry. Call once at startup
// if metrics are enabled.
func InitRegistry() {
	Registry = prometheus.NewRegistry()
}

// GetRegistry returns the global registry, nil if metrics are disabled.
func GetRegistry() *prometheus.Registry {
	return Registry
}

// IsEnabled reports whether metrics collection is active.
func IsEnabled() bool {
	return Registry != nil
}

// SetGlobalSchedulerCollector sets the singleton used by RecordSchedulerRun.
func SetGlobalSchedulerCollector(c *SchedulerMetricsCollector) {
	globalSchedulerCollector = c
}

// RecordSchedulerRun records one scheduler tick's outcome and duration.
func RecordSchedulerRun(status string, durationSeconds float64) {
	if globalSchedulerCollector != nil {
		globalSchedulerCollector.RecordRun(status, durationSeconds)
	}
}

// SetGlobalDispatcherCollector sets the singleton used by RecordDispatchCycle.
func SetGlobalDispatcherCollector(c *DispatcherMetricsCollector) {
	globalDispatcherCollector = c
}

// RecordDispatchCycle records one dispatch cycle's launch count and outcome.
func RecordDispatchCycle(launched int, success bool) {
	if globalDispatcherCollector != nil {
		globalDispatcherCollector.RecordCycle(launched, success)
	}
}

// SetGlobalAPICollector sets the singleton used by RecordAPIRequest.
func SetGlobalAPICollector(c *APIMetricsCollector) {
	globalAPICollector = c
}

// RecordAPIRequest records one logical device-host API call.
func RecordAPIRequest(method, endpoint, outcome string, durationSeconds float64) {
	if globalAPICollector != nil {
		globalAPICollector.RecordAPIRequest(method, endpoint, outcome, durationSeconds)
	}
}
