package metrics

import "github.com/prometheus/client_golang/prometheus"

// APIMetricsCollector tracks deviceapi.Client's calls against the
// printer-host REST dialect. Grounded on the teacher's api_metrics.go,
// with "status_code" replaced by a coarser "outcome" label since the
// device client's retry loop already absorbs individual HTTP status
// codes behind success/error before a caller ever sees them.
type APIMetricsCollector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewAPIMetricsCollector constructs an APIMetricsCollector.
func NewAPIMetricsCollector() *APIMetricsCollector {
	return &APIMetricsCollector{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "device_api_requests_total",
				Help:      "Total number of device host API requests by method, endpoint, and outcome",
			},
			[]string{"method", "endpoint", "outcome"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "device_api_request_duration_seconds",
				Help:      "Device host API request duration distribution",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"method", "endpoint"},
		),
	}
}

// Register registers the collector's metrics with the global Registry.
func (c *APIMetricsCollector) Register() error {
	if Registry == nil {
		return nil
	}
	for _, m := range []prometheus.Collector{c.requestsTotal, c.requestDuration} {
		if err := Registry.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// RecordAPIRequest records one logical device-host call, already resolved
// past the client's internal retry loop.
func (c *APIMetricsCollector) RecordAPIRequest(method, endpoint, outcome string, durationSeconds float64) {
	c.requestsTotal.WithLabelValues(method, endpoint, outcome).Inc()
	c.requestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}
