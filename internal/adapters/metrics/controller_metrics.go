package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// QueueDepths reports the current queued-task count per controller,
// keyed by printer id. Grounded on the teacher's getContainers closure
// (container_metrics.go) -- the collector polls rather than being pushed
// to, so it never sits on the dispatch tick's hot path.
type QueueDepths func() map[uuid.UUID]int

// ControllerMetricsCollector tracks per-controller queue depth (C2).
type ControllerMetricsCollector struct {
	getQueueDepths QueueDepths
	queueDepth     *prometheus.GaugeVec

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewControllerMetricsCollector constructs a ControllerMetricsCollector.
func NewControllerMetricsCollector(getQueueDepths QueueDepths) *ControllerMetricsCollector {
	return &ControllerMetricsCollector{
		getQueueDepths: getQueueDepths,
		queueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "controller_queue_depth",
				Help:      "Number of queued device tasks per controller",
			},
			[]string{"printer_id"},
		),
	}
}

// Register registers the collector's metrics with the global Registry.
func (c *ControllerMetricsCollector) Register() error {
	if Registry == nil {
		return nil
	}
	return Registry.Register(c.queueDepth)
}

// Start begins polling queue depths every 10 seconds until ctx is done.
func (c *ControllerMetricsCollector) Start(ctx context.Context) {
	c.ctx, c.cancelFunc = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.poll(10 * time.Second)
}

// Stop halts the poll loop and waits for it to exit.
func (c *ControllerMetricsCollector) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
}

func (c *ControllerMetricsCollector) poll(interval time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.update()
		}
	}
}

func (c *ControllerMetricsCollector) update() {
	if c.getQueueDepths == nil {
		return
	}
	c.queueDepth.Reset()
	for printerID, depth := range c.getQueueDepths() {
		c.queueDepth.WithLabelValues(printerID.String()).Set(float64(depth))
	}
}
