// Package periodic implements the four periodic services of spec.md §4.7:
// the per-controller status poller, the per-controller dispatch tick, the
// scheduler/dispatcher tick, and the watchdog sweep. Each runs on its own
// ticker under one errgroup; the poller and the dispatch tick fan out
// across controllers concurrently using errgroup, mirroring the teacher's
// container-worker fan-out style, while the scheduler tick is a single run
// and the watchdog visits controllers one after another.
package periodic

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/print-farm/farm-go/internal/adapters/metrics"
	"github.com/print-farm/farm-go/internal/application/common"
	"github.com/print-farm/farm-go/internal/application/controller"
	"github.com/print-farm/farm-go/internal/application/dispatcher"
	"github.com/print-farm/farm-go/internal/application/scheduler"
	"github.com/print-farm/farm-go/internal/domain/printer"
	"github.com/print-farm/farm-go/internal/domain/schedule"
)

// ControllerSet is the live registry of per-printer controller services
// the periodic loops fan out over.
type ControllerSet struct {
	Services map[uuid.UUID]*controller.Service
}

// Runner drives the four periodic loops until ctx is cancelled.
type Runner struct {
	Controllers      *ControllerSet
	SchedulerService *scheduler.Service
	Dispatcher       *dispatcher.Dispatcher

	PollerPeriod     time.Duration
	DispatchPeriod   time.Duration
	SchedulerPeriod  time.Duration
	WatchdogPeriod   time.Duration
}

// Run starts all four loops and blocks until ctx is cancelled or one loop
// returns a non-context error.
func (r *Runner) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error { return r.runPoller(ctx) })
	eg.Go(func() error { return r.runDispatchTick(ctx) })
	eg.Go(func() error { return r.runSchedulerTick(ctx) })
	eg.Go(func() error { return r.runWatchdog(ctx) })

	return eg.Wait()
}

// runPoller refreshes each controller's cached remote status every tick,
// fanning out across controllers concurrently within the tick.
func (r *Runner) runPoller(ctx context.Context) error {
	ticker := time.NewTicker(r.PollerPeriod)
	defer ticker.Stop()
	logger := common.LoggerFromContext(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			pollGroup, pollCtx := errgroup.WithContext(ctx)
			for _, svc := range r.Controllers.Services {
				svc := svc
				pollGroup.Go(func() error {
					r.pollOne(pollCtx, svc)
					return nil
				})
			}
			if err := pollGroup.Wait(); err != nil {
				logger.Log("warn", "poll cycle error", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}

func (r *Runner) pollOne(ctx context.Context, svc *controller.Service) {
	logger := common.LoggerFromContext(ctx)
	state, err := svc.Client.FetchPrinterState(ctx)
	if err != nil {
		svc.Controller.MarkConnectionError(svc.Clock.Now())
		logger.Log("warn", "printer poll failed", map[string]interface{}{"controller_id": svc.Controller.ID.String(), "error": err.Error()})
		_ = svc.ControllerRepo.Save(ctx, svc.Controller)
		return
	}

	jobState, _ := svc.Client.FetchJobState(ctx)
	status := printer.Status{
		Flags: printer.Flags{
			Operational: state.Operational,
			Printing:    state.Printing,
			Paused:      state.Paused,
			Ready:       state.Ready,
			ClosedOrError: state.ClosedOrError,
		},
		Temperatures: printer.Temperatures{
			NozzleActualC: state.NozzleActualC,
			BedActualC:    state.BedActualC,
		},
		Job: printer.JobState{
			FileName:        jobState.FileName,
			EstimatedTotalS: jobState.EstimatedTotalS,
			EstimatedLeftS:  jobState.EstimatedLeftS,
		},
	}
	svc.Controller.RecordPollCycle(status, svc.Clock.Now())
	_ = svc.ControllerRepo.Save(ctx, svc.Controller)
}

// runDispatchTick drives each controller's DispatchTick every tick.
func (r *Runner) runDispatchTick(ctx context.Context) error {
	ticker := time.NewTicker(r.DispatchPeriod)
	defer ticker.Stop()
	logger := common.LoggerFromContext(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			tickGroup, tickCtx := errgroup.WithContext(ctx)
			for _, svc := range r.Controllers.Services {
				svc := svc
				tickGroup.Go(func() error {
					if err := svc.DispatchTick(tickCtx); err != nil {
						logger.Log("warn", "dispatch tick failed", map[string]interface{}{"controller_id": svc.Controller.ID.String(), "error": err.Error()})
					}
					return nil
				})
			}
			_ = tickGroup.Wait()
		}
	}
}

// runSchedulerTick runs the Scheduler, then the Dispatcher over its
// output, coalescing runs per spec.md §4.7: a new run is only started
// once the previous one has Finished.
func (r *Runner) runSchedulerTick(ctx context.Context) error {
	ticker := time.NewTicker(r.SchedulerPeriod)
	defer ticker.Stop()
	logger := common.LoggerFromContext(ctx)

	var lastRun *schedule.Schedule
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if lastRun != nil && !lastRun.Ready() {
				continue
			}
			runStart := time.Now()
			sc, err := r.SchedulerService.Run(ctx)
			if err != nil {
				metrics.RecordSchedulerRun("error", time.Since(runStart).Seconds())
				logger.Log("error", "scheduler run failed", map[string]interface{}{"error": err.Error()})
				continue
			}
			metrics.RecordSchedulerRun(string(sc.SolverStatus), time.Since(runStart).Seconds())
			lastRun = sc

			launchedBefore := len(sc.LaunchedTasks)
			dispatchErr := r.Dispatcher.Dispatch(ctx, sc)
			metrics.RecordDispatchCycle(len(sc.LaunchedTasks)-launchedBefore, dispatchErr == nil)
			if dispatchErr != nil {
				logger.Log("error", "dispatch failed", map[string]interface{}{"error": dispatchErr.Error()})
			}
		}
	}
}

// runWatchdog is a lightweight sweep that, every WatchdogPeriod, pings
// each controller whose status carries a connection error. It does not
// look at the human-intervention gate; the buzzer-poke logic lives only
// in the dispatch tick.
func (r *Runner) runWatchdog(ctx context.Context) error {
	ticker := time.NewTicker(r.WatchdogPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, svc := range r.Controllers.Services {
				if svc.Controller.Status.Flags.ConnectionError {
					_ = svc.Client.Ping(ctx)
				}
			}
		}
	}
}
