package controller

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/print-farm/farm-go/internal/application/common"
	"github.com/print-farm/farm-go/internal/domain/device"
	"github.com/print-farm/farm-go/internal/domain/job"
	"github.com/print-farm/farm-go/internal/domain/ports"
	"github.com/print-farm/farm-go/internal/domain/printer"
	"github.com/print-farm/farm-go/internal/domain/shared"
)

// Service is the Device Controller (C2): one instance per printer, owning
// its task queue, active-task slot, status cache, and dependency
// resolution. Grounded on the teacher's ContainerRunner goroutine-per-
// unit-of-work style, generalized from one container to one printer.
type Service struct {
	Controller     *printer.DeviceController
	ControllerRepo printer.ControllerRepository
	TaskRepo       device.Repository
	JobRepo        job.Repository
	FilamentChangeRepo printer.FilamentChangeRepository
	Client         ports.DeviceAPIClient
	Runners        map[device.Kind]device.Runner
	Clock          shared.Clock
	BeepThreshold  int
}

// Enqueue appends a task to the controller's queue.
func (s *Service) Enqueue(ctx context.Context, t *device.Task) error {
	if err := s.Controller.Enqueue(); err != nil {
		return err
	}
	return s.TaskRepo.Save(ctx, t)
}

// CancelActive is idempotent: marks the active task cancelled, optionally
// notifies the remote device, clears the active slot, and fails the
// linked PrintJob if one exists (spec.md §4.2, §5).
func (s *Service) CancelActive(ctx context.Context, notifyRemote bool) error {
	if s.Controller.ActiveTaskID == nil {
		return nil
	}
	taskID := *s.Controller.ActiveTaskID

	t, err := s.TaskRepo.FindByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("find active task: %w", err)
	}
	if err := t.Cancel(); err != nil {
		return fmt.Errorf("cancel task: %w", err)
	}
	if notifyRemote {
		if err := s.Client.Cancel(ctx); err != nil {
			common.LoggerFromContext(ctx).Log("warn", "remote cancel failed", map[string]interface{}{"task_id": taskID.String(), "error": err.Error()})
		}
	}
	if err := s.TaskRepo.Save(ctx, t); err != nil {
		return fmt.Errorf("save cancelled task: %w", err)
	}

	if pj, err := s.JobRepo.FindByDeviceTaskID(ctx, taskID); err == nil && pj != nil {
		pj.MarkFailed(s.Clock.Now())
		if err := s.JobRepo.Save(ctx, pj); err != nil {
			return fmt.Errorf("save failed print job: %w", err)
		}
	}

	s.Controller.CancelActive()
	return s.ControllerRepo.Save(ctx, s.Controller)
}

// Reset force-clears the active slot and status.
func (s *Service) Reset(ctx context.Context) error {
	s.Controller.Reset()
	return s.ControllerRepo.Save(ctx, s.Controller)
}

// SnapshotStatus returns the cached status aggregate.
func (s *Service) SnapshotStatus() printer.Status {
	return s.Controller.Status
}

// DispatchTick implements the per-controller half of spec.md §4.2's state
// machine and §4.7's "controller dispatch tick": clear a finished active
// slot once it isn't also sitting in the human-intervention gate
// (promoting a dependent task if one is runnable), otherwise claim a new
// runnable queued task when the printer is ready, and run the buzzer-poke
// heuristic while a task sits in the human-intervention gate.
func (s *Service) DispatchTick(ctx context.Context) error {
	queued, err := s.TaskRepo.FindQueuedByController(ctx, s.Controller.ID)
	if err != nil {
		return fmt.Errorf("find queued tasks: %w", err)
	}

	var active *device.Task
	if s.Controller.ActiveTaskID != nil {
		active, err = s.TaskRepo.FindByID(ctx, *s.Controller.ActiveTaskID)
		if err != nil {
			return fmt.Errorf("find active task: %w", err)
		}
	}

	var justFinished *device.Task
	if active != nil && active.Finished() && !s.isAwaitingHuman(ctx, active) {
		s.Controller.ClearActiveTask()
		if err := s.ControllerRepo.Save(ctx, s.Controller); err != nil {
			return err
		}
		justFinished = active
		active = nil
	}

	if active != nil {
		if s.isAwaitingHuman(ctx, active) {
			if s.Controller.PokeBuzzer(s.BeepThreshold) {
				_ = s.Client.IssueCommands(ctx, []string{"M300 S440 P200"})
			}
		} else {
			s.Controller.ResetBuzzer()
		}
		return nil
	}

	if !s.Controller.ConnectionReady() {
		return nil
	}

	next := s.pickRunnable(queued, justFinished)
	if next == nil {
		return nil
	}

	if err := next.Claim(); err != nil {
		return fmt.Errorf("claim task: %w", err)
	}
	s.Controller.SetActiveTask(next.ID)
	if err := s.TaskRepo.Save(ctx, next); err != nil {
		return err
	}
	if err := s.ControllerRepo.Save(ctx, s.Controller); err != nil {
		return err
	}

	runner, ok := s.Runners[next.Kind]
	if !ok {
		return fmt.Errorf("no runner registered for task kind %s", next.Kind)
	}
	go s.runToCompletion(ctx, runner, next)
	return nil
}

// pickRunnable implements the tie-break of spec.md §4.2: pick the last
// dependency-ready task discovered while scanning in insertion order, and
// for the remainder use insertion order -- this gives priority to a task
// whose dependency is the task that just finished.
func (s *Service) pickRunnable(queued []*device.Task, justFinished *device.Task) *device.Task {
	finished := map[uuid.UUID]bool{}
	cancelled := map[uuid.UUID]bool{}
	byID := map[uuid.UUID]*device.Task{}
	for _, t := range queued {
		byID[t.ID] = t
	}
	lookup := func(id uuid.UUID) (bool, bool, bool) {
		if t, ok := byID[id]; ok {
			return t.Finished() && t.Status() == device.StatusDone, t.Status() == device.StatusCancelled, true
		}
		if justFinished != nil && justFinished.ID == id {
			return justFinished.Finished() && justFinished.Status() == device.StatusDone, justFinished.Status() == device.StatusCancelled, true
		}
		finishedFlag, cancelledFlag := finished[id], cancelled[id]
		return finishedFlag, cancelledFlag, finishedFlag || cancelledFlag
	}

	var chosen *device.Task
	for _, t := range queued {
		ready, blockedByCancel := t.DependenciesReady(lookup)
		if blockedByCancel {
			continue
		}
		if ready {
			chosen = t
		}
	}
	if chosen != nil {
		return chosen
	}
	for _, t := range queued {
		ready, blockedByCancel := t.DependenciesReady(lookup)
		if ready && !blockedByCancel {
			return t
		}
	}
	return nil
}

func (s *Service) isAwaitingHuman(ctx context.Context, t *device.Task) bool {
	switch t.Kind {
	case device.KindFilamentChange:
		fc, err := s.findFilamentChangeForTask(ctx, t.ID)
		if err != nil {
			return true
		}
		if fc == nil {
			return false // no unconfirmed change remains for this task
		}
		return device.AwaitingHuman(device.HumanGateState{Kind: t.Kind, FilamentConfirmed: fc.Confirmed})
	case device.KindProgram, device.KindSliceThenProgram:
		pj, err := s.JobRepo.FindByDeviceTaskID(ctx, t.ID)
		ended := t.Finished()
		unknown := err == nil && pj != nil && pj.Success == nil
		return device.AwaitingHuman(device.HumanGateState{Kind: t.Kind, ProgramEnded: ended, JobOutcomeUnknown: unknown})
	default:
		return false
	}
}

func (s *Service) findFilamentChangeForTask(ctx context.Context, taskID uuid.UUID) (*printer.FilamentChange, error) {
	changes, err := s.FilamentChangeRepo.FindUnconfirmed(ctx)
	if err != nil {
		return nil, err
	}
	for _, fc := range changes {
		if fc.DeviceTaskID == taskID {
			return fc, nil
		}
	}
	return nil, nil
}

func (s *Service) runToCompletion(ctx context.Context, runner device.Runner, t *device.Task) {
	if err := runner.Run(ctx, t); err != nil {
		common.LoggerFromContext(ctx).Log("error", "task runner failed", map[string]interface{}{"task_id": t.ID.String(), "error": err.Error()})
	}
	_ = s.TaskRepo.Save(ctx, t)
}
