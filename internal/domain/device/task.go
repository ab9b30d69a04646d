// Package device models the unit of work dispatched to a single Device
// Controller: the four task kinds, their readiness/dependency logic, and
// the lifecycle every task moves through from queued to terminal.
package device

import (
	"time"

	"github.com/google/uuid"

	"github.com/print-farm/farm-go/internal/domain/shared"
)

// Kind discriminates the four task behaviors of spec.md §4.3.
type Kind string

const (
	KindCommand           Kind = "command"
	KindProgram           Kind = "program"
	KindSliceThenProgram  Kind = "slice_then_program"
	KindFilamentChange    Kind = "filament_change"
)

// Status is the task's position in its queued -> claimed -> running ->
// terminal lifecycle, layered on top of shared.LifecycleStateMachine:
// Pending=queued, Running covers both claimed and running (Claimed
// distinguishes the two), Completed=done, Failed=failed, Stopped=cancelled.
type Status = shared.LifecycleStatus

const (
	StatusQueued    = shared.LifecycleStatusPending
	StatusRunning   = shared.LifecycleStatusRunning
	StatusDone      = shared.LifecycleStatusCompleted
	StatusFailed    = shared.LifecycleStatusFailed
	StatusCancelled = shared.LifecycleStatusStopped
)

// Task is a DeviceTask: a unit of work queued on one DeviceController.
type Task struct {
	ID           uuid.UUID
	ControllerID uuid.UUID
	Kind         Kind

	ProgramFile    string
	SliceJobID     *uuid.UUID
	CommandScript  []string

	// Dependency points at another task in the same controller's graph
	// (acyclic); this task is runnable only once the dependency chain is
	// entirely finished.
	Dependency *uuid.UUID

	Sent           bool
	RemoteFilename string
	Claimed        bool

	lifecycle *shared.LifecycleStateMachine
}

// NewTask constructs a queued Task of the given kind.
func NewTask(controllerID uuid.UUID, kind Kind, clock shared.Clock) *Task {
	return &Task{
		ID:           uuid.New(),
		ControllerID: controllerID,
		Kind:         kind,
		lifecycle:    shared.NewLifecycleStateMachine(clock),
	}
}

// Recover rebuilds a Task's lifecycle state machine from persisted fields,
// for use only by a repository reconstructing a Task row.
func (t *Task) Recover(clock shared.Clock, status Status, createdAt, updatedAt time.Time, startedAt, stoppedAt *time.Time, lastErr error) {
	t.lifecycle = shared.NewLifecycleStateMachine(clock)
	t.lifecycle.RecoverFromPersistence(status, createdAt, updatedAt, startedAt, stoppedAt, lastErr)
}

// CreatedAt, UpdatedAt, StartedAt, StoppedAt expose the lifecycle's
// timestamps for persistence mapping.
func (t *Task) CreatedAt() time.Time   { return t.lifecycle.CreatedAt() }
func (t *Task) UpdatedAt() time.Time   { return t.lifecycle.UpdatedAt() }
func (t *Task) StartedAt() *time.Time  { return t.lifecycle.StartedAt() }
func (t *Task) StoppedAt() *time.Time  { return t.lifecycle.StoppedAt() }

// Status returns the task's current lifecycle status.
func (t *Task) Status() Status {
	return t.lifecycle.Status()
}

// Finished reports whether the task reached a terminal state
// (done, failed, or cancelled).
func (t *Task) Finished() bool {
	return t.lifecycle.IsFinished()
}

// Claim transitions the task from queued to active/running and marks it
// claimed by the controller's dispatch tick.
func (t *Task) Claim() error {
	if err := t.lifecycle.Start(); err != nil {
		return err
	}
	t.Claimed = true
	return nil
}

// Complete marks the task terminally done.
func (t *Task) Complete() error {
	return t.lifecycle.Complete()
}

// Fail marks the task terminally failed, recording the cause.
func (t *Task) Fail(err error) error {
	return t.lifecycle.Fail(err)
}

// Cancel marks the task terminally cancelled. Idempotent: cancelling an
// already-terminal task is a no-op success, matching the controller's
// idempotent cancel_active contract (spec.md §5).
func (t *Task) Cancel() error {
	if t.lifecycle.IsFinished() {
		return nil
	}
	return t.lifecycle.Stop()
}

// LastError returns the error that failed this task, if any.
func (t *Task) LastError() error {
	return t.lifecycle.LastError()
}

// DependenciesReady reports whether dependency resolution says this task
// may become active, given a lookup of dependency finished-state and
// whether the dependency itself was cancelled.
type DependencyLookup func(id uuid.UUID) (finished bool, cancelled bool, ok bool)

// DependenciesReady is the transitive AND of dependency.finished up the
// chain (spec.md §4.3). A cancelled dependency is treated as a permanent
// block, not as "finished": the task is reported as blockedByCancel and
// the dispatch tick never promotes it. The dispatch tick leaves such a
// task queued; it does not fail the task or its PrintJob.
func (t *Task) DependenciesReady(lookup DependencyLookup) (ready bool, blockedByCancel bool) {
	if t.Dependency == nil {
		return true, false
	}
	finished, cancelled, ok := lookup(*t.Dependency)
	if !ok {
		return false, false
	}
	if cancelled {
		return false, true
	}
	return finished, false
}

// TimeLeft computes the task's remaining-time estimate per the table in
// spec.md §4.3. estimatedLeftS is the remote-reported estimate (nil if the
// remote returned null); estimatedEnd/now drive the 600s floor fallback.
func (t *Task) TimeLeft(now time.Time, estimatedEnd time.Time, estimatedLeftS *int64, sliceEstimateS int64) int64 {
	switch t.Kind {
	case KindCommand:
		return 1
	case KindFilamentChange:
		return 15 * 60
	case KindSliceThenProgram:
		if !t.Sent {
			return sliceEstimateS
		}
		fallthrough
	case KindProgram:
		if estimatedLeftS != nil {
			return *estimatedLeftS
		}
		left := int64(estimatedEnd.Sub(now).Seconds())
		if left < 600 {
			left = 600
		}
		return left
	default:
		return 0
	}
}
