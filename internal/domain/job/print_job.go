// Package job models PrintJob, the bookkeeping record for one attempted
// physical print, attached to exactly one device task.
package job

import (
	"time"

	"github.com/google/uuid"
)

// PrintJob is created the moment a device task is launched for a piece's
// copy, before the task is even necessarily runnable (spec.md §9, Open
// Question 3: a PrintJob may exist while its task sits behind a
// filament-change dependency).
type PrintJob struct {
	ID                uuid.UUID
	DeviceTaskID      uuid.UUID
	FilamentID        uuid.UUID
	CreatedAt         time.Time
	EstimatedEndTime  time.Time
	Success           *bool
	EndTime           *time.Time
}

// NewPrintJob constructs a PrintJob linked to a launched device task.
func NewPrintJob(deviceTaskID, filamentID uuid.UUID, createdAt, estimatedEnd time.Time) *PrintJob {
	return &PrintJob{
		ID:               uuid.New(),
		DeviceTaskID:     deviceTaskID,
		FilamentID:       filamentID,
		CreatedAt:        createdAt,
		EstimatedEndTime: estimatedEnd,
	}
}

// Printing reports whether the underlying task has not yet finished.
func (j *PrintJob) Printing(taskFinished bool) bool {
	return !taskFinished
}

// AwaitingBedRemoval reports whether the task finished but the human
// outcome confirmation has not yet arrived.
func (j *PrintJob) AwaitingBedRemoval(taskFinished bool) bool {
	return taskFinished && j.Success == nil
}

// Pending reports whether this job is still printing or awaiting bed
// removal -- i.e. not yet resolved to a final human-confirmed outcome.
func (j *PrintJob) Pending(taskFinished bool) bool {
	return j.Printing(taskFinished) || j.AwaitingBedRemoval(taskFinished)
}

// ConfirmResult records the operator's confirm_job_result decision.
func (j *PrintJob) ConfirmResult(success bool, now time.Time) {
	j.Success = &success
	j.EndTime = &now
}

// MarkFailed is used when the controller cancels the active task or the
// task fails terminally (tracking lost, cancelled dependency): the job's
// outcome is set to failure without waiting for operator confirmation.
func (j *PrintJob) MarkFailed(now time.Time) {
	failed := false
	j.Success = &failed
	j.EndTime = &now
}
