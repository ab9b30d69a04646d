package device

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists DeviceTasks.
type Repository interface {
	Save(ctx context.Context, t *Task) error
	FindByID(ctx context.Context, id uuid.UUID) (*Task, error)
	// FindQueuedByController returns queued tasks for a controller in
	// insertion order, the order the dispatch tick's tie-break scans.
	FindQueuedByController(ctx context.Context, controllerID uuid.UUID) ([]*Task, error)
}

// Runner executes one claimed task to completion or cancellation. Each
// Kind has its own Runner implementation in the controller application
// package; DeviceController dispatches to the right one by Kind.
type Runner interface {
	// Run drives the task until it reaches a terminal state or ctx is
	// cancelled. Implementations suspend cooperatively between polls
	// rather than blocking a goroutine per retry.
	Run(ctx context.Context, t *Task) error
}
