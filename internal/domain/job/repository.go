package job

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists PrintJobs.
type Repository interface {
	Save(ctx context.Context, j *PrintJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*PrintJob, error)
	FindByDeviceTaskID(ctx context.Context, taskID uuid.UUID) (*PrintJob, error)
	FindAwaitingConfirmation(ctx context.Context) ([]*PrintJob, error)
}

// HistoryRepository is an append-only audit log of PrintJob outcomes,
// keyed by time, grounded on the teacher's contract-purchase-history /
// market-price-history repository pattern (SPEC_FULL.md §3). It is kept
// apart from the live PrintJob rows; no operator route and no daemon
// component reads or writes it.
type HistoryRepository interface {
	Record(ctx context.Context, printerID uuid.UUID, j *PrintJob) error
	FindSince(ctx context.Context, printerID uuid.UUID, since time.Time) ([]*PrintJob, error)
}
