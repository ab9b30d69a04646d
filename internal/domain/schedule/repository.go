package schedule

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists Schedules.
type Repository interface {
	Save(ctx context.Context, s *Schedule) error
	FindByID(ctx context.Context, id uuid.UUID) (*Schedule, error)
	FindLatest(ctx context.Context) (*Schedule, error)
}

// EntryHistoryRepository is an append-only log of ScheduleEntries, the
// same pattern job.HistoryRepository uses for PrintJobs (SPEC_FULL.md §3).
type EntryHistoryRepository interface {
	Record(ctx context.Context, e *ScheduleEntry) error
	FindByPrinterSince(ctx context.Context, printerID uuid.UUID) ([]*ScheduleEntry, error)
}
