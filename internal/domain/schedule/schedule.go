// Package schedule models the Scheduler's periodic output: a Schedule
// containing ScheduleEntries, plus the forbidden-zone projection used to
// keep entries out of configured daily windows.
package schedule

import (
	"time"

	"github.com/google/uuid"
)

// Status is the constraint solver's run outcome.
type Status string

const (
	StatusOptimal    Status = "OPTIMAL"
	StatusInfeasible Status = "INFEASIBLE"
	StatusInvalid    Status = "INVALID"
	StatusOther      Status = "OTHER"
)

// Schedule is the periodic optimizer's persisted output.
type Schedule struct {
	ID            uuid.UUID
	CreatedAt     time.Time
	FinishedAt    *time.Time
	SolverStatus  Status
	Diagnostics   string
	LaunchedTasks []uuid.UUID
	Entries       []*ScheduleEntry
}

// NewSchedule starts a new, not-yet-finished Schedule run.
func NewSchedule(now time.Time) *Schedule {
	return &Schedule{ID: uuid.New(), CreatedAt: now}
}

// Ready reports whether this schedule run has finished, so the scheduler
// tick's coalescing check (spec.md §4.7) can skip starting a new run while
// one is outstanding.
func (s *Schedule) Ready() bool {
	return s.FinishedAt != nil
}

// Finish marks the run complete with its solver status and, if optimal,
// its resulting entries.
func (s *Schedule) Finish(now time.Time, status Status, diagnostics string, entries []*ScheduleEntry) {
	s.FinishedAt = &now
	s.SolverStatus = status
	s.Diagnostics = diagnostics
	s.Entries = entries
}

// RecordLaunched appends a device task id to the launched-task set once
// the dispatcher has materialized it.
func (s *Schedule) RecordLaunched(taskID uuid.UUID) {
	s.LaunchedTasks = append(s.LaunchedTasks, taskID)
}

// ScheduleEntry is one (printer, piece-or-task, time window) tuple.
// Exactly one of PieceID / DeviceTaskID is set.
type ScheduleEntry struct {
	ID           uuid.UUID
	ScheduleID   uuid.UUID
	PrinterID    uuid.UUID
	PieceID      *uuid.UUID
	DeviceTaskID *uuid.UUID
	Start        time.Time
	End          time.Time
	Deadline     time.Time
}

// Due reports whether this entry's start has arrived and it still
// represents unlaunched piece work (spec.md §4.6).
func (e *ScheduleEntry) Due(now time.Time) bool {
	return !e.Start.After(now) && e.PieceID != nil
}

// ProcessingTime is the entry's allotted duration.
func (e *ScheduleEntry) ProcessingTime() time.Duration {
	return e.End.Sub(e.Start)
}
