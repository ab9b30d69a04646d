// Package scheduler implements the Scheduler (C5): a periodic constraint-
// based optimizer assigning pending pieces (and in-flight device tasks) to
// printers over a time horizon.
package scheduler

import (
	"time"

	"github.com/google/uuid"
)

// SchedulableTask is one unit the solver places: either a pending piece
// waiting for a printer, or an in-flight device task already running on
// one (pinned to that machine, start fixed at 0).
type SchedulableTask struct {
	PieceID        *uuid.UUID
	DeviceTaskID   *uuid.UUID
	ProcessingTime time.Duration
	Deadline       time.Duration // from now
	Compatible     []uuid.UUID   // candidate printer ids, in preference order
	InFlightOn     *uuid.UUID    // set for in-flight tasks: pinned machine
}
