// Package apperr holds the sentinel errors checked with errors.Is across
// the application and adapter layers, matching the teacher's pattern of
// thin wrapped errors returned through fmt.Errorf("...: %w", err) chains.
package apperr

import "errors"

var (
	// ErrFilamentUnavailable is returned when no loaded filament on a
	// controller matches a piece's required material/color.
	ErrFilamentUnavailable = errors.New("no filament available matching requirements")

	// ErrScheduleInfeasible names the case where no schedule satisfying
	// every hard constraint exists within the configured horizon. The
	// scheduler does not return it; it records schedule.StatusInfeasible
	// on the persisted Schedule instead.
	ErrScheduleInfeasible = errors.New("no feasible schedule within horizon")

	// ErrTrackingLost is returned when a device controller's reported
	// state can no longer be correlated with the task farmd believes is
	// running on it.
	ErrTrackingLost = errors.New("device task tracking lost")

	// ErrInvalidPiece names a piece that fails domain validation (missing
	// geometry, non-positive quantity, unresolvable profile). Piece
	// validation reports such failures as *shared.ValidationError and does
	// not return this sentinel.
	ErrInvalidPiece = errors.New("invalid piece")

	// ErrCancelledDependency names a task whose dependency was cancelled
	// instead of completing. The dispatch tick does not return it; it
	// leaves such a task queued and unpromoted.
	ErrCancelledDependency = errors.New("dependency task was cancelled")

	// ErrControllerBusy is returned when a task is enqueued on a
	// controller that is locked.
	ErrControllerBusy = errors.New("controller already has an active task")

	// ErrCircuitOpen is returned by the device client when the circuit
	// breaker is open and rejecting calls.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)
