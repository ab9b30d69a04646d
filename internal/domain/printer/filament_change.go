package printer

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FilamentChange is a compound device task whose completion requires
// human confirmation rather than remote status polling (spec.md §3, §4.2).
type FilamentChange struct {
	ID            uuid.UUID
	NewFilamentID uuid.UUID
	DeviceTaskID  uuid.UUID
	Confirmed     bool
	ConfirmedAt   *time.Time
}

// NewFilamentChange creates a pending filament change owning the given
// device task.
func NewFilamentChange(newFilamentID, deviceTaskID uuid.UUID) *FilamentChange {
	return &FilamentChange{ID: uuid.New(), NewFilamentID: newFilamentID, DeviceTaskID: deviceTaskID}
}

// Confirm marks the change confirmed. The caller (application layer) is
// responsible for then calling Printer.LoadFilament so the swap commits
// atomically with this flag -- see spec.md §8's round-trip invariant
// "fc.confirmed => printer.filament = fc.new_filament".
func (fc *FilamentChange) Confirm(now time.Time) {
	fc.Confirmed = true
	fc.ConfirmedAt = &now
}

// CommandProgram synthesizes the small command program a filament-change
// program subtask runs: set both temperatures to the max of old/new, then
// home (spec.md §4.2).
func CommandProgram(newBedC, oldBedC, newNozzleC, oldNozzleC float64) []string {
	return []string{
		fmt.Sprintf("M140 S%.0f", maxF(newBedC, oldBedC)),
		fmt.Sprintf("M104 S%.0f", maxF(newNozzleC, oldNozzleC)),
		"G28",
	}
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
