package printer

import (
	"time"

	"github.com/google/uuid"

	"github.com/print-farm/farm-go/internal/domain/shared/apperr"
)

// DeviceController owns one printer's task queue, status cache, and REST
// client configuration. At any moment it has at most one active task;
// queue operations are serialized per controller (spec.md §3, §5).
type DeviceController struct {
	ID         uuid.UUID
	PrinterID  uuid.UUID
	EndpointURL string
	APIKey     string

	ActiveTaskID *uuid.UUID
	Locked       bool

	Status Status

	// NotificationCount counts consecutive dispatch ticks the active task
	// has sat in the awaiting-human gate; reset once it drops or the
	// buzzer fires (spec.md §4.2).
	NotificationCount int
}

// NewDeviceController constructs a controller for a printer.
func NewDeviceController(printerID uuid.UUID, endpointURL, apiKey string) *DeviceController {
	return &DeviceController{
		ID:          uuid.New(),
		PrinterID:   printerID,
		EndpointURL: endpointURL,
		APIKey:      apiKey,
	}
}

// Enqueue has no state-transition side effects beyond appending to the
// queue; the actual append happens in the repository, this just validates
// the controller can accept work.
func (c *DeviceController) Enqueue() error {
	if c.Locked {
		return apperr.ErrControllerBusy
	}
	return nil
}

// ConnectionReady reports whether the controller's remote link is usable.
func (c *DeviceController) ConnectionReady() bool {
	return !c.Locked && c.Status.Flags.Ready && !c.Status.Flags.ConnectionError
}

// ActiveTaskFreeOrDone reports whether the active slot can accept a new
// task: either empty, or occupied by a finished task awaiting clearing.
func (c *DeviceController) ActiveTaskFreeOrDone(activeFinished bool) bool {
	return c.ActiveTaskID == nil || activeFinished
}

// PrinterReady is the dispatch tick's composite predicate for whether a
// new task may be claimed onto this controller.
func (c *DeviceController) PrinterReady(activeFinished, awaitingHuman bool) bool {
	return c.ConnectionReady() && c.ActiveTaskFreeOrDone(activeFinished) && !awaitingHuman
}

// SetActiveTask records the given task as the controller's active slot.
func (c *DeviceController) SetActiveTask(taskID uuid.UUID) {
	id := taskID
	c.ActiveTaskID = &id
}

// ClearActiveTask empties the active slot.
func (c *DeviceController) ClearActiveTask() {
	c.ActiveTaskID = nil
}

// CancelActive clears the active slot. The caller is responsible for
// calling the remote device client's Cancel (when notifyRemote is true)
// and for setting the linked PrintJob's success=false; this method only
// updates controller-owned state, keeping the operation idempotent no
// matter how many times it is invoked on an already-empty slot.
func (c *DeviceController) CancelActive() {
	c.ActiveTaskID = nil
}

// Reset force-clears the active slot and status, used by the operator's
// reset_printer operation.
func (c *DeviceController) Reset() {
	c.ActiveTaskID = nil
	c.Status = Status{}
	c.NotificationCount = 0
}

// RecordPollCycle refreshes the cached status aggregate from a poll.
func (c *DeviceController) RecordPollCycle(status Status, now time.Time) {
	status.UpdatedAt = now
	c.Status = status
}

// MarkConnectionError records a poll failure without throwing, per the
// status poller's contract (spec.md §4.7).
func (c *DeviceController) MarkConnectionError(now time.Time) {
	c.Status.Flags.ConnectionError = true
	c.Status.UpdatedAt = now
}

// PokeBuzzer increments the stalled-awaiting-human counter and reports
// whether the threshold was crossed, in which case the caller should send
// the buzzer command and this counter resets to zero (spec.md §4.2,
// confirmed by original_source's stalled-poll heuristic in §3 of
// SPEC_FULL.md).
func (c *DeviceController) PokeBuzzer(threshold int) (shouldBeep bool) {
	c.NotificationCount++
	if c.NotificationCount >= threshold {
		c.NotificationCount = 0
		return true
	}
	return false
}

// ResetBuzzer clears the stalled-poll counter once the gate clears.
func (c *DeviceController) ResetBuzzer() {
	c.NotificationCount = 0
}
