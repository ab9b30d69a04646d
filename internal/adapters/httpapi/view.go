package httpapi

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/print-farm/farm-go/internal/application/operator/queries"
	"github.com/print-farm/farm-go/internal/domain/printer"
)

// printerView is the wire shape of "GET /printers": the printer and its
// controller's cached flags, plus a derived time_left in seconds for the
// active task, computed the way device.Task.TimeLeft defines it.
type printerView struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Disabled         bool       `json:"disabled"`
	LoadedFilamentID *uuid.UUID `json:"loaded_filament_id,omitempty"`

	Operational     bool    `json:"operational"`
	Printing        bool    `json:"printing"`
	Paused          bool    `json:"paused"`
	Ready           bool    `json:"ready"`
	ClosedOrError   bool    `json:"closed_or_error"`
	ConnectionError bool    `json:"connection_error"`
	NozzleActualC   float64 `json:"nozzle_actual_c"`
	BedActualC      float64 `json:"bed_actual_c"`

	ActiveTaskID *uuid.UUID `json:"active_task_id,omitempty"`
	TimeLeftS    *int64     `json:"time_left_s,omitempty"`
}

// toPrinterView joins the printer and controller with the active task's
// remaining-time estimate. A task lookup failure degrades to an absent
// time_left rather than failing the whole listing.
func (s *Server) toPrinterView(ctx context.Context, pv queries.PrinterView) printerView {
	v := printerView{
		ID:               pv.Printer.ID,
		Name:             pv.Printer.Name,
		Disabled:         pv.Printer.Disabled,
		LoadedFilamentID: pv.Printer.LoadedFilamentID,
	}

	c := pv.Controller
	if c == nil {
		return v
	}
	v.Operational = c.Status.Flags.Operational
	v.Printing = c.Status.Flags.Printing
	v.Paused = c.Status.Flags.Paused
	v.Ready = c.Status.Flags.Ready
	v.ClosedOrError = c.Status.Flags.ClosedOrError
	v.ConnectionError = c.Status.Flags.ConnectionError
	v.NozzleActualC = c.Status.Temperatures.NozzleActualC
	v.BedActualC = c.Status.Temperatures.BedActualC
	v.ActiveTaskID = c.ActiveTaskID

	if c.ActiveTaskID == nil || s.taskRepo == nil {
		return v
	}
	task, err := s.taskRepo.FindByID(ctx, *c.ActiveTaskID)
	if err != nil {
		return v
	}
	left := task.TimeLeft(s.now(), estimatedEnd(c), c.Status.Job.EstimatedLeftS, c.Status.Job.EstimatedTotalS)
	v.TimeLeftS = &left
	return v
}

// estimatedEnd derives a fallback estimated completion time from the
// cached status's last update plus its total-estimate, for the 600s floor
// branch of device.Task.TimeLeft when the remote reports no printTimeLeft.
func estimatedEnd(c *printer.DeviceController) time.Time {
	return c.Status.UpdatedAt.Add(time.Duration(c.Status.Job.EstimatedTotalS) * time.Second)
}
