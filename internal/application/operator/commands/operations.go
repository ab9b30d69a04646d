// Package commands implements the operator REST surface's write-side
// operations: confirming a filament change, confirming a job result,
// cancelling the active task, resetting a printer, and toggling it
// enabled/disabled.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/print-farm/farm-go/internal/application/common"
	"github.com/print-farm/farm-go/internal/application/controller"
	"github.com/print-farm/farm-go/internal/domain/device"
	"github.com/print-farm/farm-go/internal/domain/job"
	"github.com/print-farm/farm-go/internal/domain/printer"
)

// ControllerServiceLocator resolves the running Service for a printer id.
type ControllerServiceLocator func(printerID uuid.UUID) (*controller.Service, bool)

// ConfirmFilamentChangeCommand backs
// "POST /operations/confirm_filament_change/<id>".
type ConfirmFilamentChangeCommand struct {
	FilamentChangeID uuid.UUID
}

// ConfirmFilamentChangeHandler handles ConfirmFilamentChangeCommand.
type ConfirmFilamentChangeHandler struct {
	FilamentChangeRepo printer.FilamentChangeRepository
	PrinterRepo        printer.Repository
	ControllerRepo     printer.ControllerRepository
	TaskRepo           device.Repository
	Now                func() time.Time
}

// Handle confirms the change and commits the filament swap onto the
// printer in the same operation (spec.md §8's round-trip invariant
// "fc.confirmed => printer.filament = fc.new_filament").
func (h *ConfirmFilamentChangeHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*ConfirmFilamentChangeCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	fc, err := h.FilamentChangeRepo.FindByID(ctx, cmd.FilamentChangeID)
	if err != nil {
		return nil, fmt.Errorf("find filament change: %w", err)
	}
	fc.Confirm(h.Now())
	if err := h.FilamentChangeRepo.Save(ctx, fc); err != nil {
		return nil, fmt.Errorf("save filament change: %w", err)
	}

	t, err := h.TaskRepo.FindByID(ctx, fc.DeviceTaskID)
	if err != nil {
		return nil, fmt.Errorf("find device task: %w", err)
	}
	if err := t.Complete(); err != nil {
		return nil, fmt.Errorf("complete filament change task: %w", err)
	}
	if err := h.TaskRepo.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("save completed filament change task: %w", err)
	}
	c, err := h.ControllerRepo.FindByID(ctx, t.ControllerID)
	if err != nil {
		return nil, fmt.Errorf("find controller: %w", err)
	}
	p, err := h.PrinterRepo.FindByID(ctx, c.PrinterID)
	if err != nil {
		return nil, fmt.Errorf("find printer: %w", err)
	}
	p.LoadFilament(fc.NewFilamentID)
	if err := h.PrinterRepo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save printer: %w", err)
	}
	return nil, nil
}

// ConfirmJobResultCommand backs "POST /operations/confirm_job_result/<id>".
type ConfirmJobResultCommand struct {
	PrintJobID uuid.UUID
	Success    bool
}

// ConfirmJobResultHandler handles ConfirmJobResultCommand.
type ConfirmJobResultHandler struct {
	JobRepo job.Repository
	Now     func() time.Time
}

// Handle records the operator's success/failure verdict on a print job.
func (h *ConfirmJobResultHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*ConfirmJobResultCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	pj, err := h.JobRepo.FindByID(ctx, cmd.PrintJobID)
	if err != nil {
		return nil, fmt.Errorf("find print job: %w", err)
	}
	pj.ConfirmResult(cmd.Success, h.Now())
	if err := h.JobRepo.Save(ctx, pj); err != nil {
		return nil, fmt.Errorf("save print job: %w", err)
	}
	return nil, nil
}

// CancelActiveTaskCommand backs "POST /operations/cancel_active_task/<id>".
type CancelActiveTaskCommand struct {
	PrinterID uuid.UUID
}

// CancelActiveTaskHandler handles CancelActiveTaskCommand.
type CancelActiveTaskHandler struct {
	Locate ControllerServiceLocator
}

// Handle delegates to the printer's controller Service, which owns the
// idempotent cancel-active contract.
func (h *CancelActiveTaskHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*CancelActiveTaskCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	svc, ok := h.Locate(cmd.PrinterID)
	if !ok {
		return nil, fmt.Errorf("no controller service for printer %s", cmd.PrinterID)
	}
	if err := svc.CancelActive(ctx, true); err != nil {
		return nil, fmt.Errorf("cancel active task: %w", err)
	}
	return nil, nil
}

// ResetPrinterCommand backs "POST /operations/reset_printer/<id>".
type ResetPrinterCommand struct {
	PrinterID uuid.UUID
}

// ResetPrinterHandler handles ResetPrinterCommand.
type ResetPrinterHandler struct {
	Locate ControllerServiceLocator
}

// Handle force-clears the controller's active slot and status cache.
func (h *ResetPrinterHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*ResetPrinterCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	svc, ok := h.Locate(cmd.PrinterID)
	if !ok {
		return nil, fmt.Errorf("no controller service for printer %s", cmd.PrinterID)
	}
	if err := svc.Reset(ctx); err != nil {
		return nil, fmt.Errorf("reset controller: %w", err)
	}
	return nil, nil
}

// TogglePrinterEnabledCommand backs
// "POST /operations/toggle_printer_en_dis/<id>".
type TogglePrinterEnabledCommand struct {
	PrinterID uuid.UUID
}

// TogglePrinterEnabledHandler handles TogglePrinterEnabledCommand.
type TogglePrinterEnabledHandler struct {
	PrinterRepo printer.Repository
}

// Handle flips the printer's enabled flag, excluding/including it from
// future scheduler runs.
func (h *TogglePrinterEnabledHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*TogglePrinterEnabledCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	p, err := h.PrinterRepo.FindByID(ctx, cmd.PrinterID)
	if err != nil {
		return nil, fmt.Errorf("find printer: %w", err)
	}
	p.ToggleEnabled()
	if err := h.PrinterRepo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save printer: %w", err)
	}
	return nil, nil
}
