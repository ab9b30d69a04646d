// Package queries implements the operator REST surface's read-side
// operations: printer fleet status, pending filament changes, and print
// jobs awaiting confirmation.
package queries

import (
	"context"
	"fmt"

	"github.com/print-farm/farm-go/internal/application/common"
	"github.com/print-farm/farm-go/internal/domain/job"
	"github.com/print-farm/farm-go/internal/domain/printer"
)

// ListPrintersQuery backs "GET /printers".
type ListPrintersQuery struct{}

// PrinterView is the operator-facing projection of a printer and its
// controller.
type PrinterView struct {
	Printer    *printer.Printer
	Controller *printer.DeviceController
}

// ListPrintersResponse carries every printer with its controller state.
type ListPrintersResponse struct {
	Printers []PrinterView
}

// ListPrintersHandler handles ListPrintersQuery.
type ListPrintersHandler struct {
	PrinterRepo    printer.Repository
	ControllerRepo printer.ControllerRepository
}

// Handle joins every printer with its 1:1 controller.
func (h *ListPrintersHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	if _, ok := request.(*ListPrintersQuery); !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	printers, err := h.PrinterRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list printers: %w", err)
	}

	views := make([]PrinterView, 0, len(printers))
	for _, p := range printers {
		c, err := h.ControllerRepo.FindByPrinterID(ctx, p.ID)
		if err != nil {
			continue
		}
		views = append(views, PrinterView{Printer: p, Controller: c})
	}
	return &ListPrintersResponse{Printers: views}, nil
}

// ListPendingFilamentChangesQuery backs "GET /pending_filament_changes".
type ListPendingFilamentChangesQuery struct{}

// ListPendingFilamentChangesResponse carries every unconfirmed change.
type ListPendingFilamentChangesResponse struct {
	Changes []*printer.FilamentChange
}

// ListPendingFilamentChangesHandler handles ListPendingFilamentChangesQuery.
type ListPendingFilamentChangesHandler struct {
	FilamentChangeRepo printer.FilamentChangeRepository
}

// Handle returns the unconfirmed filament changes awaiting operator action.
func (h *ListPendingFilamentChangesHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	if _, ok := request.(*ListPendingFilamentChangesQuery); !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	changes, err := h.FilamentChangeRepo.FindUnconfirmed(ctx)
	if err != nil {
		return nil, fmt.Errorf("find unconfirmed filament changes: %w", err)
	}
	return &ListPendingFilamentChangesResponse{Changes: changes}, nil
}

// ListPrintJobsPendingConfirmationQuery backs
// "GET /print_jobs_pending_for_confirmation".
type ListPrintJobsPendingConfirmationQuery struct{}

// ListPrintJobsPendingConfirmationResponse carries jobs awaiting the
// operator's success/failure confirmation.
type ListPrintJobsPendingConfirmationResponse struct {
	Jobs []*job.PrintJob
}

// ListPrintJobsPendingConfirmationHandler handles the query above.
type ListPrintJobsPendingConfirmationHandler struct {
	JobRepo job.Repository
}

// Handle returns jobs awaiting confirmation.
func (h *ListPrintJobsPendingConfirmationHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	if _, ok := request.(*ListPrintJobsPendingConfirmationQuery); !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	jobs, err := h.JobRepo.FindAwaitingConfirmation(ctx)
	if err != nil {
		return nil, fmt.Errorf("find jobs awaiting confirmation: %w", err)
	}
	return &ListPrintJobsPendingConfirmationResponse{Jobs: jobs}, nil
}
