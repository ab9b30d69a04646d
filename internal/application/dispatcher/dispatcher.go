// Package dispatcher implements the Dispatcher (C6): materializing the
// scheduler's "due now" entries into device tasks, reconciling filament,
// and applying the swap-to-avoid-filament-change heuristic.
package dispatcher

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/print-farm/farm-go/internal/application/controller"
	"github.com/print-farm/farm-go/internal/domain/device"
	"github.com/print-farm/farm-go/internal/domain/filament"
	"github.com/print-farm/farm-go/internal/domain/job"
	"github.com/print-farm/farm-go/internal/domain/piece"
	"github.com/print-farm/farm-go/internal/domain/ports"
	"github.com/print-farm/farm-go/internal/domain/printer"
	"github.com/print-farm/farm-go/internal/domain/schedule"
	"github.com/print-farm/farm-go/internal/domain/shared"
	"github.com/print-farm/farm-go/internal/domain/shared/apperr"
)

// Dispatcher is the Dispatcher (C6).
type Dispatcher struct {
	PieceRepo           piece.Repository
	PrinterRepo         printer.Repository
	FilamentRepo        filament.Repository
	ControllerRepo      printer.ControllerRepository
	ControllerServices  map[uuid.UUID]*controller.Service // keyed by printer id
	TaskRepo            device.Repository
	JobRepo             job.Repository
	UnitPieceRepo       piece.UnitPieceRepository
	FilamentChangeRepo  printer.FilamentChangeRepository
	SliceConfigRepo     filament.SliceConfigurationRepository
	SliceJobRepo        piece.SliceJobRepository
	MaterialProfileRepo filament.MaterialProfileRepository
	Slicer              ports.SlicerClient
	Clock               shared.Clock
}

// dueAssignment is a (piece, printer) pair chosen for launch this cycle,
// after the swap heuristic has run.
type dueAssignment struct {
	entry   *schedule.ScheduleEntry
	printer *printer.Printer
	piece   *piece.Piece
}

// Dispatch consumes a fresh schedule: non-OPTIMAL schedules are a no-op
// this cycle (spec.md §4.5, Open Question 2: no relaxation fallback).
func (d *Dispatcher) Dispatch(ctx context.Context, sc *schedule.Schedule) error {
	if sc.SolverStatus != schedule.StatusOptimal {
		return nil
	}

	now := d.Clock.Now()
	var due []*schedule.ScheduleEntry
	for _, e := range sc.Entries {
		if e.Due(now) {
			due = append(due, e)
		}
	}
	if len(due) == 0 {
		return nil
	}

	assignments := make([]dueAssignment, 0, len(due))
	for _, e := range due {
		p, err := d.PrinterRepo.FindByID(ctx, e.PrinterID)
		if err != nil {
			return fmt.Errorf("find printer %s: %w", e.PrinterID, err)
		}

		pc, err := d.PieceRepo.FindByID(ctx, *e.PieceID)
		if err != nil {
			return fmt.Errorf("find piece %s: %w", e.PieceID, err)
		}
		assignments = append(assignments, dueAssignment{entry: e, printer: p, piece: pc})
	}

	// Invariant check (spec.md §4.6 point 3): due entries count must equal
	// distinct due printers.
	seen := map[uuid.UUID]bool{}
	for _, a := range assignments {
		seen[a.printer.ID] = true
	}
	if len(seen) != len(assignments) {
		return fmt.Errorf("dispatcher invariant violated: %d due entries but %d distinct printers", len(assignments), len(seen))
	}

	d.applySwapHeuristic(ctx, assignments)

	for _, a := range assignments {
		if err := d.launch(ctx, sc, a); err != nil {
			if err == apperr.ErrFilamentUnavailable {
				continue // skip this cycle, next cycle retries
			}
			return err
		}
	}

	return nil
}

// applySwapHeuristic implements spec.md §4.6 point 1 exactly as
// specified, including its documented asymmetry (DESIGN.md Open Question
// 1): only the *target* printer's loaded filament is checked, swaps are
// not compared against each other, and the first improving swap is taken.
func (d *Dispatcher) applySwapHeuristic(ctx context.Context, assignments []dueAssignment) {
	for i := range assignments {
		for j := range assignments {
			if i == j {
				continue
			}
			e, q := assignments[i], assignments[j]
			if !d.pieceCompatibleWithLoaded(ctx, e.piece, q.printer) {
				continue
			}
			if d.pieceCompatibleWithLoaded(ctx, q.piece, q.printer) {
				continue // target already correct, no improving swap
			}
			// Swap e's piece onto q's printer and vice versa.
			assignments[i].piece, assignments[j].piece = assignments[j].piece, assignments[i].piece
		}
	}
}

func (d *Dispatcher) pieceCompatibleWithLoaded(ctx context.Context, p *piece.Piece, pr *printer.Printer) bool {
	if pr.LoadedFilamentID == nil {
		return false
	}
	f, err := d.FilamentRepo.FindByID(ctx, *pr.LoadedFilamentID)
	if err != nil {
		return false
	}
	for _, m := range p.Materials {
		if f.Material != m {
			continue
		}
		if len(p.Colors) == 0 {
			return true
		}
		for _, c := range p.Colors {
			if f.Color == c {
				return true
			}
		}
	}
	return false
}

// launch materializes one (piece, printer) assignment into device tasks,
// a PrintJob, and a UnitPiece (spec.md §4.6 point 2).
func (d *Dispatcher) launch(ctx context.Context, sc *schedule.Schedule, a dueAssignment) error {
	svc, ok := d.ControllerServices[a.printer.ID]
	if !ok {
		return fmt.Errorf("no controller service for printer %s", a.printer.ID)
	}

	chosenFilamentID, err := d.chooseFilament(ctx, a.piece, a.printer)
	if err != nil {
		return err
	}

	var programTask *device.Task
	if a.piece.HasGeometry() {
		programTask, err = d.buildSliceThenProgramTask(ctx, svc, a)
	} else {
		programTask = device.NewTask(svc.Controller.ID, device.KindProgram, d.Clock)
		programTask.ProgramFile = a.piece.ProgramFile
	}
	if err != nil {
		return err
	}

	loaded := a.printer.LoadedFilamentID
	if loaded == nil || *loaded != chosenFilamentID {
		fcTask, fc, err := d.buildFilamentChangeTask(ctx, svc, a.printer, chosenFilamentID)
		if err != nil {
			return err
		}
		dep := fcTask.ID
		programTask.Dependency = &dep
		if err := svc.Enqueue(ctx, fcTask); err != nil {
			return err
		}
		if err := d.FilamentChangeRepo.Save(ctx, fc); err != nil {
			return err
		}
	}

	if err := svc.Enqueue(ctx, programTask); err != nil {
		return err
	}

	pj := job.NewPrintJob(programTask.ID, chosenFilamentID, d.Clock.Now(), a.entry.End)
	if err := d.JobRepo.Save(ctx, pj); err != nil {
		return err
	}
	up := piece.NewUnitPiece(a.piece.ID, pj.ID)
	if err := d.UnitPieceRepo.Save(ctx, up); err != nil {
		return err
	}

	sc.RecordLaunched(programTask.ID)
	return nil
}

func (d *Dispatcher) chooseFilament(ctx context.Context, p *piece.Piece, pr *printer.Printer) (uuid.UUID, error) {
	if d.pieceCompatibleWithLoaded(ctx, p, pr) {
		return *pr.LoadedFilamentID, nil
	}
	candidates, err := d.FilamentRepo.FindAvailable(ctx, p.Materials, p.Colors)
	if err != nil {
		return uuid.Nil, fmt.Errorf("find available filament: %w", err)
	}
	pc := make([]piece.FilamentCandidate, len(candidates))
	for i, c := range candidates {
		pc[i] = piece.FilamentCandidate{ID: c.ID, Material: c.Material, Color: c.Color}
	}
	chosen := p.SelectFilament(pc)
	if chosen == nil {
		return uuid.Nil, apperr.ErrFilamentUnavailable
	}
	return chosen.ID, nil
}

func (d *Dispatcher) buildSliceThenProgramTask(ctx context.Context, svc *controller.Service, a dueAssignment) (*device.Task, error) {
	t := device.NewTask(svc.Controller.ID, device.KindSliceThenProgram, d.Clock)

	quoting, err := d.SliceConfigRepo.FindQuotingProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("find quoting profile: %w", err)
	}
	cfgID := uuid.Nil
	if quoting != nil {
		cfgID = quoting.ID
	}

	jobID, err := d.Slicer.Submit(ctx, ports.SliceRequest{
		SliceConfigurationID: cfgID,
		GeometryModelIDs:     []uuid.UUID{*a.piece.GeometryModelID},
		SaveProgram:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("submit slice job: %w", err)
	}
	t.SliceJobID = &jobID
	return t, nil
}

func (d *Dispatcher) buildFilamentChangeTask(ctx context.Context, svc *controller.Service, pr *printer.Printer, newFilamentID uuid.UUID) (*device.Task, *printer.FilamentChange, error) {
	newBed, newNozzle, err := d.materialTemps(ctx, newFilamentID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve new filament temps: %w", err)
	}
	var oldBed, oldNozzle float64
	if pr.LoadedFilamentID != nil {
		oldBed, oldNozzle, err = d.materialTemps(ctx, *pr.LoadedFilamentID)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve old filament temps: %w", err)
		}
	}

	t := device.NewTask(svc.Controller.ID, device.KindFilamentChange, d.Clock)
	t.CommandScript = printer.CommandProgram(newBed, oldBed, newNozzle, oldNozzle)

	fc := printer.NewFilamentChange(newFilamentID, t.ID)
	return t, fc, nil
}

// materialTemps resolves a filament's nozzle/bed setpoints via its
// MaterialProfile.
func (d *Dispatcher) materialTemps(ctx context.Context, filamentID uuid.UUID) (bedC, nozzleC float64, err error) {
	f, err := d.FilamentRepo.FindByID(ctx, filamentID)
	if err != nil {
		return 0, 0, err
	}
	prof, err := d.MaterialProfileRepo.FindByID(ctx, f.ProfileID)
	if err != nil {
		return 0, 0, err
	}
	return float64(prof.BedTempC), float64(prof.NozzleTempC), nil
}
