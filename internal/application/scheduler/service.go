package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/print-farm/farm-go/internal/application/common"
	"github.com/print-farm/farm-go/internal/domain/device"
	"github.com/print-farm/farm-go/internal/domain/filament"
	"github.com/print-farm/farm-go/internal/domain/piece"
	"github.com/print-farm/farm-go/internal/domain/printer"
	"github.com/print-farm/farm-go/internal/domain/schedule"
	"github.com/print-farm/farm-go/internal/domain/shared"
)

// Service is the periodic Scheduler (C5): it snapshots pending pieces and
// fleet state, runs the Solver, and persists the resulting Schedule.
type Service struct {
	PieceRepo          piece.Repository
	OrderRepo          piece.OrderRepository
	GeometryRepo       piece.GeometryModelRepository
	SliceJobRepo       piece.SliceJobRepository
	PrinterRepo        printer.Repository
	ControllerRepo     printer.ControllerRepository
	TaskRepo           device.Repository
	ProfileRepo        filament.PrinterProfileRepository
	ScheduleRepo       schedule.Repository
	Clock              shared.Clock

	HorizonCap time.Duration
	TimeZone   *time.Location
	Zones      []schedule.ForbiddenZone
}

// Run executes one scheduler tick, coalescing with any in-flight run per
// spec.md §4.7 ("if the most recent Schedule is ready, run; otherwise
// skipped" -- callers are expected to check schedule.Ready() themselves
// before invoking Run again).
func (s *Service) Run(ctx context.Context) (*schedule.Schedule, error) {
	logger := common.LoggerFromContext(ctx)
	now := s.Clock.Now()
	sc := schedule.NewSchedule(now)

	pieces, err := s.PieceRepo.FindPlaceable(ctx)
	if err != nil {
		return nil, fmt.Errorf("find placeable pieces: %w", err)
	}
	enabledPrinters, err := s.PrinterRepo.FindEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("find enabled printers: %w", err)
	}

	// A printer whose controller isn't connection-ready (unreachable for
	// more than one poll cycle) is left out of the machine set entirely,
	// not just skipped for new entries: its already-launched active task
	// is still represented separately below via the in-flight branch.
	printers := make([]*printer.Printer, 0, len(enabledPrinters))
	for _, p := range enabledPrinters {
		c, err := s.ControllerRepo.FindByPrinterID(ctx, p.ID)
		if err != nil || !c.ConnectionReady() {
			continue
		}
		printers = append(printers, p)
	}

	machineIDs := make([]uuid.UUID, 0, len(printers))
	profileByPrinter := map[uuid.UUID]*filament.PrinterProfile{}
	for _, p := range printers {
		machineIDs = append(machineIDs, p.ID)
		if prof, err := s.ProfileRepo.FindByID(ctx, p.PrinterProfileID); err == nil {
			profileByPrinter[p.ID] = prof
		}
	}

	var tasks []SchedulableTask
	for _, p := range pieces {
		order, err := s.OrderRepo.FindByID(ctx, p.OrderID)
		if err != nil {
			logger.Log("warn", "skip piece with unresolvable order", map[string]interface{}{"piece_id": p.ID.String()})
			continue
		}

		processing, ok := s.processingTime(ctx, p)
		if !ok {
			continue
		}

		compatible := s.compatibleMachines(ctx, p, printers, profileByPrinter)
		if len(compatible) == 0 {
			continue
		}

		deadline := time.Duration(order.DeadlineFromNow(now)) * time.Second
		tasks = append(tasks, SchedulableTask{
			PieceID:        uuidPtr(p.ID),
			ProcessingTime: processing,
			Deadline:       deadline,
			Compatible:     compatible,
		})
	}

	for _, c := range mustControllers(ctx, s.ControllerRepo) {
		if c.ActiveTaskID == nil {
			continue
		}
		t, err := s.TaskRepo.FindByID(ctx, *c.ActiveTaskID)
		if err != nil || t.Finished() {
			continue
		}
		left := t.TimeLeft(now, now.Add(10*time.Minute), nil, 0)
		tasks = append(tasks, SchedulableTask{
			DeviceTaskID:   uuidPtr(t.ID),
			ProcessingTime: time.Duration(left) * time.Second,
			Deadline:       time.Duration(left+86400) * time.Second,
			InFlightOn:     uuidPtr(c.PrinterID),
		})
	}

	solver := &Solver{Location: s.TimeZone}
	status, entries, diagnostics := solver.Solve(now, s.HorizonCap, s.Zones, tasks, machineIDs)
	sc.Finish(s.Clock.Now(), status, diagnostics, entries)

	if err := s.ScheduleRepo.Save(ctx, sc); err != nil {
		return nil, fmt.Errorf("save schedule: %w", err)
	}
	return sc, nil
}

// processingTime resolves a piece's build-time estimate from its quote
// handle; returns ok=false when the quote isn't ready yet.
func (s *Service) processingTime(ctx context.Context, p *piece.Piece) (time.Duration, bool) {
	if p.SliceJobID == uuid.Nil {
		return 0, false
	}
	sj, err := s.SliceJobRepo.FindByID(ctx, p.SliceJobID)
	if err != nil || sj == nil || !sj.Ready {
		return 0, false
	}
	return sj.EstimatedBuildTime, true
}

// compatibleMachines implements spec.md §4.5's compatibility predicate.
func (s *Service) compatibleMachines(ctx context.Context, p *piece.Piece, printers []*printer.Printer, profiles map[uuid.UUID]*filament.PrinterProfile) []uuid.UUID {
	var out []uuid.UUID
	for _, pr := range printers {
		if p.PrintSettings != nil {
			if p.PrintSettings.PrinterProfileID != pr.PrinterProfileID {
				continue
			}
			out = append(out, pr.ID)
			continue
		}

		if p.GeometryModelID != nil {
			geo, err := s.GeometryRepo.FindByID(ctx, *p.GeometryModelID)
			prof := profiles[pr.ID]
			if err != nil || geo == nil || prof == nil {
				continue
			}
			if !geo.FitsBed(prof.BuildVolumeXMM, prof.BuildVolumeYMM, prof.BuildVolumeZMM) {
				continue
			}
		}

		out = append(out, pr.ID)
	}
	return out
}

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }

func mustControllers(ctx context.Context, repo printer.ControllerRepository) []*printer.DeviceController {
	cs, err := repo.List(ctx)
	if err != nil {
		return nil
	}
	return cs
}
