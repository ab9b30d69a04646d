// Package steps holds the godog step definitions for the end-to-end
// scenarios in SPEC_FULL.md §8: one context/Initialize pair per scenario
// family, grounded on the teacher's container_logging_steps.go idiom
// (a reset-per-scenario context struct, PascalCase step methods, an
// InitializeXScenario registering function).
package steps

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/print-farm/farm-go/internal/adapters/persistence"
	"github.com/print-farm/farm-go/internal/application/controller"
	"github.com/print-farm/farm-go/internal/application/dispatcher"
	"github.com/print-farm/farm-go/internal/application/scheduler"
	"github.com/print-farm/farm-go/internal/domain/device"
	"github.com/print-farm/farm-go/internal/domain/filament"
	"github.com/print-farm/farm-go/internal/domain/job"
	"github.com/print-farm/farm-go/internal/domain/piece"
	"github.com/print-farm/farm-go/internal/domain/ports"
	"github.com/print-farm/farm-go/internal/domain/printer"
	"github.com/print-farm/farm-go/internal/domain/schedule"
	"github.com/print-farm/farm-go/internal/domain/shared"
	"github.com/print-farm/farm-go/internal/infrastructure/database"
)

// fakeDeviceClient is a scripted ports.DeviceAPIClient test double, one
// per printer. Each FetchPrinterState call pops the next queued printing
// flag, repeating the last entry once the queue drains, so a step can
// script a short "printing, then idle" sequence without depending on
// wall-clock timing.
type fakeDeviceClient struct {
	mu             sync.Mutex
	printingStates []bool
	remoteFile     string
	unreachable    bool
	cancelCalls    int
	issuedCommands [][]string
}

func newFakeDeviceClient() *fakeDeviceClient {
	return &fakeDeviceClient{printingStates: []bool{false}}
}

func (f *fakeDeviceClient) Ping(ctx context.Context) (bool, error) {
	if f.unreachable {
		return false, fmt.Errorf("connection refused")
	}
	return true, nil
}

func (f *fakeDeviceClient) IssueCommands(ctx context.Context, lines []string) error {
	if f.unreachable {
		return fmt.Errorf("connection refused")
	}
	f.mu.Lock()
	f.issuedCommands = append(f.issuedCommands, lines)
	f.mu.Unlock()
	return nil
}

func (f *fakeDeviceClient) UploadAndStart(ctx context.Context, filename string, content io.Reader) (string, error) {
	if f.unreachable {
		return "", fmt.Errorf("connection refused")
	}
	f.mu.Lock()
	f.remoteFile = filename
	f.mu.Unlock()
	return filename, nil
}

func (f *fakeDeviceClient) FetchPrinterState(ctx context.Context) (ports.PrinterState, error) {
	if f.unreachable {
		return ports.PrinterState{}, fmt.Errorf("connection refused")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	printing := f.printingStates[0]
	if len(f.printingStates) > 1 {
		f.printingStates = f.printingStates[1:]
	}
	return ports.PrinterState{Operational: true, Ready: !printing, Printing: printing}, nil
}

func (f *fakeDeviceClient) FetchJobState(ctx context.Context) (ports.JobState, error) {
	if f.unreachable {
		return ports.JobState{}, fmt.Errorf("connection refused")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return ports.JobState{FileName: f.remoteFile}, nil
}

func (f *fakeDeviceClient) Cancel(ctx context.Context) error {
	f.mu.Lock()
	f.cancelCalls++
	f.mu.Unlock()
	return nil
}

var _ ports.DeviceAPIClient = (*fakeDeviceClient)(nil)

// fakeSlicer is a scripted ports.SlicerClient: every submitted job reports
// ready immediately with a fixed build-time estimate, since the scenarios
// exercise the dispatch/controller state machine, not the slicing stub's
// own async-completion behavior (already covered by the stub's own tests).
type fakeSlicer struct {
	mu      sync.Mutex
	results map[uuid.UUID]ports.SliceResult
}

func newFakeSlicer() *fakeSlicer {
	return &fakeSlicer{results: map[uuid.UUID]ports.SliceResult{}}
}

func (f *fakeSlicer) Submit(ctx context.Context, req ports.SliceRequest) (uuid.UUID, error) {
	id := uuid.New()
	f.mu.Lock()
	f.results[id] = ports.SliceResult{
		Ready:              true,
		EstimatedBuildTime: 3600,
		EstimatedWeightG:   20,
		ProgramFile:        id.String() + ".gcode",
	}
	f.mu.Unlock()
	return id, nil
}

func (f *fakeSlicer) Result(ctx context.Context, jobID uuid.UUID) (ports.SliceResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.results[jobID]
	if !ok {
		return ports.SliceResult{}, fmt.Errorf("unknown slice job %s", jobID)
	}
	return r, nil
}

var _ ports.SlicerClient = (*fakeSlicer)(nil)

// fakeProgramSource hands back a fixed program body regardless of the
// requested file, standing in for the real filesystem/slicer-output
// sources the dispatcher would otherwise point at.
type fakeProgramSource struct{}

func (fakeProgramSource) Open(ctx context.Context, t *device.Task) (string, []byte, error) {
	name := t.ProgramFile
	if name == "" {
		name = "program.gcode"
	}
	return name, []byte("; stub program\n"), nil
}

var _ controller.ProgramSource = fakeProgramSource{}

// farmFixture bundles the repositories and wired services one scenario
// exercises, with one DeviceController/Service/fake client per named
// printer so multi-printer scenarios (the swap heuristic, the unreachable
// printer) can script each independently. Nothing goes over HTTP and no
// background runner goroutine runs; steps call the scheduler/dispatcher/
// controller services directly, matching the teacher's BDD style of
// driving application services straight from step definitions.
type farmFixture struct {
	db *gorm.DB

	pieceRepo     piece.Repository
	orderRepo     piece.OrderRepository
	geometryRepo  piece.GeometryModelRepository
	sliceJobRepo  piece.SliceJobRepository
	unitPieceRepo piece.UnitPieceRepository

	printerRepo        printer.Repository
	controllerRepo     printer.ControllerRepository
	filamentChangeRepo printer.FilamentChangeRepository

	filamentRepo        filament.Repository
	printerProfileRepo  filament.PrinterProfileRepository
	materialProfileRepo filament.MaterialProfileRepository
	sliceConfigRepo     filament.SliceConfigurationRepository

	taskRepo device.Repository
	jobRepo  job.Repository

	scheduleRepo schedule.Repository

	clock *shared.MockClock

	slicer *fakeSlicer

	printers       map[string]*printer.Printer
	controllers    map[string]*printer.DeviceController
	controllerSvcs map[string]*controller.Service

	// controllerSvcsByID is the same controller.Service values as
	// controllerSvcs, keyed by printer id instead of scenario name -- the
	// shape dispatcher.Dispatcher.ControllerServices requires. createPrinter
	// keeps both maps in sync.
	controllerSvcsByID map[uuid.UUID]*controller.Service
	deviceClients      map[string]*fakeDeviceClient

	schedulerSvc *scheduler.Service
	dispatch     *dispatcher.Dispatcher
}

// newFarmFixture wires a fresh in-memory database and the scheduler/
// dispatcher services, with no printers yet -- a scenario adds its own
// fleet via createPrinter.
func newFarmFixture() *farmFixture {
	db, err := database.NewTestConnection()
	if err != nil {
		panic(fmt.Sprintf("open test database: %v", err))
	}

	clock := shared.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	f := &farmFixture{
		db: db,

		pieceRepo:     persistence.NewGormPieceRepository(db),
		orderRepo:     persistence.NewGormOrderRepository(db),
		geometryRepo:  persistence.NewGormGeometryModelRepository(db),
		sliceJobRepo:  persistence.NewGormSliceJobRepository(db),
		unitPieceRepo: persistence.NewGormUnitPieceRepository(db),

		printerRepo:        persistence.NewGormPrinterRepository(db),
		controllerRepo:     persistence.NewGormControllerRepository(db),
		filamentChangeRepo: persistence.NewGormFilamentChangeRepository(db),

		filamentRepo:        persistence.NewGormFilamentRepository(db),
		printerProfileRepo:  persistence.NewGormPrinterProfileRepository(db),
		materialProfileRepo: persistence.NewGormMaterialProfileRepository(db),
		sliceConfigRepo:     persistence.NewGormSliceConfigurationRepository(db),

		taskRepo: persistence.NewGormDeviceTaskRepository(db, clock),
		jobRepo:  persistence.NewGormPrintJobRepository(db),

		scheduleRepo: persistence.NewGormScheduleRepository(db),

		clock: clock,

		slicer: newFakeSlicer(),

		printers:           map[string]*printer.Printer{},
		controllers:        map[string]*printer.DeviceController{},
		controllerSvcs:     map[string]*controller.Service{},
		controllerSvcsByID: map[uuid.UUID]*controller.Service{},
		deviceClients:      map[string]*fakeDeviceClient{},
	}

	f.schedulerSvc = &scheduler.Service{
		PieceRepo:      f.pieceRepo,
		OrderRepo:      f.orderRepo,
		GeometryRepo:   f.geometryRepo,
		SliceJobRepo:   f.sliceJobRepo,
		PrinterRepo:    f.printerRepo,
		ControllerRepo: f.controllerRepo,
		TaskRepo:       f.taskRepo,
		ProfileRepo:    f.printerProfileRepo,
		ScheduleRepo:   f.scheduleRepo,
		Clock:          f.clock,
		HorizonCap:     30 * 24 * time.Hour,
		TimeZone:       time.UTC,
	}

	f.dispatch = &dispatcher.Dispatcher{
		PieceRepo:           f.pieceRepo,
		PrinterRepo:         f.printerRepo,
		FilamentRepo:        f.filamentRepo,
		ControllerRepo:      f.controllerRepo,
		ControllerServices:  f.controllerSvcsByID, // same map: later createPrinter calls are visible
		TaskRepo:            f.taskRepo,
		JobRepo:             f.jobRepo,
		UnitPieceRepo:       f.unitPieceRepo,
		FilamentChangeRepo:  f.filamentChangeRepo,
		SliceConfigRepo:     f.sliceConfigRepo,
		SliceJobRepo:        f.sliceJobRepo,
		MaterialProfileRepo: f.materialProfileRepo,
		Slicer:              f.slicer,
		Clock:               f.clock,
	}

	return f
}

func (f *farmFixture) ctx() context.Context {
	return context.Background()
}

// createPrinterProfile persists a printer profile with the given build
// volume and supported materials.
func (f *farmFixture) createPrinterProfile(buildX, buildY, buildZ float64, materials []string) *filament.PrinterProfile {
	prof := &filament.PrinterProfile{
		ID:                 uuid.New(),
		Name:               "profile",
		BuildVolumeXMM:     buildX,
		BuildVolumeYMM:     buildY,
		BuildVolumeZMM:     buildZ,
		SupportedMaterials: materials,
	}
	if err := f.printerProfileRepo.Save(f.ctx(), prof); err != nil {
		panic(err)
	}
	return prof
}

// createMaterialProfile persists a material profile with the given
// temperature setpoints.
func (f *farmFixture) createMaterialProfile(bedC, nozzleC int) *filament.MaterialProfile {
	prof := &filament.MaterialProfile{ID: uuid.New(), Name: "material", BedTempC: bedC, NozzleTempC: nozzleC}
	if err := f.materialProfileRepo.Save(f.ctx(), prof); err != nil {
		panic(err)
	}
	return prof
}

// createQuotingProfile persists a SliceConfiguration and marks it as the
// single quoting profile, required before any slice_then_program task can
// be dispatched (dispatcher.buildSliceThenProgramTask errors otherwise).
func (f *farmFixture) createQuotingProfile() *filament.SliceConfiguration {
	cfg := &filament.SliceConfiguration{ID: uuid.New(), Name: "quoting", QuotingProfile: true}
	if err := f.sliceConfigRepo.Save(f.ctx(), cfg); err != nil {
		panic(err)
	}
	if err := f.sliceConfigRepo.SetQuotingProfile(f.ctx(), cfg.ID); err != nil {
		panic(err)
	}
	return cfg
}

// createPrinter persists a printer and its 1:1 controller under name,
// wires a controller.Service with all four runner kinds against a fresh
// fake device client for that printer, and registers it with the
// fixture's scheduler/dispatcher.
func (f *farmFixture) createPrinter(name string, profileID uuid.UUID) *printer.Printer {
	p := printer.NewPrinter(name, profileID)
	if err := f.printerRepo.Save(f.ctx(), p); err != nil {
		panic(err)
	}

	c := printer.NewDeviceController(p.ID, "http://"+name+".local", "test-key")
	c.RecordPollCycle(printer.Status{Flags: printer.Flags{Operational: true, Ready: true}}, f.clock.Now())
	if err := f.controllerRepo.Save(f.ctx(), c); err != nil {
		panic(err)
	}

	client := newFakeDeviceClient()
	commandRunner := &controller.CommandRunner{Client: client}
	programRunner := &controller.ProgramRunner{Client: client, Source: fakeProgramSource{}, Clock: f.clock, PollDelay: time.Millisecond}

	svc := &controller.Service{
		Controller:         c,
		ControllerRepo:     f.controllerRepo,
		TaskRepo:           f.taskRepo,
		JobRepo:            f.jobRepo,
		FilamentChangeRepo: f.filamentChangeRepo,
		Client:             client,
		Clock:              f.clock,
		BeepThreshold:      3,
		Runners: map[device.Kind]device.Runner{
			device.KindCommand: commandRunner,
			device.KindProgram: programRunner,
			device.KindSliceThenProgram: &controller.SliceThenProgramRunner{
				Slicer: f.slicer, Program: programRunner, Clock: f.clock, PollDelay: time.Millisecond,
			},
			device.KindFilamentChange: &controller.FilamentChangeRunner{Command: commandRunner},
		},
	}

	f.printers[name] = p
	f.controllers[name] = c
	f.controllerSvcs[name] = svc
	f.controllerSvcsByID[p.ID] = svc
	f.deviceClients[name] = client

	return p
}

// createFilament persists a filament spool of the given material/color.
func (f *farmFixture) createFilament(material, color string, profileID uuid.UUID) *filament.Filament {
	fil, err := filament.NewFilament(material, color, profileID, 900)
	if err != nil {
		panic(err)
	}
	if err := f.filamentRepo.Save(f.ctx(), fil); err != nil {
		panic(err)
	}
	return fil
}

// loadFilament marks p as carrying fil, both in memory and persisted.
func (f *farmFixture) loadFilament(p *printer.Printer, fil *filament.Filament) {
	p.LoadFilament(fil.ID)
	if err := f.printerRepo.Save(f.ctx(), p); err != nil {
		panic(err)
	}
}

// createOrder persists an order due in the given duration from now.
func (f *farmFixture) createOrder(dueIn time.Duration) *piece.Order {
	o, err := piece.NewOrder("acceptance-test", f.clock.Now().Add(dueIn), 3)
	if err != nil {
		panic(err)
	}
	if err := f.orderRepo.Save(f.ctx(), o); err != nil {
		panic(err)
	}
	return o
}

// createGeometryPiece persists a geometry model, a ready SliceJob quoting
// buildTime, and a Piece referencing both -- the shape the scheduler's
// FindPlaceable + processingTime resolution expects. Requires a quoting
// profile to already exist, since the dispatcher slices geometry pieces
// through one.
func (f *farmFixture) createGeometryPiece(orderID uuid.UUID, materials, colors []string, buildTime time.Duration, sizeX, sizeY, sizeZ float64) *piece.Piece {
	geo := &piece.GeometryModel{ID: uuid.New(), FileName: "part.stl", SizeXMM: sizeX, SizeYMM: sizeY, SizeZMM: sizeZ}
	if err := f.geometryRepo.Save(f.ctx(), geo); err != nil {
		panic(err)
	}

	p, err := piece.NewPieceFromGeometry(orderID, geo.ID, 1, 1.0, materials, colors)
	if err != nil {
		panic(err)
	}

	sj := &piece.SliceJob{ID: uuid.New(), Ready: true, EstimatedBuildTime: buildTime, EstimatedWeightG: 20}
	if err := f.sliceJobRepo.Save(f.ctx(), sj); err != nil {
		panic(err)
	}
	p.SliceJobID = sj.ID

	if err := f.pieceRepo.Save(f.ctx(), p); err != nil {
		panic(err)
	}
	return p
}

// createProgramPiece persists a ready-to-run-program Piece (no geometry,
// so the dispatcher launches a plain "program" task rather than
// "slice_then_program"), optionally pinned to a single printer profile so
// the scheduler's compatibility check admits only that one printer.
func (f *farmFixture) createProgramPiece(orderID uuid.UUID, programFile string, materials, colors []string, buildTime time.Duration, pinnedProfileID *uuid.UUID) *piece.Piece {
	p, err := piece.NewPieceFromProgram(orderID, programFile, 1, 1.0, materials, colors)
	if err != nil {
		panic(err)
	}
	if pinnedProfileID != nil {
		p.PrintSettings = &piece.PrintSettings{PrinterProfileID: *pinnedProfileID}
	}

	sj := &piece.SliceJob{ID: uuid.New(), Ready: true, EstimatedBuildTime: buildTime, EstimatedWeightG: 20}
	if err := f.sliceJobRepo.Save(f.ctx(), sj); err != nil {
		panic(err)
	}
	p.SliceJobID = sj.ID

	if err := f.pieceRepo.Save(f.ctx(), p); err != nil {
		panic(err)
	}
	return p
}

// runSchedulerAndDispatch runs one scheduler tick and, if it came back
// OPTIMAL, immediately dispatches it -- the two periodic ticks the
// scenarios treat as a single "the fleet runs a cycle" step.
func (f *farmFixture) runSchedulerAndDispatch() (*schedule.Schedule, error) {
	sc, err := f.schedulerSvc.Run(f.ctx())
	if err != nil {
		return nil, err
	}
	if err := f.dispatch.Dispatch(f.ctx(), sc); err != nil {
		return sc, err
	}
	return sc, nil
}

// clearActiveIfFinished empties the named controller's active slot once
// its task has reached a terminal state, mirroring the first half of
// Service.DispatchTick.
func (f *farmFixture) clearActiveIfFinished(printerName string) error {
	c := f.controllers[printerName]
	if c.ActiveTaskID == nil {
		return nil
	}
	t, err := f.taskRepo.FindByID(f.ctx(), *c.ActiveTaskID)
	if err != nil {
		return err
	}
	if t.Finished() {
		c.ClearActiveTask()
		return f.controllerRepo.Save(f.ctx(), c)
	}
	return nil
}

// claimNextTask replicates Service.DispatchTick's claim logic for the
// named printer's controller -- clearing a finished active slot, finding
// the first queued task whose dependency chain (one level, which is all
// any scenario here builds) is satisfied, and claiming it -- without
// running it. Returns nil, nil if the active slot is occupied or nothing
// is runnable.
func (f *farmFixture) claimNextTask(printerName string) (*device.Task, error) {
	c := f.controllers[printerName]

	if err := f.clearActiveIfFinished(printerName); err != nil {
		return nil, err
	}
	if c.ActiveTaskID != nil {
		return nil, nil
	}

	queued, err := f.taskRepo.FindQueuedByController(f.ctx(), c.ID)
	if err != nil {
		return nil, err
	}

	var next *device.Task
	for _, t := range queued {
		if t.Dependency == nil {
			next = t
			break
		}
		dep, derr := f.taskRepo.FindByID(f.ctx(), *t.Dependency)
		if derr == nil && dep.Finished() && dep.Status() == device.StatusDone {
			next = t
			break
		}
	}
	if next == nil {
		return nil, nil
	}

	if err := next.Claim(); err != nil {
		return nil, err
	}
	c.SetActiveTask(next.ID)
	if err := f.taskRepo.Save(f.ctx(), next); err != nil {
		return nil, err
	}
	if err := f.controllerRepo.Save(f.ctx(), c); err != nil {
		return nil, err
	}
	return next, nil
}

// dispatchTickSynchronous claims the named printer's next runnable task
// (via claimNextTask) and runs its Runner inline to a terminal state,
// instead of handing it to a background goroutine, so a step can assert
// on the outcome deterministically. Returns the task that ran, or nil if
// the active slot was occupied or nothing was runnable.
func (f *farmFixture) dispatchTickSynchronous(printerName string) (*device.Task, error) {
	next, err := f.claimNextTask(printerName)
	if err != nil || next == nil {
		return next, err
	}

	svc := f.controllerSvcs[printerName]
	runner, ok := svc.Runners[next.Kind]
	if !ok {
		return nil, fmt.Errorf("no runner for kind %s", next.Kind)
	}
	runErr := runner.Run(f.ctx(), next)
	if err := f.taskRepo.Save(f.ctx(), next); err != nil {
		return nil, err
	}
	return next, runErr
}
