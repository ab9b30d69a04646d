package controller_test

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/print-farm/farm-go/internal/application/controller"
	"github.com/print-farm/farm-go/internal/domain/device"
	"github.com/print-farm/farm-go/internal/domain/job"
	"github.com/print-farm/farm-go/internal/domain/ports"
	"github.com/print-farm/farm-go/internal/domain/printer"
	"github.com/print-farm/farm-go/internal/domain/shared"
)

// These two tests exercise the human-intervention gate (spec.md §4.2)
// directly against Service.DispatchTick, with in-memory fakes standing in
// for the repositories -- the BDD suite's claimNextTask/
// dispatchTickSynchronous helpers reimplement half of DispatchTick's
// logic for determinism and don't exercise the gate itself.

type fakeTaskRepo struct {
	tasks map[uuid.UUID]*device.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[uuid.UUID]*device.Task{}}
}

func (r *fakeTaskRepo) Save(ctx context.Context, t *device.Task) error {
	r.tasks[t.ID] = t
	return nil
}

func (r *fakeTaskRepo) FindByID(ctx context.Context, id uuid.UUID) (*device.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s not found", id)
	}
	return t, nil
}

func (r *fakeTaskRepo) FindQueuedByController(ctx context.Context, controllerID uuid.UUID) ([]*device.Task, error) {
	return nil, nil
}

var _ device.Repository = (*fakeTaskRepo)(nil)

type fakeJobRepo struct {
	byID   map[uuid.UUID]*job.PrintJob
	byTask map[uuid.UUID]*job.PrintJob
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{byID: map[uuid.UUID]*job.PrintJob{}, byTask: map[uuid.UUID]*job.PrintJob{}}
}

func (r *fakeJobRepo) Save(ctx context.Context, j *job.PrintJob) error {
	r.byID[j.ID] = j
	r.byTask[j.DeviceTaskID] = j
	return nil
}

func (r *fakeJobRepo) FindByID(ctx context.Context, id uuid.UUID) (*job.PrintJob, error) {
	j, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("job %s not found", id)
	}
	return j, nil
}

func (r *fakeJobRepo) FindByDeviceTaskID(ctx context.Context, taskID uuid.UUID) (*job.PrintJob, error) {
	j, ok := r.byTask[taskID]
	if !ok {
		return nil, fmt.Errorf("no job for task %s", taskID)
	}
	return j, nil
}

func (r *fakeJobRepo) FindAwaitingConfirmation(ctx context.Context) ([]*job.PrintJob, error) {
	return nil, nil
}

var _ job.Repository = (*fakeJobRepo)(nil)

type fakeControllerRepo struct{}

func (r *fakeControllerRepo) Save(ctx context.Context, c *printer.DeviceController) error { return nil }
func (r *fakeControllerRepo) FindByID(ctx context.Context, id uuid.UUID) (*printer.DeviceController, error) {
	return nil, fmt.Errorf("not implemented")
}
func (r *fakeControllerRepo) FindByPrinterID(ctx context.Context, printerID uuid.UUID) (*printer.DeviceController, error) {
	return nil, fmt.Errorf("not implemented")
}
func (r *fakeControllerRepo) List(ctx context.Context) ([]*printer.DeviceController, error) {
	return nil, nil
}

var _ printer.ControllerRepository = (*fakeControllerRepo)(nil)

type fakeFilamentChangeRepo struct {
	changes map[uuid.UUID]*printer.FilamentChange
}

func newFakeFilamentChangeRepo() *fakeFilamentChangeRepo {
	return &fakeFilamentChangeRepo{changes: map[uuid.UUID]*printer.FilamentChange{}}
}

func (r *fakeFilamentChangeRepo) Save(ctx context.Context, fc *printer.FilamentChange) error {
	r.changes[fc.ID] = fc
	return nil
}

func (r *fakeFilamentChangeRepo) FindByID(ctx context.Context, id uuid.UUID) (*printer.FilamentChange, error) {
	fc, ok := r.changes[id]
	if !ok {
		return nil, fmt.Errorf("filament change %s not found", id)
	}
	return fc, nil
}

func (r *fakeFilamentChangeRepo) FindUnconfirmed(ctx context.Context) ([]*printer.FilamentChange, error) {
	var out []*printer.FilamentChange
	for _, fc := range r.changes {
		if !fc.Confirmed {
			out = append(out, fc)
		}
	}
	return out, nil
}

var _ printer.FilamentChangeRepository = (*fakeFilamentChangeRepo)(nil)

type fakeDeviceClient struct {
	issuedCommands [][]string
}

func (f *fakeDeviceClient) Ping(ctx context.Context) (bool, error) { return true, nil }
func (f *fakeDeviceClient) IssueCommands(ctx context.Context, lines []string) error {
	f.issuedCommands = append(f.issuedCommands, lines)
	return nil
}
func (f *fakeDeviceClient) UploadAndStart(ctx context.Context, filename string, content io.Reader) (string, error) {
	return filename, nil
}
func (f *fakeDeviceClient) FetchPrinterState(ctx context.Context) (ports.PrinterState, error) {
	return ports.PrinterState{}, nil
}
func (f *fakeDeviceClient) FetchJobState(ctx context.Context) (ports.JobState, error) {
	return ports.JobState{}, nil
}
func (f *fakeDeviceClient) Cancel(ctx context.Context) error { return nil }

var _ ports.DeviceAPIClient = (*fakeDeviceClient)(nil)

func newTestService(clock *shared.MockClock, ctrl *printer.DeviceController, taskRepo *fakeTaskRepo, jobRepo *fakeJobRepo, fcRepo *fakeFilamentChangeRepo, client *fakeDeviceClient) *controller.Service {
	return &controller.Service{
		Controller:         ctrl,
		ControllerRepo:     &fakeControllerRepo{},
		TaskRepo:           taskRepo,
		JobRepo:            jobRepo,
		FilamentChangeRepo: fcRepo,
		Client:             client,
		Clock:              clock,
		BeepThreshold:      3,
		Runners:            map[device.Kind]device.Runner{},
	}
}

func TestDispatchTick_FilamentChangeHoldsActiveSlotUntilConfirmed(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	ctrl := printer.NewDeviceController(uuid.New(), "http://p1.local", "test-key")
	ctrl.RecordPollCycle(printer.Status{Flags: printer.Flags{Operational: true, Ready: true}}, clock.Now())

	taskRepo := newFakeTaskRepo()
	jobRepo := newFakeJobRepo()
	fcRepo := newFakeFilamentChangeRepo()
	client := &fakeDeviceClient{}

	task := device.NewTask(ctrl.ID, device.KindFilamentChange, clock)
	require.NoError(t, task.Claim())
	ctrl.SetActiveTask(task.ID)
	require.NoError(t, taskRepo.Save(context.Background(), task))

	fc := printer.NewFilamentChange(uuid.New(), task.ID)
	require.NoError(t, fcRepo.Save(context.Background(), fc))

	svc := newTestService(clock, ctrl, taskRepo, jobRepo, fcRepo, client)

	// Act: unconfirmed -- the active slot must stay occupied.
	require.NoError(t, svc.DispatchTick(context.Background()))

	// Assert
	require.NotNil(t, ctrl.ActiveTaskID)
	assert.Equal(t, task.ID, *ctrl.ActiveTaskID)
	assert.False(t, task.Finished(), "a confirmed-pending filament change must not complete on its own")

	// Act: confirm, mirroring ConfirmFilamentChangeHandler's fix.
	fc.Confirm(clock.Now())
	require.NoError(t, fcRepo.Save(context.Background(), fc))
	require.NoError(t, task.Complete())
	require.NoError(t, taskRepo.Save(context.Background(), task))
	require.NoError(t, svc.DispatchTick(context.Background()))

	// Assert: the slot clears only once the task is both finished and confirmed.
	assert.Nil(t, ctrl.ActiveTaskID)
}

func TestDispatchTick_ProgramHoldsActiveSlotUntilJobResultConfirmed(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	ctrl := printer.NewDeviceController(uuid.New(), "http://p1.local", "test-key")
	ctrl.RecordPollCycle(printer.Status{Flags: printer.Flags{Operational: true, Ready: true}}, clock.Now())

	taskRepo := newFakeTaskRepo()
	jobRepo := newFakeJobRepo()
	fcRepo := newFakeFilamentChangeRepo()
	client := &fakeDeviceClient{}

	task := device.NewTask(ctrl.ID, device.KindProgram, clock)
	require.NoError(t, task.Claim())
	require.NoError(t, task.Complete()) // the program runner completes on print end
	ctrl.SetActiveTask(task.ID)
	require.NoError(t, taskRepo.Save(context.Background(), task))

	pj := job.NewPrintJob(task.ID, uuid.New(), clock.Now(), clock.Now())
	require.NoError(t, jobRepo.Save(context.Background(), pj))

	svc := newTestService(clock, ctrl, taskRepo, jobRepo, fcRepo, client)

	// Act: the print ended but the job's outcome is still unknown.
	require.NoError(t, svc.DispatchTick(context.Background()))

	// Assert: bed removal is still pending, so the slot must not clear.
	require.NotNil(t, ctrl.ActiveTaskID)
	assert.Equal(t, task.ID, *ctrl.ActiveTaskID)

	// Act: confirm_job_result arrives.
	pj.ConfirmResult(true, clock.Now())
	require.NoError(t, jobRepo.Save(context.Background(), pj))
	require.NoError(t, svc.DispatchTick(context.Background()))

	// Assert: the slot clears now that the outcome is known.
	assert.Nil(t, ctrl.ActiveTaskID)
}
