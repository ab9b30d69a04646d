package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/print-farm/farm-go/internal/domain/device"
	"github.com/print-farm/farm-go/internal/domain/shared"
)

// GormDeviceTaskRepository implements device.Repository using GORM. Clock
// is needed to rehydrate each Task's lifecycle state machine on read.
type GormDeviceTaskRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

func NewGormDeviceTaskRepository(db *gorm.DB, clock shared.Clock) *GormDeviceTaskRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormDeviceTaskRepository{db: db, clock: clock}
}

func (r *GormDeviceTaskRepository) Save(ctx context.Context, t *device.Task) error {
	model, err := taskToModel(t)
	if err != nil {
		return fmt.Errorf("convert task to model: %w", err)
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("save device task: %w", err)
	}
	return nil
}

func (r *GormDeviceTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*device.Task, error) {
	var model DeviceTaskModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id.String()).Error; err != nil {
		return nil, fmt.Errorf("find device task: %w", err)
	}
	return r.taskFromModel(&model)
}

func (r *GormDeviceTaskRepository) FindQueuedByController(ctx context.Context, controllerID uuid.UUID) ([]*device.Task, error) {
	var models []DeviceTaskModel
	if err := r.db.WithContext(ctx).
		Where("controller_id = ? AND status = ?", controllerID.String(), string(device.StatusQueued)).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find queued tasks: %w", err)
	}
	out := make([]*device.Task, 0, len(models))
	for i := range models {
		t, err := r.taskFromModel(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func taskToModel(t *device.Task) (*DeviceTaskModel, error) {
	script, err := json.Marshal(t.CommandScript)
	if err != nil {
		return nil, fmt.Errorf("marshal command script: %w", err)
	}
	model := &DeviceTaskModel{
		ID:             t.ID.String(),
		ControllerID:   t.ControllerID.String(),
		Kind:           string(t.Kind),
		ProgramFile:    t.ProgramFile,
		CommandScript:  string(script),
		Sent:           t.Sent,
		RemoteFilename: t.RemoteFilename,
		Claimed:        t.Claimed,
		Status:         string(t.Status()),
		CreatedAt:      t.CreatedAt(),
		UpdatedAt:      t.UpdatedAt(),
		StartedAt:      t.StartedAt(),
		StoppedAt:      t.StoppedAt(),
	}
	if t.SliceJobID != nil {
		s := t.SliceJobID.String()
		model.SliceJobID = &s
	}
	if t.Dependency != nil {
		s := t.Dependency.String()
		model.Dependency = &s
	}
	if err := t.LastError(); err != nil {
		model.LastErrMsg = err.Error()
	}
	return model, nil
}

func (r *GormDeviceTaskRepository) taskFromModel(m *DeviceTaskModel) (*device.Task, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse task id: %w", err)
	}
	controllerID, err := uuid.Parse(m.ControllerID)
	if err != nil {
		return nil, fmt.Errorf("parse controller id: %w", err)
	}

	t := device.NewTask(controllerID, device.Kind(m.Kind), r.clock)
	t.ID = id
	t.ProgramFile = m.ProgramFile
	t.Sent = m.Sent
	t.RemoteFilename = m.RemoteFilename
	t.Claimed = m.Claimed

	if m.CommandScript != "" {
		var script []string
		if err := json.Unmarshal([]byte(m.CommandScript), &script); err != nil {
			return nil, fmt.Errorf("unmarshal command script: %w", err)
		}
		t.CommandScript = script
	}
	if m.SliceJobID != nil {
		sjID, err := uuid.Parse(*m.SliceJobID)
		if err != nil {
			return nil, fmt.Errorf("parse slice job id: %w", err)
		}
		t.SliceJobID = &sjID
	}
	if m.Dependency != nil {
		depID, err := uuid.Parse(*m.Dependency)
		if err != nil {
			return nil, fmt.Errorf("parse dependency id: %w", err)
		}
		t.Dependency = &depID
	}

	var lastErr error
	if m.LastErrMsg != "" {
		lastErr = errors.New(m.LastErrMsg)
	}
	t.Recover(r.clock, device.Status(m.Status), m.CreatedAt, m.UpdatedAt, m.StartedAt, m.StoppedAt, lastErr)
	return t, nil
}

var _ device.Repository = (*GormDeviceTaskRepository)(nil)
