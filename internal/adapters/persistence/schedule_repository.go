package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/print-farm/farm-go/internal/domain/schedule"
)

// GormScheduleRepository implements schedule.Repository using GORM.
type GormScheduleRepository struct {
	db *gorm.DB
}

func NewGormScheduleRepository(db *gorm.DB) *GormScheduleRepository {
	return &GormScheduleRepository{db: db}
}

func (r *GormScheduleRepository) Save(ctx context.Context, s *schedule.Schedule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		launched := make([]string, len(s.LaunchedTasks))
		for i, id := range s.LaunchedTasks {
			launched[i] = id.String()
		}
		marshalled, err := json.Marshal(launched)
		if err != nil {
			return fmt.Errorf("marshal launched tasks: %w", err)
		}
		model := ScheduleModel{
			ID:            s.ID.String(),
			CreatedAt:     s.CreatedAt,
			FinishedAt:    s.FinishedAt,
			SolverStatus:  string(s.SolverStatus),
			Diagnostics:   s.Diagnostics,
			LaunchedTasks: string(marshalled),
		}
		if err := tx.Save(&model).Error; err != nil {
			return fmt.Errorf("save schedule: %w", err)
		}

		if err := tx.Where("schedule_id = ?", s.ID.String()).Delete(&ScheduleEntryModel{}).Error; err != nil {
			return fmt.Errorf("clear schedule entries: %w", err)
		}
		for _, e := range s.Entries {
			entryModel, err := scheduleEntryToModel(e)
			if err != nil {
				return fmt.Errorf("convert schedule entry: %w", err)
			}
			if err := tx.Create(entryModel).Error; err != nil {
				return fmt.Errorf("save schedule entry: %w", err)
			}
		}
		return nil
	})
}

func (r *GormScheduleRepository) FindByID(ctx context.Context, id uuid.UUID) (*schedule.Schedule, error) {
	var model ScheduleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id.String()).Error; err != nil {
		return nil, fmt.Errorf("find schedule: %w", err)
	}
	return r.scheduleFromModel(ctx, &model)
}

func (r *GormScheduleRepository) FindLatest(ctx context.Context) (*schedule.Schedule, error) {
	var model ScheduleModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").First(&model).Error; err != nil {
		return nil, fmt.Errorf("find latest schedule: %w", err)
	}
	return r.scheduleFromModel(ctx, &model)
}

func (r *GormScheduleRepository) scheduleFromModel(ctx context.Context, m *ScheduleModel) (*schedule.Schedule, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse schedule id: %w", err)
	}
	var launchedStrs []string
	if m.LaunchedTasks != "" {
		if err := json.Unmarshal([]byte(m.LaunchedTasks), &launchedStrs); err != nil {
			return nil, fmt.Errorf("unmarshal launched tasks: %w", err)
		}
	}
	launched := make([]uuid.UUID, len(launchedStrs))
	for i, s := range launchedStrs {
		tid, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse launched task id: %w", err)
		}
		launched[i] = tid
	}

	var entryModels []ScheduleEntryModel
	if err := r.db.WithContext(ctx).Where("schedule_id = ?", m.ID).Find(&entryModels).Error; err != nil {
		return nil, fmt.Errorf("find schedule entries: %w", err)
	}
	entries := make([]*schedule.ScheduleEntry, 0, len(entryModels))
	for i := range entryModels {
		e, err := scheduleEntryFromModel(&entryModels[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return &schedule.Schedule{
		ID:            id,
		CreatedAt:     m.CreatedAt,
		FinishedAt:    m.FinishedAt,
		SolverStatus:  schedule.Status(m.SolverStatus),
		Diagnostics:   m.Diagnostics,
		LaunchedTasks: launched,
		Entries:       entries,
	}, nil
}

func scheduleEntryToModel(e *schedule.ScheduleEntry) (*ScheduleEntryModel, error) {
	model := &ScheduleEntryModel{
		ID:         e.ID.String(),
		ScheduleID: e.ScheduleID.String(),
		PrinterID:  e.PrinterID.String(),
		Start:      e.Start,
		End:        e.End,
		Deadline:   e.Deadline,
	}
	if e.PieceID != nil {
		s := e.PieceID.String()
		model.PieceID = &s
	}
	if e.DeviceTaskID != nil {
		s := e.DeviceTaskID.String()
		model.DeviceTaskID = &s
	}
	return model, nil
}

func scheduleEntryFromModel(m *ScheduleEntryModel) (*schedule.ScheduleEntry, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse schedule entry id: %w", err)
	}
	scheduleID, err := uuid.Parse(m.ScheduleID)
	if err != nil {
		return nil, fmt.Errorf("parse schedule id: %w", err)
	}
	printerID, err := uuid.Parse(m.PrinterID)
	if err != nil {
		return nil, fmt.Errorf("parse printer id: %w", err)
	}
	e := &schedule.ScheduleEntry{
		ID:         id,
		ScheduleID: scheduleID,
		PrinterID:  printerID,
		Start:      m.Start,
		End:        m.End,
		Deadline:   m.Deadline,
	}
	if m.PieceID != nil {
		pid, err := uuid.Parse(*m.PieceID)
		if err != nil {
			return nil, fmt.Errorf("parse piece id: %w", err)
		}
		e.PieceID = &pid
	}
	if m.DeviceTaskID != nil {
		tid, err := uuid.Parse(*m.DeviceTaskID)
		if err != nil {
			return nil, fmt.Errorf("parse device task id: %w", err)
		}
		e.DeviceTaskID = &tid
	}
	return e, nil
}

// GormScheduleEntryHistoryRepository implements
// schedule.EntryHistoryRepository as an append-only ledger.
type GormScheduleEntryHistoryRepository struct {
	db    *gorm.DB
	clock func() time.Time
}

func NewGormScheduleEntryHistoryRepository(db *gorm.DB, now func() time.Time) *GormScheduleEntryHistoryRepository {
	if now == nil {
		now = time.Now
	}
	return &GormScheduleEntryHistoryRepository{db: db, clock: now}
}

func (r *GormScheduleEntryHistoryRepository) Record(ctx context.Context, e *schedule.ScheduleEntry) error {
	model := ScheduleEntryHistoryModel{
		PrinterID:  e.PrinterID.String(),
		ScheduleID: e.ScheduleID.String(),
		Start:      e.Start,
		End:        e.End,
		Deadline:   e.Deadline,
		RecordedAt: r.clock(),
	}
	if e.PieceID != nil {
		s := e.PieceID.String()
		model.PieceID = &s
	}
	if e.DeviceTaskID != nil {
		s := e.DeviceTaskID.String()
		model.DeviceTaskID = &s
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("record schedule entry history: %w", err)
	}
	return nil
}

func (r *GormScheduleEntryHistoryRepository) FindByPrinterSince(ctx context.Context, printerID uuid.UUID) ([]*schedule.ScheduleEntry, error) {
	var models []ScheduleEntryHistoryModel
	if err := r.db.WithContext(ctx).Where("printer_id = ?", printerID.String()).Order("recorded_at ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find schedule entry history: %w", err)
	}
	out := make([]*schedule.ScheduleEntry, 0, len(models))
	for _, m := range models {
		scheduleID, err := uuid.Parse(m.ScheduleID)
		if err != nil {
			return nil, fmt.Errorf("parse schedule id: %w", err)
		}
		e := &schedule.ScheduleEntry{
			ScheduleID: scheduleID,
			PrinterID:  printerID,
			Start:      m.Start,
			End:        m.End,
			Deadline:   m.Deadline,
		}
		if m.PieceID != nil {
			pid, err := uuid.Parse(*m.PieceID)
			if err != nil {
				return nil, fmt.Errorf("parse piece id: %w", err)
			}
			e.PieceID = &pid
		}
		if m.DeviceTaskID != nil {
			tid, err := uuid.Parse(*m.DeviceTaskID)
			if err != nil {
				return nil, fmt.Errorf("parse device task id: %w", err)
			}
			e.DeviceTaskID = &tid
		}
		out = append(out, e)
	}
	return out, nil
}

var (
	_ schedule.Repository            = (*GormScheduleRepository)(nil)
	_ schedule.EntryHistoryRepository = (*GormScheduleEntryHistoryRepository)(nil)
)
