package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/print-farm/farm-go/internal/domain/job"
)

// GormPrintJobRepository implements job.Repository using GORM.
type GormPrintJobRepository struct {
	db *gorm.DB
}

func NewGormPrintJobRepository(db *gorm.DB) *GormPrintJobRepository {
	return &GormPrintJobRepository{db: db}
}

func (r *GormPrintJobRepository) Save(ctx context.Context, j *job.PrintJob) error {
	model := PrintJobModel{
		ID:               j.ID.String(),
		DeviceTaskID:     j.DeviceTaskID.String(),
		FilamentID:       j.FilamentID.String(),
		CreatedAt:        j.CreatedAt,
		EstimatedEndTime: j.EstimatedEndTime,
		Success:          j.Success,
		EndTime:          j.EndTime,
	}
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return fmt.Errorf("save print job: %w", err)
	}
	return nil
}

func (r *GormPrintJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*job.PrintJob, error) {
	var model PrintJobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id.String()).Error; err != nil {
		return nil, fmt.Errorf("find print job: %w", err)
	}
	return printJobFromModel(&model)
}

func (r *GormPrintJobRepository) FindByDeviceTaskID(ctx context.Context, taskID uuid.UUID) (*job.PrintJob, error) {
	var model PrintJobModel
	if err := r.db.WithContext(ctx).First(&model, "device_task_id = ?", taskID.String()).Error; err != nil {
		return nil, fmt.Errorf("find print job by task: %w", err)
	}
	return printJobFromModel(&model)
}

func (r *GormPrintJobRepository) FindAwaitingConfirmation(ctx context.Context) ([]*job.PrintJob, error) {
	var models []PrintJobModel
	if err := r.db.WithContext(ctx).Where("success IS NULL").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find print jobs awaiting confirmation: %w", err)
	}
	out := make([]*job.PrintJob, 0, len(models))
	for i := range models {
		j, err := printJobFromModel(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}

func printJobFromModel(m *PrintJobModel) (*job.PrintJob, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse print job id: %w", err)
	}
	taskID, err := uuid.Parse(m.DeviceTaskID)
	if err != nil {
		return nil, fmt.Errorf("parse device task id: %w", err)
	}
	filamentID, err := uuid.Parse(m.FilamentID)
	if err != nil {
		return nil, fmt.Errorf("parse filament id: %w", err)
	}
	return &job.PrintJob{
		ID:               id,
		DeviceTaskID:     taskID,
		FilamentID:       filamentID,
		CreatedAt:        m.CreatedAt,
		EstimatedEndTime: m.EstimatedEndTime,
		Success:          m.Success,
		EndTime:          m.EndTime,
	}, nil
}

// GormPrintJobHistoryRepository implements job.HistoryRepository as an
// append-only ledger, grounded on the teacher's market_price_history
// repository (never updated in place, only inserted and scanned by time).
type GormPrintJobHistoryRepository struct {
	db    *gorm.DB
	clock func() time.Time
}

func NewGormPrintJobHistoryRepository(db *gorm.DB, now func() time.Time) *GormPrintJobHistoryRepository {
	if now == nil {
		now = time.Now
	}
	return &GormPrintJobHistoryRepository{db: db, clock: now}
}

func (r *GormPrintJobHistoryRepository) Record(ctx context.Context, printerID uuid.UUID, j *job.PrintJob) error {
	model := PrintJobHistoryModel{
		PrinterID:        printerID.String(),
		PrintJobID:       j.ID.String(),
		DeviceTaskID:     j.DeviceTaskID.String(),
		FilamentID:       j.FilamentID.String(),
		CreatedAt:        j.CreatedAt,
		EstimatedEndTime: j.EstimatedEndTime,
		Success:          j.Success,
		EndTime:          j.EndTime,
		RecordedAt:       r.clock(),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("record print job history: %w", err)
	}
	return nil
}

func (r *GormPrintJobHistoryRepository) FindSince(ctx context.Context, printerID uuid.UUID, since time.Time) ([]*job.PrintJob, error) {
	var models []PrintJobHistoryModel
	if err := r.db.WithContext(ctx).
		Where("printer_id = ? AND recorded_at >= ?", printerID.String(), since).
		Order("recorded_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find print job history: %w", err)
	}
	out := make([]*job.PrintJob, 0, len(models))
	for _, m := range models {
		id, err := uuid.Parse(m.PrintJobID)
		if err != nil {
			return nil, fmt.Errorf("parse print job id: %w", err)
		}
		taskID, err := uuid.Parse(m.DeviceTaskID)
		if err != nil {
			return nil, fmt.Errorf("parse device task id: %w", err)
		}
		filamentID, err := uuid.Parse(m.FilamentID)
		if err != nil {
			return nil, fmt.Errorf("parse filament id: %w", err)
		}
		out = append(out, &job.PrintJob{
			ID:               id,
			DeviceTaskID:     taskID,
			FilamentID:       filamentID,
			CreatedAt:        m.CreatedAt,
			EstimatedEndTime: m.EstimatedEndTime,
			Success:          m.Success,
			EndTime:          m.EndTime,
		})
	}
	return out, nil
}

var (
	_ job.Repository        = (*GormPrintJobRepository)(nil)
	_ job.HistoryRepository = (*GormPrintJobHistoryRepository)(nil)
)
