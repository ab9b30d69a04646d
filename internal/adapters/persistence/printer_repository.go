package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/print-farm/farm-go/internal/domain/printer"
)

// GormPrinterRepository implements printer.Repository using GORM.
type GormPrinterRepository struct {
	db *gorm.DB
}

func NewGormPrinterRepository(db *gorm.DB) *GormPrinterRepository {
	return &GormPrinterRepository{db: db}
}

func (r *GormPrinterRepository) Save(ctx context.Context, p *printer.Printer) error {
	model := PrinterModel{
		ID:               p.ID.String(),
		Name:             p.Name,
		PrinterProfileID: p.PrinterProfileID.String(),
		Disabled:         p.Disabled,
	}
	if p.LoadedFilamentID != nil {
		s := p.LoadedFilamentID.String()
		model.LoadedFilamentID = &s
	}
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return fmt.Errorf("save printer: %w", err)
	}
	return nil
}

func (r *GormPrinterRepository) FindByID(ctx context.Context, id uuid.UUID) (*printer.Printer, error) {
	var model PrinterModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id.String()).Error; err != nil {
		return nil, fmt.Errorf("find printer: %w", err)
	}
	return printerFromModel(&model)
}

func (r *GormPrinterRepository) FindEnabled(ctx context.Context) ([]*printer.Printer, error) {
	var models []PrinterModel
	if err := r.db.WithContext(ctx).Where("disabled = ?", false).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find enabled printers: %w", err)
	}
	return printersFromModels(models)
}

func (r *GormPrinterRepository) List(ctx context.Context) ([]*printer.Printer, error) {
	var models []PrinterModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list printers: %w", err)
	}
	return printersFromModels(models)
}

func printersFromModels(models []PrinterModel) ([]*printer.Printer, error) {
	out := make([]*printer.Printer, 0, len(models))
	for i := range models {
		p, err := printerFromModel(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func printerFromModel(m *PrinterModel) (*printer.Printer, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse printer id: %w", err)
	}
	profileID, err := uuid.Parse(m.PrinterProfileID)
	if err != nil {
		return nil, fmt.Errorf("parse printer profile id: %w", err)
	}
	p := &printer.Printer{ID: id, Name: m.Name, PrinterProfileID: profileID, Disabled: m.Disabled}
	if m.LoadedFilamentID != nil {
		fid, err := uuid.Parse(*m.LoadedFilamentID)
		if err != nil {
			return nil, fmt.Errorf("parse loaded filament id: %w", err)
		}
		p.LoadedFilamentID = &fid
	}
	return p, nil
}

// GormControllerRepository implements printer.ControllerRepository.
type GormControllerRepository struct {
	db *gorm.DB
}

func NewGormControllerRepository(db *gorm.DB) *GormControllerRepository {
	return &GormControllerRepository{db: db}
}

func (r *GormControllerRepository) Save(ctx context.Context, c *printer.DeviceController) error {
	model, err := controllerToModel(c)
	if err != nil {
		return fmt.Errorf("convert controller to model: %w", err)
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("save controller: %w", err)
	}
	return nil
}

func (r *GormControllerRepository) FindByID(ctx context.Context, id uuid.UUID) (*printer.DeviceController, error) {
	var model DeviceControllerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id.String()).Error; err != nil {
		return nil, fmt.Errorf("find controller: %w", err)
	}
	return controllerFromModel(&model)
}

func (r *GormControllerRepository) FindByPrinterID(ctx context.Context, printerID uuid.UUID) (*printer.DeviceController, error) {
	var model DeviceControllerModel
	if err := r.db.WithContext(ctx).First(&model, "printer_id = ?", printerID.String()).Error; err != nil {
		return nil, fmt.Errorf("find controller by printer: %w", err)
	}
	return controllerFromModel(&model)
}

func (r *GormControllerRepository) List(ctx context.Context) ([]*printer.DeviceController, error) {
	var models []DeviceControllerModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list controllers: %w", err)
	}
	out := make([]*printer.DeviceController, 0, len(models))
	for i := range models {
		c, err := controllerFromModel(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func controllerToModel(c *printer.DeviceController) (*DeviceControllerModel, error) {
	flags, err := json.Marshal(c.Status.Flags)
	if err != nil {
		return nil, fmt.Errorf("marshal status flags: %w", err)
	}
	model := &DeviceControllerModel{
		ID:                c.ID.String(),
		PrinterID:         c.PrinterID.String(),
		EndpointURL:       c.EndpointURL,
		APIKey:            c.APIKey,
		Locked:            c.Locked,
		NotificationCount: c.NotificationCount,
		StatusFlags:       string(flags),
		StatusNozzleC:     c.Status.Temperatures.NozzleActualC,
		StatusBedC:        c.Status.Temperatures.BedActualC,
		StatusJobFileName: c.Status.Job.FileName,
		StatusJobTotalS:   c.Status.Job.EstimatedTotalS,
		StatusJobLeftS:    c.Status.Job.EstimatedLeftS,
		StatusUpdatedAt:   c.Status.UpdatedAt,
	}
	if c.ActiveTaskID != nil {
		s := c.ActiveTaskID.String()
		model.ActiveTaskID = &s
	}
	return model, nil
}

func controllerFromModel(m *DeviceControllerModel) (*printer.DeviceController, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse controller id: %w", err)
	}
	printerID, err := uuid.Parse(m.PrinterID)
	if err != nil {
		return nil, fmt.Errorf("parse printer id: %w", err)
	}
	c := &printer.DeviceController{
		ID:                id,
		PrinterID:         printerID,
		EndpointURL:       m.EndpointURL,
		APIKey:            m.APIKey,
		Locked:            m.Locked,
		NotificationCount: m.NotificationCount,
	}
	if m.ActiveTaskID != nil {
		tid, err := uuid.Parse(*m.ActiveTaskID)
		if err != nil {
			return nil, fmt.Errorf("parse active task id: %w", err)
		}
		c.ActiveTaskID = &tid
	}
	var flags printer.Flags
	if m.StatusFlags != "" {
		if err := json.Unmarshal([]byte(m.StatusFlags), &flags); err != nil {
			return nil, fmt.Errorf("unmarshal status flags: %w", err)
		}
	}
	c.Status = printer.Status{
		Flags: flags,
		Temperatures: printer.Temperatures{
			NozzleActualC: m.StatusNozzleC,
			BedActualC:    m.StatusBedC,
		},
		Job: printer.JobState{
			FileName:        m.StatusJobFileName,
			EstimatedTotalS: m.StatusJobTotalS,
			EstimatedLeftS:  m.StatusJobLeftS,
		},
		UpdatedAt: m.StatusUpdatedAt,
	}
	return c, nil
}

// GormFilamentChangeRepository implements printer.FilamentChangeRepository.
type GormFilamentChangeRepository struct {
	db *gorm.DB
}

func NewGormFilamentChangeRepository(db *gorm.DB) *GormFilamentChangeRepository {
	return &GormFilamentChangeRepository{db: db}
}

func (r *GormFilamentChangeRepository) Save(ctx context.Context, fc *printer.FilamentChange) error {
	model := FilamentChangeModel{
		ID:            fc.ID.String(),
		NewFilamentID: fc.NewFilamentID.String(),
		DeviceTaskID:  fc.DeviceTaskID.String(),
		Confirmed:     fc.Confirmed,
		ConfirmedAt:   fc.ConfirmedAt,
	}
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return fmt.Errorf("save filament change: %w", err)
	}
	return nil
}

func (r *GormFilamentChangeRepository) FindByID(ctx context.Context, id uuid.UUID) (*printer.FilamentChange, error) {
	var model FilamentChangeModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id.String()).Error; err != nil {
		return nil, fmt.Errorf("find filament change: %w", err)
	}
	return filamentChangeFromModel(&model)
}

func (r *GormFilamentChangeRepository) FindUnconfirmed(ctx context.Context) ([]*printer.FilamentChange, error) {
	var models []FilamentChangeModel
	if err := r.db.WithContext(ctx).Where("confirmed = ?", false).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find unconfirmed filament changes: %w", err)
	}
	out := make([]*printer.FilamentChange, 0, len(models))
	for i := range models {
		fc, err := filamentChangeFromModel(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, fc)
	}
	return out, nil
}

func filamentChangeFromModel(m *FilamentChangeModel) (*printer.FilamentChange, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse filament change id: %w", err)
	}
	newFilamentID, err := uuid.Parse(m.NewFilamentID)
	if err != nil {
		return nil, fmt.Errorf("parse new filament id: %w", err)
	}
	taskID, err := uuid.Parse(m.DeviceTaskID)
	if err != nil {
		return nil, fmt.Errorf("parse device task id: %w", err)
	}
	return &printer.FilamentChange{
		ID:            id,
		NewFilamentID: newFilamentID,
		DeviceTaskID:  taskID,
		Confirmed:     m.Confirmed,
		ConfirmedAt:   m.ConfirmedAt,
	}, nil
}

var (
	_ printer.Repository               = (*GormPrinterRepository)(nil)
	_ printer.ControllerRepository     = (*GormControllerRepository)(nil)
	_ printer.FilamentChangeRepository = (*GormFilamentChangeRepository)(nil)
)
