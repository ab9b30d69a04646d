package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/print-farm/farm-go/internal/domain/filament"
)

// GormFilamentRepository implements filament.Repository using GORM.
type GormFilamentRepository struct {
	db *gorm.DB
}

// NewGormFilamentRepository constructs a GormFilamentRepository.
func NewGormFilamentRepository(db *gorm.DB) *GormFilamentRepository {
	return &GormFilamentRepository{db: db}
}

func (r *GormFilamentRepository) Save(ctx context.Context, f *filament.Filament) error {
	model := FilamentModel{
		ID:         f.ID.String(),
		Material:   f.Material,
		Color:      f.Color,
		ProfileID:  f.ProfileID.String(),
		RemainingG: f.RemainingG,
	}
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return fmt.Errorf("save filament: %w", err)
	}
	return nil
}

func (r *GormFilamentRepository) FindByID(ctx context.Context, id uuid.UUID) (*filament.Filament, error) {
	var model FilamentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id.String()).Error; err != nil {
		return nil, fmt.Errorf("find filament: %w", err)
	}
	return filamentFromModel(&model)
}

func (r *GormFilamentRepository) FindAvailable(ctx context.Context, materials, colors []string) ([]*filament.Filament, error) {
	q := r.db.WithContext(ctx).Model(&FilamentModel{})
	if len(materials) > 0 {
		q = q.Where("material IN ?", materials)
	}
	if len(colors) > 0 {
		q = q.Where("color IN ?", colors)
	}
	var models []FilamentModel
	if err := q.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find available filaments: %w", err)
	}
	out := make([]*filament.Filament, 0, len(models))
	for i := range models {
		f, err := filamentFromModel(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func filamentFromModel(m *FilamentModel) (*filament.Filament, error) {
	profileID, err := uuid.Parse(m.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("parse profile id: %w", err)
	}
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse filament id: %w", err)
	}
	return &filament.Filament{
		ID:         id,
		Material:   m.Material,
		Color:      m.Color,
		ProfileID:  profileID,
		RemainingG: m.RemainingG,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}, nil
}

// GormPrinterProfileRepository implements filament.PrinterProfileRepository.
type GormPrinterProfileRepository struct {
	db *gorm.DB
}

func NewGormPrinterProfileRepository(db *gorm.DB) *GormPrinterProfileRepository {
	return &GormPrinterProfileRepository{db: db}
}

func (r *GormPrinterProfileRepository) Save(ctx context.Context, p *filament.PrinterProfile) error {
	materials, err := json.Marshal(p.SupportedMaterials)
	if err != nil {
		return fmt.Errorf("marshal supported materials: %w", err)
	}
	model := PrinterProfileModel{
		ID:                 p.ID.String(),
		Name:               p.Name,
		BuildVolumeXMM:     p.BuildVolumeXMM,
		BuildVolumeYMM:     p.BuildVolumeYMM,
		BuildVolumeZMM:     p.BuildVolumeZMM,
		SupportedMaterials: string(materials),
	}
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return fmt.Errorf("save printer profile: %w", err)
	}
	return nil
}

func (r *GormPrinterProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*filament.PrinterProfile, error) {
	var model PrinterProfileModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id.String()).Error; err != nil {
		return nil, fmt.Errorf("find printer profile: %w", err)
	}
	return printerProfileFromModel(&model)
}

func (r *GormPrinterProfileRepository) List(ctx context.Context) ([]*filament.PrinterProfile, error) {
	var models []PrinterProfileModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list printer profiles: %w", err)
	}
	out := make([]*filament.PrinterProfile, 0, len(models))
	for i := range models {
		p, err := printerProfileFromModel(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func printerProfileFromModel(m *PrinterProfileModel) (*filament.PrinterProfile, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse printer profile id: %w", err)
	}
	var materials []string
	if m.SupportedMaterials != "" {
		if err := json.Unmarshal([]byte(m.SupportedMaterials), &materials); err != nil {
			return nil, fmt.Errorf("unmarshal supported materials: %w", err)
		}
	}
	return &filament.PrinterProfile{
		ID:                 id,
		Name:               m.Name,
		BuildVolumeXMM:     m.BuildVolumeXMM,
		BuildVolumeYMM:     m.BuildVolumeYMM,
		BuildVolumeZMM:     m.BuildVolumeZMM,
		SupportedMaterials: materials,
	}, nil
}

// GormMaterialProfileRepository implements filament.MaterialProfileRepository.
type GormMaterialProfileRepository struct {
	db *gorm.DB
}

func NewGormMaterialProfileRepository(db *gorm.DB) *GormMaterialProfileRepository {
	return &GormMaterialProfileRepository{db: db}
}

func (r *GormMaterialProfileRepository) Save(ctx context.Context, p *filament.MaterialProfile) error {
	model := MaterialProfileModel{
		ID:          p.ID.String(),
		Name:        p.Name,
		NozzleTempC: p.NozzleTempC,
		BedTempC:    p.BedTempC,
		FlowRatePct: p.FlowRatePct,
		MaxSpeedMMs: p.MaxSpeedMMs,
	}
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return fmt.Errorf("save material profile: %w", err)
	}
	return nil
}

func (r *GormMaterialProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*filament.MaterialProfile, error) {
	var model MaterialProfileModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id.String()).Error; err != nil {
		return nil, fmt.Errorf("find material profile: %w", err)
	}
	return materialProfileFromModel(&model)
}

func (r *GormMaterialProfileRepository) FindByMaterial(ctx context.Context, material string) (*filament.MaterialProfile, error) {
	var model MaterialProfileModel
	if err := r.db.WithContext(ctx).First(&model, "name = ?", material).Error; err != nil {
		return nil, fmt.Errorf("find material profile by material: %w", err)
	}
	return materialProfileFromModel(&model)
}

func materialProfileFromModel(m *MaterialProfileModel) (*filament.MaterialProfile, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse material profile id: %w", err)
	}
	return &filament.MaterialProfile{
		ID:          id,
		Name:        m.Name,
		NozzleTempC: m.NozzleTempC,
		BedTempC:    m.BedTempC,
		FlowRatePct: m.FlowRatePct,
		MaxSpeedMMs: m.MaxSpeedMMs,
	}, nil
}

// GormPrintProfileRepository implements filament.PrintProfileRepository.
type GormPrintProfileRepository struct {
	db *gorm.DB
}

func NewGormPrintProfileRepository(db *gorm.DB) *GormPrintProfileRepository {
	return &GormPrintProfileRepository{db: db}
}

func (r *GormPrintProfileRepository) Save(ctx context.Context, p *filament.PrintProfile) error {
	model := PrintProfileModel{
		ID:                p.ID.String(),
		Name:              p.Name,
		MaterialProfileID: p.MaterialProfileID.String(),
		PrinterProfileID:  p.PrinterProfileID.String(),
		LayerHeightMM:     p.LayerHeightMM,
		InfillPct:         p.InfillPct,
		SupportsEnabled:   p.SupportsEnabled,
	}
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return fmt.Errorf("save print profile: %w", err)
	}
	return nil
}

func (r *GormPrintProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*filament.PrintProfile, error) {
	var model PrintProfileModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id.String()).Error; err != nil {
		return nil, fmt.Errorf("find print profile: %w", err)
	}
	materialProfileID, err := uuid.Parse(model.MaterialProfileID)
	if err != nil {
		return nil, fmt.Errorf("parse material profile id: %w", err)
	}
	printerProfileID, err := uuid.Parse(model.PrinterProfileID)
	if err != nil {
		return nil, fmt.Errorf("parse printer profile id: %w", err)
	}
	parsedID, err := uuid.Parse(model.ID)
	if err != nil {
		return nil, fmt.Errorf("parse print profile id: %w", err)
	}
	return &filament.PrintProfile{
		ID:                parsedID,
		Name:              model.Name,
		MaterialProfileID: materialProfileID,
		PrinterProfileID:  printerProfileID,
		LayerHeightMM:     model.LayerHeightMM,
		InfillPct:         model.InfillPct,
		SupportsEnabled:   model.SupportsEnabled,
	}, nil
}

// GormSliceConfigurationRepository implements filament.SliceConfigurationRepository.
type GormSliceConfigurationRepository struct {
	db *gorm.DB
}

func NewGormSliceConfigurationRepository(db *gorm.DB) *GormSliceConfigurationRepository {
	return &GormSliceConfigurationRepository{db: db}
}

func (r *GormSliceConfigurationRepository) Save(ctx context.Context, cfg *filament.SliceConfiguration) error {
	model := SliceConfigurationModel{
		ID:                cfg.ID.String(),
		Name:              cfg.Name,
		PrintProfileID:    cfg.PrintProfileID.String(),
		SupportDensityPct: cfg.SupportDensityPct,
		RaftEnabled:       cfg.RaftEnabled,
		BrimWidthMM:       cfg.BrimWidthMM,
		QuotingProfile:    cfg.QuotingProfile,
	}
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return fmt.Errorf("save slice configuration: %w", err)
	}
	return nil
}

func (r *GormSliceConfigurationRepository) FindByID(ctx context.Context, id uuid.UUID) (*filament.SliceConfiguration, error) {
	var model SliceConfigurationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id.String()).Error; err != nil {
		return nil, fmt.Errorf("find slice configuration: %w", err)
	}
	return sliceConfigFromModel(&model)
}

func (r *GormSliceConfigurationRepository) FindQuotingProfile(ctx context.Context) (*filament.SliceConfiguration, error) {
	var model SliceConfigurationModel
	if err := r.db.WithContext(ctx).First(&model, "quoting_profile = ?", true).Error; err != nil {
		return nil, fmt.Errorf("find quoting profile: %w", err)
	}
	return sliceConfigFromModel(&model)
}

// SetQuotingProfile clears every other configuration's flag and sets it
// on id inside one transaction, per the interface's atomicity contract.
func (r *GormSliceConfigurationRepository) SetQuotingProfile(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&SliceConfigurationModel{}).Where("id <> ?", id.String()).Update("quoting_profile", false).Error; err != nil {
			return fmt.Errorf("clear quoting profiles: %w", err)
		}
		if err := tx.Model(&SliceConfigurationModel{}).Where("id = ?", id.String()).Update("quoting_profile", true).Error; err != nil {
			return fmt.Errorf("set quoting profile: %w", err)
		}
		return nil
	})
}

func sliceConfigFromModel(m *SliceConfigurationModel) (*filament.SliceConfiguration, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse slice configuration id: %w", err)
	}
	printProfileID, err := uuid.Parse(m.PrintProfileID)
	if err != nil {
		return nil, fmt.Errorf("parse print profile id: %w", err)
	}
	return &filament.SliceConfiguration{
		ID:                id,
		Name:              m.Name,
		PrintProfileID:    printProfileID,
		SupportDensityPct: m.SupportDensityPct,
		RaftEnabled:       m.RaftEnabled,
		BrimWidthMM:       m.BrimWidthMM,
		QuotingProfile:    m.QuotingProfile,
	}, nil
}

var (
	_ filament.Repository                  = (*GormFilamentRepository)(nil)
	_ filament.PrinterProfileRepository     = (*GormPrinterProfileRepository)(nil)
	_ filament.MaterialProfileRepository    = (*GormMaterialProfileRepository)(nil)
	_ filament.PrintProfileRepository       = (*GormPrintProfileRepository)(nil)
	_ filament.SliceConfigurationRepository = (*GormSliceConfigurationRepository)(nil)
)
