package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/print-farm/farm-go/internal/domain/piece"
)

// GormPieceRepository implements piece.Repository using GORM.
type GormPieceRepository struct {
	db *gorm.DB
}

func NewGormPieceRepository(db *gorm.DB) *GormPieceRepository {
	return &GormPieceRepository{db: db}
}

func (r *GormPieceRepository) Save(ctx context.Context, p *piece.Piece) error {
	model, err := pieceToModel(p)
	if err != nil {
		return fmt.Errorf("convert piece to model: %w", err)
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("save piece: %w", err)
	}
	return nil
}

func (r *GormPieceRepository) FindByID(ctx context.Context, id uuid.UUID) (*piece.Piece, error) {
	var model PieceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id.String()).Error; err != nil {
		return nil, fmt.Errorf("find piece: %w", err)
	}
	return pieceFromModel(&model)
}

func (r *GormPieceRepository) FindPlaceable(ctx context.Context) ([]*piece.Piece, error) {
	var models []PieceModel
	if err := r.db.WithContext(ctx).Where("cancelled = ?", false).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find placeable pieces: %w", err)
	}
	out := make([]*piece.Piece, 0, len(models))
	for i := range models {
		p, err := pieceFromModel(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func pieceToModel(p *piece.Piece) (*PieceModel, error) {
	materials, err := json.Marshal(p.Materials)
	if err != nil {
		return nil, fmt.Errorf("marshal materials: %w", err)
	}
	colors, err := json.Marshal(p.Colors)
	if err != nil {
		return nil, fmt.Errorf("marshal colors: %w", err)
	}
	model := &PieceModel{
		ID:         p.ID.String(),
		OrderID:    p.OrderID.String(),
		Copies:     p.Copies,
		Scale:      p.Scale,
		Materials:  string(materials),
		Colors:     string(colors),
		Cancelled:  p.Cancelled,
		SliceJobID: p.SliceJobID.String(),
	}
	if p.GeometryModelID != nil {
		s := p.GeometryModelID.String()
		model.GeometryModelID = &s
	}
	model.ProgramFile = p.ProgramFile
	if p.PrintSettings != nil {
		s := p.PrintSettings.PrinterProfileID.String()
		model.PrintSettingsProfileID = &s
	}
	return model, nil
}

func pieceFromModel(m *PieceModel) (*piece.Piece, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse piece id: %w", err)
	}
	orderID, err := uuid.Parse(m.OrderID)
	if err != nil {
		return nil, fmt.Errorf("parse order id: %w", err)
	}
	var materials, colors []string
	if m.Materials != "" {
		if err := json.Unmarshal([]byte(m.Materials), &materials); err != nil {
			return nil, fmt.Errorf("unmarshal materials: %w", err)
		}
	}
	if m.Colors != "" {
		if err := json.Unmarshal([]byte(m.Colors), &colors); err != nil {
			return nil, fmt.Errorf("unmarshal colors: %w", err)
		}
	}

	p := &piece.Piece{
		ID:          id,
		OrderID:     orderID,
		Copies:      m.Copies,
		Scale:       m.Scale,
		Materials:   materials,
		Colors:      colors,
		ProgramFile: m.ProgramFile,
		Cancelled:   m.Cancelled,
	}
	if m.GeometryModelID != nil {
		gmID, err := uuid.Parse(*m.GeometryModelID)
		if err != nil {
			return nil, fmt.Errorf("parse geometry model id: %w", err)
		}
		p.GeometryModelID = &gmID
	}
	if m.SliceJobID != "" {
		sjID, err := uuid.Parse(m.SliceJobID)
		if err != nil {
			return nil, fmt.Errorf("parse slice job id: %w", err)
		}
		p.SliceJobID = sjID
	}
	if m.PrintSettingsProfileID != nil {
		profileID, err := uuid.Parse(*m.PrintSettingsProfileID)
		if err != nil {
			return nil, fmt.Errorf("parse print settings profile id: %w", err)
		}
		p.PrintSettings = &piece.PrintSettings{PrinterProfileID: profileID}
	}
	return p, nil
}

// GormOrderRepository implements piece.OrderRepository.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Save(ctx context.Context, o *piece.Order) error {
	model := OrderModel{
		ID:       o.ID.String(),
		Client:   o.Client,
		DueDate:  o.DueDate,
		Priority: o.Priority,
	}
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return fmt.Errorf("save order: %w", err)
	}
	return nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*piece.Order, error) {
	var model OrderModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id.String()).Error; err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	parsedID, err := uuid.Parse(model.ID)
	if err != nil {
		return nil, fmt.Errorf("parse order id: %w", err)
	}
	return &piece.Order{
		ID:       parsedID,
		Client:   model.Client,
		DueDate:  model.DueDate,
		Priority: model.Priority,
	}, nil
}

// GormGeometryModelRepository implements piece.GeometryModelRepository.
type GormGeometryModelRepository struct {
	db *gorm.DB
}

func NewGormGeometryModelRepository(db *gorm.DB) *GormGeometryModelRepository {
	return &GormGeometryModelRepository{db: db}
}

func (r *GormGeometryModelRepository) Save(ctx context.Context, g *piece.GeometryModel) error {
	model := GeometryModelModel{
		ID:       g.ID.String(),
		FileName: g.FileName,
		SizeXMM:  g.SizeXMM,
		SizeYMM:  g.SizeYMM,
		SizeZMM:  g.SizeZMM,
	}
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return fmt.Errorf("save geometry model: %w", err)
	}
	return nil
}

func (r *GormGeometryModelRepository) FindByID(ctx context.Context, id uuid.UUID) (*piece.GeometryModel, error) {
	var model GeometryModelModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id.String()).Error; err != nil {
		return nil, fmt.Errorf("find geometry model: %w", err)
	}
	parsedID, err := uuid.Parse(model.ID)
	if err != nil {
		return nil, fmt.Errorf("parse geometry model id: %w", err)
	}
	return &piece.GeometryModel{
		ID:       parsedID,
		FileName: model.FileName,
		SizeXMM:  model.SizeXMM,
		SizeYMM:  model.SizeYMM,
		SizeZMM:  model.SizeZMM,
	}, nil
}

// GormSliceJobRepository implements piece.SliceJobRepository.
type GormSliceJobRepository struct {
	db *gorm.DB
}

func NewGormSliceJobRepository(db *gorm.DB) *GormSliceJobRepository {
	return &GormSliceJobRepository{db: db}
}

func (r *GormSliceJobRepository) Save(ctx context.Context, s *piece.SliceJob) error {
	ids := make([]string, len(s.GeometryModelIDs))
	for i, id := range s.GeometryModelIDs {
		ids[i] = id.String()
	}
	marshalled, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal geometry model ids: %w", err)
	}
	model := SliceJobModel{
		ID:                   s.ID.String(),
		SliceConfigurationID: s.SliceConfigurationID.String(),
		GeometryModelIDs:     string(marshalled),
		SaveProgram:          s.SaveProgram,
		Ready:                s.Ready,
		EstimatedBuildTimeS:  s.EstimatedBuildTimeSeconds(),
		EstimatedWeightG:     s.EstimatedWeightG,
		ProgramFile:          s.ProgramFile,
		ErrorLog:             s.ErrorLog,
	}
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return fmt.Errorf("save slice job: %w", err)
	}
	return nil
}

func (r *GormSliceJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*piece.SliceJob, error) {
	var model SliceJobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id.String()).Error; err != nil {
		return nil, fmt.Errorf("find slice job: %w", err)
	}
	parsedID, err := uuid.Parse(model.ID)
	if err != nil {
		return nil, fmt.Errorf("parse slice job id: %w", err)
	}
	cfgID, err := uuid.Parse(model.SliceConfigurationID)
	if err != nil {
		return nil, fmt.Errorf("parse slice configuration id: %w", err)
	}
	var idStrs []string
	if model.GeometryModelIDs != "" {
		if err := json.Unmarshal([]byte(model.GeometryModelIDs), &idStrs); err != nil {
			return nil, fmt.Errorf("unmarshal geometry model ids: %w", err)
		}
	}
	geomIDs := make([]uuid.UUID, len(idStrs))
	for i, s := range idStrs {
		gid, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse geometry model id: %w", err)
		}
		geomIDs[i] = gid
	}
	return &piece.SliceJob{
		ID:                   parsedID,
		SliceConfigurationID: cfgID,
		GeometryModelIDs:     geomIDs,
		SaveProgram:          model.SaveProgram,
		Ready:                model.Ready,
		EstimatedBuildTime:   time.Duration(model.EstimatedBuildTimeS) * time.Second,
		EstimatedWeightG:     model.EstimatedWeightG,
		ProgramFile:          model.ProgramFile,
		ErrorLog:             model.ErrorLog,
	}, nil
}

// GormUnitPieceRepository implements piece.UnitPieceRepository.
type GormUnitPieceRepository struct {
	db *gorm.DB
}

func NewGormUnitPieceRepository(db *gorm.DB) *GormUnitPieceRepository {
	return &GormUnitPieceRepository{db: db}
}

func (r *GormUnitPieceRepository) Save(ctx context.Context, u *piece.UnitPiece) error {
	model := UnitPieceModel{
		ID:         u.ID.String(),
		PieceID:    u.PieceID.String(),
		PrintJobID: u.PrintJobID.String(),
	}
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return fmt.Errorf("save unit piece: %w", err)
	}
	return nil
}

func (r *GormUnitPieceRepository) FindByPieceID(ctx context.Context, pieceID uuid.UUID) ([]*piece.UnitPiece, error) {
	var models []UnitPieceModel
	if err := r.db.WithContext(ctx).Where("piece_id = ?", pieceID.String()).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find unit pieces: %w", err)
	}
	out := make([]*piece.UnitPiece, 0, len(models))
	for _, m := range models {
		up, err := unitPieceFromModel(&m)
		if err != nil {
			return nil, err
		}
		out = append(out, up)
	}
	return out, nil
}

// CountByOutcome joins unit_pieces to print_jobs on print_job_id to
// classify each unit piece's print job outcome as completed (success =
// true) or pending (success is null or the job is still running).
func (r *GormUnitPieceRepository) CountByOutcome(ctx context.Context, pieceID uuid.UUID) (completed int, pending int, err error) {
	var completedCount int64
	if err := r.db.WithContext(ctx).
		Table("unit_pieces").
		Joins("JOIN print_jobs ON print_jobs.id = unit_pieces.print_job_id").
		Where("unit_pieces.piece_id = ? AND print_jobs.success = ?", pieceID.String(), true).
		Count(&completedCount).Error; err != nil {
		return 0, 0, fmt.Errorf("count completed unit pieces: %w", err)
	}

	var pendingCount int64
	if err := r.db.WithContext(ctx).
		Table("unit_pieces").
		Joins("JOIN print_jobs ON print_jobs.id = unit_pieces.print_job_id").
		Where("unit_pieces.piece_id = ? AND print_jobs.success IS NULL", pieceID.String()).
		Count(&pendingCount).Error; err != nil {
		return 0, 0, fmt.Errorf("count pending unit pieces: %w", err)
	}

	return int(completedCount), int(pendingCount), nil
}

func (r *GormUnitPieceRepository) DeleteByPieceID(ctx context.Context, pieceID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("piece_id = ?", pieceID.String()).Delete(&UnitPieceModel{}).Error; err != nil {
		return fmt.Errorf("delete unit pieces: %w", err)
	}
	return nil
}

func unitPieceFromModel(m *UnitPieceModel) (*piece.UnitPiece, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse unit piece id: %w", err)
	}
	pieceID, err := uuid.Parse(m.PieceID)
	if err != nil {
		return nil, fmt.Errorf("parse piece id: %w", err)
	}
	printJobID, err := uuid.Parse(m.PrintJobID)
	if err != nil {
		return nil, fmt.Errorf("parse print job id: %w", err)
	}
	return &piece.UnitPiece{ID: id, PieceID: pieceID, PrintJobID: printJobID}, nil
}

var (
	_ piece.Repository              = (*GormPieceRepository)(nil)
	_ piece.OrderRepository          = (*GormOrderRepository)(nil)
	_ piece.GeometryModelRepository  = (*GormGeometryModelRepository)(nil)
	_ piece.SliceJobRepository       = (*GormSliceJobRepository)(nil)
	_ piece.UnitPieceRepository      = (*GormUnitPieceRepository)(nil)
)
