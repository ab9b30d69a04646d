package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/print-farm/farm-go/internal/adapters/persistence"
	"github.com/print-farm/farm-go/internal/domain/job"
	"github.com/print-farm/farm-go/internal/domain/piece"
	"github.com/print-farm/farm-go/test/helpers"
)

func TestOrderRepository_SaveAndFind(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormOrderRepository(db)

	order, err := piece.NewOrder("acme corp", time.Now().Add(24*time.Hour), 3)
	require.NoError(t, err)

	// Act
	require.NoError(t, repo.Save(context.Background(), order))
	found, err := repo.FindByID(context.Background(), order.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, order.Client, found.Client)
	assert.Equal(t, order.Priority, found.Priority)
	assert.WithinDuration(t, order.DueDate, found.DueDate, time.Second)
}

func TestPieceRepository_SaveAndFind_FromGeometry(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	geomRepo := persistence.NewGormGeometryModelRepository(db)
	repo := persistence.NewGormPieceRepository(db)

	geom := &piece.GeometryModel{ID: uuid.New(), FileName: "bracket.stl", SizeXMM: 50, SizeYMM: 40, SizeZMM: 20}
	require.NoError(t, geomRepo.Save(context.Background(), geom))

	p, err := piece.NewPieceFromGeometry(uuid.New(), geom.ID, 4, 1.0, []string{"PLA"}, []string{"black"})
	require.NoError(t, err)
	p.PrintSettings = &piece.PrintSettings{PrinterProfileID: uuid.New()}

	// Act
	require.NoError(t, repo.Save(context.Background(), p))
	found, err := repo.FindByID(context.Background(), p.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, p.OrderID, found.OrderID)
	assert.Equal(t, p.Copies, found.Copies)
	assert.Equal(t, p.Materials, found.Materials)
	assert.Equal(t, p.Colors, found.Colors)
	require.NotNil(t, found.GeometryModelID)
	assert.Equal(t, *p.GeometryModelID, *found.GeometryModelID)
	require.NotNil(t, found.PrintSettings)
	assert.Equal(t, p.PrintSettings.PrinterProfileID, found.PrintSettings.PrinterProfileID)
}

func TestPieceRepository_FindPlaceable_ExcludesCancelled(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormPieceRepository(db)

	active, err := piece.NewPieceFromProgram(uuid.New(), "ring.gcode", 1, 1.0, []string{"PLA"}, nil)
	require.NoError(t, err)
	cancelled, err := piece.NewPieceFromProgram(uuid.New(), "cube.gcode", 1, 1.0, []string{"PLA"}, nil)
	require.NoError(t, err)
	cancelled.Cancelled = true

	require.NoError(t, repo.Save(context.Background(), active))
	require.NoError(t, repo.Save(context.Background(), cancelled))

	// Act
	found, err := repo.FindPlaceable(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, active.ID, found[0].ID)
}

func TestSliceJobRepository_SaveAndFind(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormSliceJobRepository(db)

	job := &piece.SliceJob{
		ID:                   uuid.New(),
		SliceConfigurationID: uuid.New(),
		GeometryModelIDs:     []uuid.UUID{uuid.New(), uuid.New()},
		SaveProgram:          true,
		Ready:                true,
		EstimatedBuildTime:   2 * time.Hour,
		EstimatedWeightG:     42.5,
		ProgramFile:          "bracket.gcode",
	}

	// Act
	require.NoError(t, repo.Save(context.Background(), job))
	found, err := repo.FindByID(context.Background(), job.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, job.GeometryModelIDs, found.GeometryModelIDs)
	assert.Equal(t, job.EstimatedBuildTime, found.EstimatedBuildTime)
	assert.Equal(t, job.EstimatedWeightG, found.EstimatedWeightG)
	assert.Equal(t, job.ProgramFile, found.ProgramFile)
}

func TestUnitPieceRepository_CountByOutcome(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	unitRepo := persistence.NewGormUnitPieceRepository(db)
	jobRepo := persistence.NewGormPrintJobRepository(db)

	pieceID := uuid.New()
	now := time.Now()

	successJob := job.NewPrintJob(uuid.New(), uuid.New(), now, now.Add(time.Hour))
	successJob.ConfirmResult(true, now.Add(time.Hour))
	require.NoError(t, jobRepo.Save(context.Background(), successJob))

	pendingJob := job.NewPrintJob(uuid.New(), uuid.New(), now, now.Add(time.Hour))
	require.NoError(t, jobRepo.Save(context.Background(), pendingJob))

	require.NoError(t, unitRepo.Save(context.Background(), &piece.UnitPiece{ID: uuid.New(), PieceID: pieceID, PrintJobID: successJob.ID}))
	require.NoError(t, unitRepo.Save(context.Background(), &piece.UnitPiece{ID: uuid.New(), PieceID: pieceID, PrintJobID: pendingJob.ID}))

	// Act
	completed, pending, err := unitRepo.CountByOutcome(context.Background(), pieceID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, completed)
	assert.Equal(t, 1, pending)
}
