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
	"github.com/print-farm/farm-go/test/helpers"
)

func TestPrintJobRepository_SaveAndFind(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormPrintJobRepository(db)

	now := time.Now()
	j := job.NewPrintJob(uuid.New(), uuid.New(), now, now.Add(2*time.Hour))

	// Act
	require.NoError(t, repo.Save(context.Background(), j))
	found, err := repo.FindByID(context.Background(), j.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, j.DeviceTaskID, found.DeviceTaskID)
	assert.Equal(t, j.FilamentID, found.FilamentID)
	assert.Nil(t, found.Success)
}

func TestPrintJobRepository_FindByDeviceTaskID(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormPrintJobRepository(db)

	now := time.Now()
	taskID := uuid.New()
	j := job.NewPrintJob(taskID, uuid.New(), now, now.Add(time.Hour))
	require.NoError(t, repo.Save(context.Background(), j))

	// Act
	found, err := repo.FindByDeviceTaskID(context.Background(), taskID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, j.ID, found.ID)
}

func TestPrintJobRepository_FindAwaitingConfirmation(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormPrintJobRepository(db)

	now := time.Now()
	pending := job.NewPrintJob(uuid.New(), uuid.New(), now, now.Add(time.Hour))
	resolved := job.NewPrintJob(uuid.New(), uuid.New(), now, now.Add(time.Hour))
	resolved.ConfirmResult(true, now.Add(time.Hour))

	require.NoError(t, repo.Save(context.Background(), pending))
	require.NoError(t, repo.Save(context.Background(), resolved))

	// Act
	found, err := repo.FindAwaitingConfirmation(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, pending.ID, found[0].ID)
}

func TestPrintJobHistoryRepository_RecordAndFindSince(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	printerID := uuid.New()
	baseTime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clockTime := baseTime
	repo := persistence.NewGormPrintJobHistoryRepository(db, func() time.Time { return clockTime })

	now := time.Now()
	old := job.NewPrintJob(uuid.New(), uuid.New(), now, now.Add(time.Hour))
	clockTime = baseTime
	require.NoError(t, repo.Record(context.Background(), printerID, old))

	recent := job.NewPrintJob(uuid.New(), uuid.New(), now, now.Add(time.Hour))
	clockTime = baseTime.Add(24 * time.Hour)
	require.NoError(t, repo.Record(context.Background(), printerID, recent))

	// Act
	found, err := repo.FindSince(context.Background(), printerID, baseTime.Add(time.Hour))

	// Assert
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, recent.ID, found[0].ID)
}
