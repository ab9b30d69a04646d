package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/print-farm/farm-go/internal/adapters/persistence"
	"github.com/print-farm/farm-go/internal/domain/schedule"
	"github.com/print-farm/farm-go/test/helpers"
)

func TestScheduleRepository_SaveAndFind_WithEntries(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormScheduleRepository(db)

	now := time.Now()
	s := schedule.NewSchedule(now)
	pieceID := uuid.New()
	entry := &schedule.ScheduleEntry{
		ID:         uuid.New(),
		ScheduleID: s.ID,
		PrinterID:  uuid.New(),
		PieceID:    &pieceID,
		Start:      now,
		End:        now.Add(time.Hour),
		Deadline:   now.Add(24 * time.Hour),
	}
	s.Finish(now.Add(time.Minute), schedule.StatusOptimal, "", []*schedule.ScheduleEntry{entry})
	s.RecordLaunched(uuid.New())

	// Act
	require.NoError(t, repo.Save(context.Background(), s))
	found, err := repo.FindByID(context.Background(), s.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, schedule.StatusOptimal, found.SolverStatus)
	require.Len(t, found.LaunchedTasks, 1)
	assert.Equal(t, s.LaunchedTasks[0], found.LaunchedTasks[0])
	require.Len(t, found.Entries, 1)
	assert.Equal(t, entry.PrinterID, found.Entries[0].PrinterID)
	require.NotNil(t, found.Entries[0].PieceID)
	assert.Equal(t, pieceID, *found.Entries[0].PieceID)
}

func TestScheduleRepository_FindLatest(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormScheduleRepository(db)

	older := schedule.NewSchedule(time.Now().Add(-time.Hour))
	newer := schedule.NewSchedule(time.Now())

	require.NoError(t, repo.Save(context.Background(), older))
	require.NoError(t, repo.Save(context.Background(), newer))

	// Act
	found, err := repo.FindLatest(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, newer.ID, found.ID)
}

func TestScheduleEntryHistoryRepository_RecordAndFindByPrinterSince(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormScheduleEntryHistoryRepository(db, nil)

	printerID := uuid.New()
	now := time.Now()
	entry := &schedule.ScheduleEntry{
		ScheduleID: uuid.New(),
		PrinterID:  printerID,
		Start:      now,
		End:        now.Add(time.Hour),
		Deadline:   now.Add(24 * time.Hour),
	}

	// Act
	require.NoError(t, repo.Record(context.Background(), entry))
	found, err := repo.FindByPrinterSince(context.Background(), printerID)

	// Assert
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, entry.ScheduleID, found[0].ScheduleID)
}
