package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/print-farm/farm-go/internal/adapters/persistence"
	"github.com/print-farm/farm-go/internal/domain/device"
	"github.com/print-farm/farm-go/internal/domain/shared"
	"github.com/print-farm/farm-go/test/helpers"
)

func TestDeviceTaskRepository_SaveAndFind_PreservesLifecycle(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(time.Now())
	repo := persistence.NewGormDeviceTaskRepository(db, clock)

	controllerID := uuid.New()
	task := device.NewTask(controllerID, device.KindProgram, clock)
	task.ProgramFile = "bracket.gcode"
	require.NoError(t, task.Claim())

	// Act
	require.NoError(t, repo.Save(context.Background(), task))
	found, err := repo.FindByID(context.Background(), task.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, task.ProgramFile, found.ProgramFile)
	assert.Equal(t, task.ControllerID, found.ControllerID)
	assert.Equal(t, task.Kind, found.Kind)
	assert.Equal(t, task.Status(), found.Status())
	assert.True(t, found.Claimed)
}

func TestDeviceTaskRepository_SaveAndFind_PreservesFailure(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(time.Now())
	repo := persistence.NewGormDeviceTaskRepository(db, clock)

	task := device.NewTask(uuid.New(), device.KindCommand, clock)
	require.NoError(t, task.Claim())
	require.NoError(t, task.Fail(errors.New("connection lost")))

	// Act
	require.NoError(t, repo.Save(context.Background(), task))
	found, err := repo.FindByID(context.Background(), task.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, device.StatusFailed, found.Status())
	require.Error(t, found.LastError())
	assert.Equal(t, "connection lost", found.LastError().Error())
}

func TestDeviceTaskRepository_FindQueuedByController(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(time.Now())
	repo := persistence.NewGormDeviceTaskRepository(db, clock)

	controllerID := uuid.New()
	queued := device.NewTask(controllerID, device.KindCommand, clock)
	running := device.NewTask(controllerID, device.KindCommand, clock)
	require.NoError(t, running.Claim())

	require.NoError(t, repo.Save(context.Background(), queued))
	require.NoError(t, repo.Save(context.Background(), running))

	// Act
	found, err := repo.FindQueuedByController(context.Background(), controllerID)

	// Assert
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, queued.ID, found[0].ID)
}

