package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/print-farm/farm-go/internal/adapters/persistence"
	"github.com/print-farm/farm-go/internal/domain/printer"
	"github.com/print-farm/farm-go/test/helpers"
)

func TestPrinterRepository_SaveAndFind(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormPrinterRepository(db)

	p := printer.NewPrinter("Ender 3", uuid.New())
	p.LoadFilament(uuid.New())

	// Act
	require.NoError(t, repo.Save(context.Background(), p))
	found, err := repo.FindByID(context.Background(), p.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, p.Name, found.Name)
	require.NotNil(t, found.LoadedFilamentID)
	assert.Equal(t, *p.LoadedFilamentID, *found.LoadedFilamentID)
}

func TestPrinterRepository_FindEnabled(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormPrinterRepository(db)

	enabled := printer.NewPrinter("enabled", uuid.New())
	disabled := printer.NewPrinter("disabled", uuid.New())
	disabled.ToggleEnabled()

	require.NoError(t, repo.Save(context.Background(), enabled))
	require.NoError(t, repo.Save(context.Background(), disabled))

	// Act
	found, err := repo.FindEnabled(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, enabled.ID, found[0].ID)
}

func TestControllerRepository_SaveAndFind(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormControllerRepository(db)

	c := printer.NewDeviceController(uuid.New(), "http://printer.local", "secret")
	c.SetActiveTask(uuid.New())
	c.Status.Flags.Ready = true
	c.Status.Temperatures.NozzleActualC = 205.5
	c.Status.Job.FileName = "bracket.gcode"
	c.Status.UpdatedAt = time.Now()

	// Act
	require.NoError(t, repo.Save(context.Background(), c))
	found, err := repo.FindByID(context.Background(), c.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, c.EndpointURL, found.EndpointURL)
	assert.Equal(t, c.APIKey, found.APIKey)
	require.NotNil(t, found.ActiveTaskID)
	assert.Equal(t, *c.ActiveTaskID, *found.ActiveTaskID)
	assert.True(t, found.Status.Flags.Ready)
	assert.Equal(t, c.Status.Temperatures.NozzleActualC, found.Status.Temperatures.NozzleActualC)
	assert.Equal(t, c.Status.Job.FileName, found.Status.Job.FileName)
}

func TestControllerRepository_FindByPrinterID(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormControllerRepository(db)

	printerID := uuid.New()
	c := printer.NewDeviceController(printerID, "http://printer.local", "secret")
	require.NoError(t, repo.Save(context.Background(), c))

	// Act
	found, err := repo.FindByPrinterID(context.Background(), printerID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, c.ID, found.ID)
}

func TestFilamentChangeRepository_FindUnconfirmed(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormFilamentChangeRepository(db)

	pending := &printer.FilamentChange{ID: uuid.New(), NewFilamentID: uuid.New(), DeviceTaskID: uuid.New()}
	confirmed := &printer.FilamentChange{ID: uuid.New(), NewFilamentID: uuid.New(), DeviceTaskID: uuid.New(), Confirmed: true}

	require.NoError(t, repo.Save(context.Background(), pending))
	require.NoError(t, repo.Save(context.Background(), confirmed))

	// Act
	found, err := repo.FindUnconfirmed(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, pending.ID, found[0].ID)
}
