package persistence_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/print-farm/farm-go/internal/adapters/persistence"
	"github.com/print-farm/farm-go/internal/domain/filament"
	"github.com/print-farm/farm-go/test/helpers"
)

func TestFilamentRepository_SaveAndFind(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormFilamentRepository(db)

	f, err := filament.NewFilament("PLA", "black", uuid.New(), 850.0)
	require.NoError(t, err)

	// Act
	err = repo.Save(context.Background(), f)
	require.NoError(t, err)

	found, err := repo.FindByID(context.Background(), f.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, f.Material, found.Material)
	assert.Equal(t, f.Color, found.Color)
	assert.Equal(t, f.ProfileID, found.ProfileID)
	assert.Equal(t, f.RemainingG, found.RemainingG)
}

func TestFilamentRepository_FindAvailable(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormFilamentRepository(db)

	pla, _ := filament.NewFilament("PLA", "black", uuid.New(), 500)
	petg, _ := filament.NewFilament("PETG", "red", uuid.New(), 500)
	require.NoError(t, repo.Save(context.Background(), pla))
	require.NoError(t, repo.Save(context.Background(), petg))

	// Act
	found, err := repo.FindAvailable(context.Background(), []string{"PLA"}, nil)

	// Assert
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, pla.ID, found[0].ID)
}

func TestSliceConfigurationRepository_SetQuotingProfile(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	printProfileRepo := persistence.NewGormPrintProfileRepository(db)
	materialRepo := persistence.NewGormMaterialProfileRepository(db)
	printerProfileRepo := persistence.NewGormPrinterProfileRepository(db)
	repo := persistence.NewGormSliceConfigurationRepository(db)

	printerProfile := &filament.PrinterProfile{ID: uuid.New(), Name: "profile", SupportedMaterials: []string{"PLA"}}
	require.NoError(t, printerProfileRepo.Save(context.Background(), printerProfile))
	materialProfile := &filament.MaterialProfile{ID: uuid.New(), Name: "PLA"}
	require.NoError(t, materialRepo.Save(context.Background(), materialProfile))
	printProfile := &filament.PrintProfile{ID: uuid.New(), Name: "default", MaterialProfileID: materialProfile.ID, PrinterProfileID: printerProfile.ID}
	require.NoError(t, printProfileRepo.Save(context.Background(), printProfile))

	cfgA := &filament.SliceConfiguration{ID: uuid.New(), Name: "A", PrintProfileID: printProfile.ID, QuotingProfile: true}
	cfgB := &filament.SliceConfiguration{ID: uuid.New(), Name: "B", PrintProfileID: printProfile.ID}
	require.NoError(t, repo.Save(context.Background(), cfgA))
	require.NoError(t, repo.Save(context.Background(), cfgB))

	// Act
	err := repo.SetQuotingProfile(context.Background(), cfgB.ID)
	require.NoError(t, err)

	// Assert
	found, err := repo.FindQuotingProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfgB.ID, found.ID)
}
