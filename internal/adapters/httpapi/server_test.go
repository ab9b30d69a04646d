package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/print-farm/farm-go/internal/adapters/httpapi"
	"github.com/print-farm/farm-go/internal/adapters/persistence"
	"github.com/print-farm/farm-go/internal/application/common"
	"github.com/print-farm/farm-go/internal/application/operator/commands"
	"github.com/print-farm/farm-go/internal/application/operator/queries"
	"github.com/print-farm/farm-go/internal/domain/job"
	"github.com/print-farm/farm-go/internal/domain/printer"
	"github.com/print-farm/farm-go/internal/domain/shared"
	"github.com/print-farm/farm-go/internal/infrastructure/config"
	"github.com/print-farm/farm-go/test/helpers"
)

func newTestMediator(t *testing.T, printerRepo printer.Repository, controllerRepo printer.ControllerRepository, fcRepo printer.FilamentChangeRepository, jobRepo job.Repository) common.Mediator {
	m := common.NewMediator()
	now := func() time.Time { return time.Now() }

	require.NoError(t, common.RegisterHandler[*queries.ListPrintersQuery](m, &queries.ListPrintersHandler{
		PrinterRepo: printerRepo, ControllerRepo: controllerRepo,
	}))
	require.NoError(t, common.RegisterHandler[*queries.ListPendingFilamentChangesQuery](m, &queries.ListPendingFilamentChangesHandler{
		FilamentChangeRepo: fcRepo,
	}))
	require.NoError(t, common.RegisterHandler[*queries.ListPrintJobsPendingConfirmationQuery](m, &queries.ListPrintJobsPendingConfirmationHandler{
		JobRepo: jobRepo,
	}))
	require.NoError(t, common.RegisterHandler[*commands.ConfirmJobResultCommand](m, &commands.ConfirmJobResultHandler{
		JobRepo: jobRepo, Now: now,
	}))
	require.NoError(t, common.RegisterHandler[*commands.TogglePrinterEnabledCommand](m, &commands.TogglePrinterEnabledHandler{
		PrinterRepo: printerRepo,
	}))
	return m
}

func TestServer_ListPrinters(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	printerRepo := persistence.NewGormPrinterRepository(db)
	controllerRepo := persistence.NewGormControllerRepository(db)
	clock := shared.NewMockClock(time.Now())
	taskRepo := persistence.NewGormDeviceTaskRepository(db, clock)
	fcRepo := persistence.NewGormFilamentChangeRepository(db)
	jobRepo := persistence.NewGormPrintJobRepository(db)

	p := printer.NewPrinter("Ender 3", uuid.New())
	require.NoError(t, printerRepo.Save(t.Context(), p))
	c := printer.NewDeviceController(p.ID, "http://printer.local", "secret")
	c.Status.Flags.Ready = true
	require.NoError(t, controllerRepo.Save(t.Context(), c))

	mediator := newTestMediator(t, printerRepo, controllerRepo, fcRepo, jobRepo)
	srv := httpapi.NewServer(mediator, taskRepo, config.HTTPConfig{ListenAddr: ":0"})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	// Act
	resp, err := http.Get(ts.URL + "/printers")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out, 1)
	require.Equal(t, "Ender 3", out[0]["name"])
	require.Equal(t, true, out[0]["ready"])
}

func TestServer_ConfirmJobResult(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	printerRepo := persistence.NewGormPrinterRepository(db)
	controllerRepo := persistence.NewGormControllerRepository(db)
	clock := shared.NewMockClock(time.Now())
	taskRepo := persistence.NewGormDeviceTaskRepository(db, clock)
	fcRepo := persistence.NewGormFilamentChangeRepository(db)
	jobRepo := persistence.NewGormPrintJobRepository(db)

	now := time.Now()
	pj := job.NewPrintJob(uuid.New(), uuid.New(), now, now.Add(time.Hour))
	require.NoError(t, jobRepo.Save(t.Context(), pj))

	mediator := newTestMediator(t, printerRepo, controllerRepo, fcRepo, jobRepo)
	srv := httpapi.NewServer(mediator, taskRepo, config.HTTPConfig{ListenAddr: ":0"})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	// Act
	body, _ := json.Marshal(map[string]bool{"success": true})
	resp, err := http.Post(ts.URL+"/operations/confirm_job_result/"+pj.ID.String(), "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	// Assert
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	found, err := jobRepo.FindByID(t.Context(), pj.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Success)
	require.True(t, *found.Success)
}

func TestServer_TogglePrinterEnabled(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	printerRepo := persistence.NewGormPrinterRepository(db)
	controllerRepo := persistence.NewGormControllerRepository(db)
	clock := shared.NewMockClock(time.Now())
	taskRepo := persistence.NewGormDeviceTaskRepository(db, clock)
	fcRepo := persistence.NewGormFilamentChangeRepository(db)
	jobRepo := persistence.NewGormPrintJobRepository(db)

	p := printer.NewPrinter("Ender 3", uuid.New())
	require.NoError(t, printerRepo.Save(t.Context(), p))

	mediator := newTestMediator(t, printerRepo, controllerRepo, fcRepo, jobRepo)
	srv := httpapi.NewServer(mediator, taskRepo, config.HTTPConfig{ListenAddr: ":0"})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	// Act
	resp, err := http.Post(ts.URL+"/operations/toggle_printer_en_dis/"+p.ID.String(), "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	// Assert
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	found, err := printerRepo.FindByID(t.Context(), p.ID)
	require.NoError(t, err)
	require.True(t, found.Disabled)
}
