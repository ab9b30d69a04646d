package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/print-farm/farm-go/internal/adapters/deviceapi"
	"github.com/print-farm/farm-go/internal/adapters/httpapi"
	"github.com/print-farm/farm-go/internal/adapters/metrics"
	"github.com/print-farm/farm-go/internal/adapters/persistence"
	"github.com/print-farm/farm-go/internal/adapters/programstore"
	"github.com/print-farm/farm-go/internal/adapters/slicer"
	"github.com/print-farm/farm-go/internal/application/common"
	"github.com/print-farm/farm-go/internal/application/controller"
	"github.com/print-farm/farm-go/internal/application/dispatcher"
	operatorCmd "github.com/print-farm/farm-go/internal/application/operator/commands"
	operatorQuery "github.com/print-farm/farm-go/internal/application/operator/queries"
	pieceCmd "github.com/print-farm/farm-go/internal/application/piece/commands"
	pieceQuery "github.com/print-farm/farm-go/internal/application/piece/queries"
	"github.com/print-farm/farm-go/internal/application/periodic"
	"github.com/print-farm/farm-go/internal/application/scheduler"
	"github.com/print-farm/farm-go/internal/domain/device"
	"github.com/print-farm/farm-go/internal/domain/schedule"
	"github.com/print-farm/farm-go/internal/domain/shared"
	"github.com/print-farm/farm-go/internal/infrastructure/config"
	"github.com/print-farm/farm-go/internal/infrastructure/database"
	"github.com/print-farm/farm-go/internal/infrastructure/logging"
	"github.com/print-farm/farm-go/internal/infrastructure/pidfile"
)

func main() {
	fmt.Println("Print-Farm Daemon v0.1.0")
	fmt.Println("========================")

	fmt.Println("Loading configuration...")
	cfg := config.MustLoadConfig("")

	fmt.Printf("Acquiring PID file lock: %s\n", cfg.Daemon.PIDFile)
	pf := pidfile.New(cfg.Daemon.PIDFile)
	if err := pf.Acquire(); err != nil {
		log.Fatalf("Failed to acquire PID file lock: %v", err)
	}
	defer func() {
		if err := pf.Release(); err != nil {
			log.Printf("Warning: failed to release PID file: %v", err)
		}
	}()
	fmt.Println("PID file lock acquired")

	if err := run(cfg); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run(cfg *config.Config) error {
	clock := shared.NewRealClock()

	fmt.Printf("Connecting to %s database...\n", cfg.Database.Type)
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	fmt.Println("Database connected")

	var commandCollector *metrics.CommandMetricsCollector
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		schedulerCollector := metrics.NewSchedulerMetricsCollector()
		dispatcherCollector := metrics.NewDispatcherMetricsCollector()
		apiCollector := metrics.NewAPIMetricsCollector()
		commandCollector = metrics.NewCommandMetricsCollector()
		for _, c := range []interface{ Register() error }{schedulerCollector, dispatcherCollector, apiCollector, commandCollector} {
			if err := c.Register(); err != nil {
				return fmt.Errorf("register metrics collector: %w", err)
			}
		}
		metrics.SetGlobalSchedulerCollector(schedulerCollector)
		metrics.SetGlobalDispatcherCollector(dispatcherCollector)
		metrics.SetGlobalAPICollector(apiCollector)
		fmt.Println("Metrics collectors registered")
	}

	printerRepo := persistence.NewGormPrinterRepository(db)
	controllerRepo := persistence.NewGormControllerRepository(db)
	filamentChangeRepo := persistence.NewGormFilamentChangeRepository(db)
	taskRepo := persistence.NewGormDeviceTaskRepository(db, clock)
	jobRepo := persistence.NewGormPrintJobRepository(db)
	pieceRepo := persistence.NewGormPieceRepository(db)
	orderRepo := persistence.NewGormOrderRepository(db)
	geometryRepo := persistence.NewGormGeometryModelRepository(db)
	sliceJobRepo := persistence.NewGormSliceJobRepository(db)
	unitPieceRepo := persistence.NewGormUnitPieceRepository(db)
	filamentRepo := persistence.NewGormFilamentRepository(db)
	printerProfileRepo := persistence.NewGormPrinterProfileRepository(db)
	materialProfileRepo := persistence.NewGormMaterialProfileRepository(db)
	sliceConfigRepo := persistence.NewGormSliceConfigurationRepository(db)
	scheduleRepo := persistence.NewGormScheduleRepository(db)

	zones := make([]schedule.ForbiddenZone, 0, len(cfg.Scheduler.ForbiddenZones))
	for _, z := range cfg.Scheduler.ForbiddenZones {
		zones = append(zones, schedule.ForbiddenZone{
			StartHour:     z.StartHour,
			DurationHours: z.DurationHours,
		})
	}
	tz, err := time.LoadLocation(cfg.Scheduler.TimeZone)
	if err != nil {
		return fmt.Errorf("load scheduler time zone %q: %w", cfg.Scheduler.TimeZone, err)
	}

	slicerClient := slicer.NewStub(clock)
	programSource := programstore.NewFilesystemSource(os.TempDir())

	controllers, err := controllerRepo.List(context.Background())
	if err != nil {
		return fmt.Errorf("list device controllers: %w", err)
	}
	if len(controllers) > cfg.Daemon.MaxControllers {
		return fmt.Errorf("controller count %d exceeds max_controllers %d", len(controllers), cfg.Daemon.MaxControllers)
	}

	controllerSet := &periodic.ControllerSet{Services: make(map[uuid.UUID]*controller.Service, len(controllers))}
	dispatcherServices := make(map[uuid.UUID]*controller.Service, len(controllers))
	for _, c := range controllers {
		client := deviceapi.NewClient(c.EndpointURL, c.APIKey, cfg.DeviceAPI, clock)

		commandRunner := &controller.CommandRunner{Client: client}
		programRunner := &controller.ProgramRunner{Client: client, Source: programSource, Clock: clock}
		svc := &controller.Service{
			Controller:         c,
			ControllerRepo:     controllerRepo,
			TaskRepo:           taskRepo,
			JobRepo:            jobRepo,
			FilamentChangeRepo: filamentChangeRepo,
			Client:             client,
			Clock:              clock,
			BeepThreshold:      cfg.Watchdog.BeepThreshold,
			Runners: map[device.Kind]device.Runner{
				device.KindCommand: commandRunner,
				device.KindProgram: programRunner,
				device.KindSliceThenProgram: &controller.SliceThenProgramRunner{
					Slicer:  slicerClient,
					Program: programRunner,
					Clock:   clock,
				},
				device.KindFilamentChange: &controller.FilamentChangeRunner{Command: commandRunner},
			},
		}
		controllerSet.Services[c.PrinterID] = svc
		dispatcherServices[c.PrinterID] = svc
	}
	fmt.Printf("Loaded %d device controllers\n", len(controllers))

	schedulerService := &scheduler.Service{
		PieceRepo:      pieceRepo,
		OrderRepo:      orderRepo,
		GeometryRepo:   geometryRepo,
		SliceJobRepo:   sliceJobRepo,
		PrinterRepo:    printerRepo,
		ControllerRepo: controllerRepo,
		TaskRepo:       taskRepo,
		ProfileRepo:    printerProfileRepo,
		ScheduleRepo:   scheduleRepo,
		Clock:          clock,
		HorizonCap:     cfg.Scheduler.HorizonCap,
		TimeZone:       tz,
		Zones:          zones,
	}

	dispatcherSvc := &dispatcher.Dispatcher{
		PieceRepo:           pieceRepo,
		PrinterRepo:         printerRepo,
		FilamentRepo:        filamentRepo,
		ControllerRepo:      controllerRepo,
		ControllerServices:  dispatcherServices,
		TaskRepo:            taskRepo,
		JobRepo:             jobRepo,
		UnitPieceRepo:       unitPieceRepo,
		FilamentChangeRepo:  filamentChangeRepo,
		SliceConfigRepo:     sliceConfigRepo,
		SliceJobRepo:        sliceJobRepo,
		MaterialProfileRepo: materialProfileRepo,
		Slicer:              slicerClient,
		Clock:               clock,
	}

	med := common.NewMediator()
	if commandCollector != nil {
		med.RegisterMiddleware(metrics.PrometheusMiddleware(commandCollector))
	}

	locate := operatorCmd.ControllerServiceLocator(func(printerID uuid.UUID) (*controller.Service, bool) {
		svc, ok := controllerSet.Services[printerID]
		return svc, ok
	})

	handlers := []struct {
		register func() error
	}{
		{func() error {
			return common.RegisterHandler[*operatorQuery.ListPrintersQuery](med, &operatorQuery.ListPrintersHandler{PrinterRepo: printerRepo, ControllerRepo: controllerRepo})
		}},
		{func() error {
			return common.RegisterHandler[*operatorQuery.ListPendingFilamentChangesQuery](med, &operatorQuery.ListPendingFilamentChangesHandler{FilamentChangeRepo: filamentChangeRepo})
		}},
		{func() error {
			return common.RegisterHandler[*operatorQuery.ListPrintJobsPendingConfirmationQuery](med, &operatorQuery.ListPrintJobsPendingConfirmationHandler{JobRepo: jobRepo})
		}},
		{func() error {
			return common.RegisterHandler[*operatorCmd.ConfirmFilamentChangeCommand](med, &operatorCmd.ConfirmFilamentChangeHandler{
				FilamentChangeRepo: filamentChangeRepo,
				PrinterRepo:        printerRepo,
				ControllerRepo:     controllerRepo,
				TaskRepo:           taskRepo,
				Now:                clock.Now,
			})
		}},
		{func() error {
			return common.RegisterHandler[*operatorCmd.ConfirmJobResultCommand](med, &operatorCmd.ConfirmJobResultHandler{JobRepo: jobRepo, Now: clock.Now})
		}},
		{func() error {
			return common.RegisterHandler[*operatorCmd.CancelActiveTaskCommand](med, &operatorCmd.CancelActiveTaskHandler{Locate: locate})
		}},
		{func() error {
			return common.RegisterHandler[*operatorCmd.ResetPrinterCommand](med, &operatorCmd.ResetPrinterHandler{Locate: locate})
		}},
		{func() error {
			return common.RegisterHandler[*operatorCmd.TogglePrinterEnabledCommand](med, &operatorCmd.TogglePrinterEnabledHandler{PrinterRepo: printerRepo})
		}},
		{func() error {
			return common.RegisterHandler[*pieceCmd.CreatePieceCommand](med, &pieceCmd.CreatePieceHandler{
				PieceRepo:       pieceRepo,
				OrderRepo:       orderRepo,
				SliceConfigRepo: sliceConfigRepo,
				Slicer:          slicerClient,
			})
		}},
		{func() error {
			return common.RegisterHandler[*pieceCmd.CancelPieceCommand](med, &pieceCmd.CancelPieceHandler{PieceRepo: pieceRepo})
		}},
		{func() error {
			return common.RegisterHandler[*pieceQuery.GetPieceStatusQuery](med, &pieceQuery.GetPieceStatusHandler{
				PieceRepo:     pieceRepo,
				UnitPieceRepo: unitPieceRepo,
				SliceJobRepo:  sliceJobRepo,
			})
		}},
		{func() error {
			return common.RegisterHandler[*pieceQuery.GetPieceQuoteQuery](med, &pieceQuery.GetPieceQuoteHandler{
				PieceRepo:    pieceRepo,
				OrderRepo:    orderRepo,
				SliceJobRepo: sliceJobRepo,
				Now:          clock.Now,
			})
		}},
	}
	for _, h := range handlers {
		if err := h.register(); err != nil {
			return fmt.Errorf("register mediator handler: %w", err)
		}
	}
	fmt.Println("Mediator handlers registered")

	runner := &periodic.Runner{
		Controllers:     controllerSet,
		SchedulerService: schedulerService,
		Dispatcher:      dispatcherSvc,
		PollerPeriod:    cfg.Poller.Period,
		DispatchPeriod:  cfg.Dispatcher.Period,
		SchedulerPeriod: cfg.Scheduler.Period,
		WatchdogPeriod:  cfg.Watchdog.Period,
	}

	logger := logging.NewLogger("farmd", 1000)
	ctx, cancel := context.WithCancel(common.WithLogger(context.Background(), logger))

	runnerErrCh := make(chan error, 1)
	go func() { runnerErrCh <- runner.Run(ctx) }()

	operatorServer := httpapi.NewServer(med, taskRepo, cfg.HTTP)
	operatorErrCh := operatorServer.Start()
	fmt.Printf("Operator HTTP API listening on %s\n", cfg.HTTP.ListenAddr)

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{EnableOpenMetrics: true}))
		metricsServer = &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Metrics.Host, cfg.Metrics.Port), Handler: mux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Log("error", "metrics server error", map[string]interface{}{"error": err.Error()})
			}
		}()
		fmt.Printf("Metrics listening on %s:%d%s\n", cfg.Metrics.Host, cfg.Metrics.Port, cfg.Metrics.Path)
	}

	fmt.Println("\nDaemon is ready")
	fmt.Println("Press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		fmt.Println("\nShutdown signal received, stopping...")
	case err := <-runnerErrCh:
		if err != nil {
			logger.Log("error", "periodic runner stopped", map[string]interface{}{"error": err.Error()})
		}
	case err := <-operatorErrCh:
		if err != nil {
			logger.Log("error", "operator http server stopped", map[string]interface{}{"error": err.Error()})
		}
	}

	cancel()
	if err := operatorServer.Stop(cfg.Daemon.ShutdownTimeout); err != nil {
		logger.Log("warn", "operator http server shutdown error", map[string]interface{}{"error": err.Error()})
	}
	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Log("warn", "metrics server shutdown error", map[string]interface{}{"error": err.Error()})
		}
	}

	fmt.Println("Daemon stopped")
	return nil
}
