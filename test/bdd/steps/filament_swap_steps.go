package steps

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"github.com/print-farm/farm-go/internal/domain/device"
	"github.com/print-farm/farm-go/internal/domain/piece"
	"github.com/print-farm/farm-go/internal/domain/schedule"
)

// filamentSwapContext exercises two printers and two pieces whose
// scheduler-assigned printers the dispatcher's swap heuristic should
// cross to avoid any filament change.
type filamentSwapContext struct {
	f *farmFixture

	pieceByName map[string]*piece.Piece
	order       *piece.Order
	sc          *schedule.Schedule
}

func (c *filamentSwapContext) reset(t *testing.T) {
	c.f = newFarmFixture()
	c.pieceByName = map[string]*piece.Piece{}
	c.order = c.f.createOrder(7 * 24 * time.Hour)
}

func (c *filamentSwapContext) APrinterLoadedWithFS(printerName, color, material string) error {
	profile := c.f.createPrinterProfile(300, 300, 300, []string{material})
	c.f.createMaterialProfile(60, 210)
	p := c.f.createPrinter(printerName, profile.ID)
	fil := c.f.createFilament(material, color, profile.ID)
	c.f.loadFilament(p, fil)
	return nil
}

func (c *filamentSwapContext) AProgramPieceNeedingPinnedTo(name, color, material, buildTimeStr, printerName string) error {
	buildTime, err := time.ParseDuration(buildTimeStr)
	if err != nil {
		return err
	}
	profileID := c.f.printers[printerName].PrinterProfileID
	pin := profileID
	p := c.f.createProgramPiece(c.order.ID, name+".gcode", []string{material}, []string{color}, buildTime, &pin)
	c.pieceByName[name] = p
	return nil
}

func (c *filamentSwapContext) TheFleetRunsOneSchedulingCycleFS() error {
	sc, err := c.f.runSchedulerAndDispatch()
	c.sc = sc
	return err
}

func (c *filamentSwapContext) PieceIsLaunchedOnPrinter(name, printerName string) error {
	p := c.pieceByName[name]
	ups, err := c.f.unitPieceRepo.FindByPieceID(c.f.ctx(), p.ID)
	if err != nil {
		return err
	}
	if len(ups) == 0 {
		return fmt.Errorf("piece %q was not launched", name)
	}
	pj, err := c.f.jobRepo.FindByID(c.f.ctx(), ups[0].PrintJobID)
	if err != nil {
		return err
	}
	t, err := c.f.taskRepo.FindByID(c.f.ctx(), pj.DeviceTaskID)
	if err != nil {
		return err
	}
	wantController := c.f.controllers[printerName]
	if t.ControllerID != wantController.ID {
		return fmt.Errorf("piece %q launched on the wrong printer's controller", name)
	}
	return nil
}

func (c *filamentSwapContext) ZeroFilamentChangesAreIssued() error {
	for name, p := range c.pieceByName {
		ups, err := c.f.unitPieceRepo.FindByPieceID(c.f.ctx(), p.ID)
		if err != nil {
			return err
		}
		if len(ups) == 0 {
			return fmt.Errorf("piece %q was not launched", name)
		}
		pj, err := c.f.jobRepo.FindByID(c.f.ctx(), ups[0].PrintJobID)
		if err != nil {
			return err
		}
		t, err := c.f.taskRepo.FindByID(c.f.ctx(), pj.DeviceTaskID)
		if err != nil {
			return err
		}
		if t.Dependency != nil {
			dep, err := c.f.taskRepo.FindByID(c.f.ctx(), *t.Dependency)
			if err != nil {
				return err
			}
			if dep.Kind == device.KindFilamentChange {
				return fmt.Errorf("piece %q launched behind a filament change", name)
			}
		}
	}
	return nil
}

// InitializeFilamentSwapScenario registers every step for the filament
// swap feature.
func InitializeFilamentSwapScenario(sc *godog.ScenarioContext) {
	c := &filamentSwapContext{}
	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		c.reset(&testing.T{})
		return ctx, nil
	})

	sc.Step(`^a printer "([^"]*)" loaded with "([^"]*)" "([^"]*)" filament$`, c.APrinterLoadedWithFS)
	sc.Step(`^a program piece "([^"]*)" needing color "([^"]*)" and material "([^"]*)", build time "([^"]*)", pinned to printer "([^"]*)"$`, c.AProgramPieceNeedingPinnedTo)
	sc.Step(`^the fleet runs one scheduling cycle$`, c.TheFleetRunsOneSchedulingCycleFS)
	sc.Step(`^piece "([^"]*)" is launched on printer "([^"]*)"$`, c.PieceIsLaunchedOnPrinter)
	sc.Step(`^zero filament changes are issued$`, c.ZeroFilamentChangesAreIssued)
}
