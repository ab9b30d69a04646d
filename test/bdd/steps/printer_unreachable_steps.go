package steps

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"github.com/print-farm/farm-go/internal/domain/piece"
	"github.com/print-farm/farm-go/internal/domain/schedule"
)

// printerUnreachableContext exercises the scheduler's exclusion of a
// printer whose controller has recorded a connection error, confirming
// a healthy printer in the same fleet still gets the work.
type printerUnreachableContext struct {
	f *farmFixture

	pieceByName map[string]*piece.Piece
	sc          *schedule.Schedule
}

func (c *printerUnreachableContext) reset(t *testing.T) {
	c.f = newFarmFixture()
	c.pieceByName = map[string]*piece.Piece{}
}

func (c *printerUnreachableContext) APrinterLoadedWithPU(printerName, color, material string) error {
	profile := c.f.createPrinterProfile(300, 300, 300, []string{material})
	c.f.createMaterialProfile(60, 210)
	p := c.f.createPrinter(printerName, profile.ID)
	fil := c.f.createFilament(material, color, profile.ID)
	c.f.loadFilament(p, fil)
	return nil
}

func (c *printerUnreachableContext) PrinterHasRecordedAConnectionError(printerName string) error {
	ctrl := c.f.controllers[printerName]
	ctrl.MarkConnectionError(c.f.clock.Now())
	return c.f.controllerRepo.Save(c.f.ctx(), ctrl)
}

func (c *printerUnreachableContext) AGeometryPieceNeedingPU(name, color, material, buildTimeStr, dueInStr string) error {
	buildTime, err := time.ParseDuration(buildTimeStr)
	if err != nil {
		return err
	}
	dueIn, err := time.ParseDuration(dueInStr)
	if err != nil {
		return err
	}
	order := c.f.createOrder(dueIn)
	p := c.f.createGeometryPiece(order.ID, []string{material}, []string{color}, buildTime, 50, 50, 50)
	c.pieceByName[name] = p
	return nil
}

func (c *printerUnreachableContext) TheFleetRunsOneSchedulingCyclePU() error {
	sc, err := c.f.runSchedulerAndDispatch()
	c.sc = sc
	return err
}

func (c *printerUnreachableContext) TheScheduleHasEntriesOn(count int, printerName string) error {
	if c.sc == nil {
		return fmt.Errorf("no schedule produced")
	}
	p := c.f.printers[printerName]
	matched := 0
	for _, e := range c.sc.Entries {
		if e.PrinterID == p.ID {
			matched++
		}
	}
	if matched != count {
		return fmt.Errorf("got %d entries on %s, want %d", matched, printerName, count)
	}
	return nil
}

func (c *printerUnreachableContext) TheScheduleHasEntryOnStartingAtEndingAtPU(count int, printerName string, startS, endS int) error {
	if c.sc == nil {
		return fmt.Errorf("no schedule produced")
	}
	p := c.f.printers[printerName]
	matched := 0
	for _, e := range c.sc.Entries {
		if e.PrinterID != p.ID {
			continue
		}
		if e.Start.Sub(c.sc.CreatedAt) != time.Duration(startS)*time.Second {
			return fmt.Errorf("entry start %v, want %ds", e.Start.Sub(c.sc.CreatedAt), startS)
		}
		if e.End.Sub(c.sc.CreatedAt) != time.Duration(endS)*time.Second {
			return fmt.Errorf("entry end %v, want %ds", e.End.Sub(c.sc.CreatedAt), endS)
		}
		matched++
	}
	if matched != count {
		return fmt.Errorf("got %d matching entries on %s, want %d", matched, printerName, count)
	}
	return nil
}

func (c *printerUnreachableContext) PieceIsLaunchedOnPrinterPU(name, printerName string) error {
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
	want := c.f.controllers[printerName]
	if t.ControllerID != want.ID {
		return fmt.Errorf("piece %q launched on the wrong printer's controller", name)
	}
	return nil
}

// InitializePrinterUnreachableScenario registers every step for the
// printer unreachable feature.
func InitializePrinterUnreachableScenario(sc *godog.ScenarioContext) {
	c := &printerUnreachableContext{}
	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		c.reset(&testing.T{})
		return ctx, nil
	})

	sc.Step(`^a printer "([^"]*)" loaded with "([^"]*)" "([^"]*)" filament$`, c.APrinterLoadedWithPU)
	sc.Step(`^printer "([^"]*)" has recorded a connection error$`, c.PrinterHasRecordedAConnectionError)
	sc.Step(`^a geometry piece "([^"]*)" needing color "([^"]*)" and material "([^"]*)", build time "([^"]*)", due in "([^"]*)"$`, c.AGeometryPieceNeedingPU)
	sc.Step(`^the fleet runs one scheduling cycle$`, c.TheFleetRunsOneSchedulingCyclePU)
	sc.Step(`^the schedule has (\d+) entries on "([^"]*)"$`, c.TheScheduleHasEntriesOn)
	sc.Step(`^the schedule has (\d+) entry on "([^"]*)" starting at (\d+)s and ending at (\d+)s$`, c.TheScheduleHasEntryOnStartingAtEndingAtPU)
	sc.Step(`^piece "([^"]*)" is launched on printer "([^"]*)"$`, c.PieceIsLaunchedOnPrinterPU)
}
