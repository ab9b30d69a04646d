package steps

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/google/uuid"

	"github.com/print-farm/farm-go/internal/application/controller"
	operatorcommands "github.com/print-farm/farm-go/internal/application/operator/commands"
	"github.com/print-farm/farm-go/internal/domain/device"
	"github.com/print-farm/farm-go/internal/domain/piece"
)

// cancellationContext exercises cancelling whatever task is active on a
// single printer.
type cancellationContext struct {
	f *farmFixture

	pieceByName   map[string]*piece.Piece
	cancelledTask *device.Task
}

func (c *cancellationContext) reset(t *testing.T) {
	c.f = newFarmFixture()
	c.pieceByName = map[string]*piece.Piece{}
	c.cancelledTask = nil
}

func (c *cancellationContext) APrinterLoadedWithC(printerName, color, material string) error {
	profile := c.f.createPrinterProfile(300, 300, 300, []string{material})
	c.f.createMaterialProfile(60, 210)
	p := c.f.createPrinter(printerName, profile.ID)
	fil := c.f.createFilament(material, color, profile.ID)
	c.f.loadFilament(p, fil)
	return nil
}

func (c *cancellationContext) AProgramPieceNeeding(name, color, material, buildTimeStr, dueInStr string) error {
	buildTime, err := time.ParseDuration(buildTimeStr)
	if err != nil {
		return err
	}
	dueIn, err := time.ParseDuration(dueInStr)
	if err != nil {
		return err
	}
	order := c.f.createOrder(dueIn)
	p := c.f.createProgramPiece(order.ID, name+".gcode", []string{material}, []string{color}, buildTime, nil)
	c.pieceByName[name] = p
	return nil
}

func (c *cancellationContext) TheFleetRunsOneSchedulingCycleC() error {
	_, err := c.f.runSchedulerAndDispatch()
	return err
}

func (c *cancellationContext) PrinterClaimsItsNextTask(printerName string) error {
	t, err := c.f.claimNextTask(printerName)
	if err != nil {
		return err
	}
	if t != nil {
		c.cancelledTask = t
	}
	return nil
}

func (c *cancellationContext) PrinterHasAnActiveTask(printerName string) error {
	ctrl := c.f.controllers[printerName]
	if ctrl.ActiveTaskID == nil {
		return fmt.Errorf("printer %q has no active task", printerName)
	}
	return nil
}

func (c *cancellationContext) PrinterHasNoActiveTask(printerName string) error {
	ctrl := c.f.controllers[printerName]
	if ctrl.ActiveTaskID != nil {
		return fmt.Errorf("printer %q still has an active task", printerName)
	}
	return nil
}

func (c *cancellationContext) TheOperatorCancelsTheActiveTaskOnPrinter(printerName string) error {
	p := c.f.printers[printerName]
	handler := &operatorcommands.CancelActiveTaskHandler{
		Locate: func(printerID uuid.UUID) (*controller.Service, bool) {
			svc, ok := c.f.controllerSvcsByID[printerID]
			return svc, ok
		},
	}
	_, err := handler.Handle(c.f.ctx(), &operatorcommands.CancelActiveTaskCommand{PrinterID: p.ID})
	return err
}

func (c *cancellationContext) ThePrintJobForPieceIsMarkedUnsuccessful(name string) error {
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
	if pj.Success == nil || *pj.Success {
		return fmt.Errorf("print job for %q was not marked unsuccessful", name)
	}
	return nil
}

func (c *cancellationContext) TheActiveTaskOnPrinterIsNotTheCancelledTask(printerName string) error {
	ctrl := c.f.controllers[printerName]
	if ctrl.ActiveTaskID == nil {
		return nil // active = empty satisfies the invariant
	}
	if c.cancelledTask != nil && *ctrl.ActiveTaskID == c.cancelledTask.ID {
		return fmt.Errorf("the cancelled task was reclaimed as active")
	}
	return nil
}

// InitializeCancellationScenario registers every step for the
// cancellation feature.
func InitializeCancellationScenario(sc *godog.ScenarioContext) {
	c := &cancellationContext{}
	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		c.reset(&testing.T{})
		return ctx, nil
	})

	sc.Step(`^a printer "([^"]*)" loaded with "([^"]*)" "([^"]*)" filament$`, c.APrinterLoadedWithC)
	sc.Step(`^a program piece "([^"]*)" needing color "([^"]*)" and material "([^"]*)", build time "([^"]*)", due in "([^"]*)"$`, c.AProgramPieceNeeding)
	sc.Step(`^the fleet runs one scheduling cycle$`, c.TheFleetRunsOneSchedulingCycleC)
	sc.Step(`^printer "([^"]*)" claims its next task$`, c.PrinterClaimsItsNextTask)
	sc.Step(`^printer "([^"]*)" has an active task$`, c.PrinterHasAnActiveTask)
	sc.Step(`^printer "([^"]*)" has no active task$`, c.PrinterHasNoActiveTask)
	sc.Step(`^the operator cancels the active task on printer "([^"]*)"$`, c.TheOperatorCancelsTheActiveTaskOnPrinter)
	sc.Step(`^the print job for piece "([^"]*)" is marked unsuccessful$`, c.ThePrintJobForPieceIsMarkedUnsuccessful)
	sc.Step(`^the active task on printer "([^"]*)" is not the cancelled task$`, c.TheActiveTaskOnPrinterIsNotTheCancelledTask)
}
