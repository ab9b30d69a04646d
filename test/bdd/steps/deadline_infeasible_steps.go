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

// deadlineInfeasibleContext exercises a piece whose deadline is shorter
// than its own build time, which the solver can never place.
type deadlineInfeasibleContext struct {
	f *farmFixture

	pieceByName map[string]*piece.Piece
	sc          *schedule.Schedule
}

func (c *deadlineInfeasibleContext) reset(t *testing.T) {
	c.f = newFarmFixture()
	c.pieceByName = map[string]*piece.Piece{}
}

func (c *deadlineInfeasibleContext) APrinterLoadedWithDI(printerName, color, material string) error {
	profile := c.f.createPrinterProfile(300, 300, 300, []string{material})
	c.f.createMaterialProfile(60, 210)
	p := c.f.createPrinter(printerName, profile.ID)
	fil := c.f.createFilament(material, color, profile.ID)
	c.f.loadFilament(p, fil)
	return nil
}

func (c *deadlineInfeasibleContext) AGeometryPieceNeedingDI(name, color, material, buildTimeStr, dueInStr string) error {
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

func (c *deadlineInfeasibleContext) TheFleetRunsOneSchedulingCycleDI() error {
	sc, err := c.f.runSchedulerAndDispatch()
	c.sc = sc
	return err
}

func (c *deadlineInfeasibleContext) TheScheduleStatusIsInfeasible() error {
	if c.sc == nil {
		return fmt.Errorf("no schedule produced")
	}
	if c.sc.SolverStatus != schedule.StatusInfeasible {
		return fmt.Errorf("solver status %q, want %q", c.sc.SolverStatus, schedule.StatusInfeasible)
	}
	return nil
}

func (c *deadlineInfeasibleContext) TheScheduleHasEntriesDI(count int) error {
	if c.sc == nil {
		return fmt.Errorf("no schedule produced")
	}
	if len(c.sc.Entries) != count {
		return fmt.Errorf("got %d entries, want %d", len(c.sc.Entries), count)
	}
	return nil
}

func (c *deadlineInfeasibleContext) PieceIsNotLaunched(name string) error {
	p := c.pieceByName[name]
	ups, err := c.f.unitPieceRepo.FindByPieceID(c.f.ctx(), p.ID)
	if err != nil {
		return err
	}
	if len(ups) != 0 {
		return fmt.Errorf("piece %q was launched", name)
	}
	return nil
}

// InitializeDeadlineInfeasibleScenario registers every step for the
// deadline infeasible feature.
func InitializeDeadlineInfeasibleScenario(sc *godog.ScenarioContext) {
	c := &deadlineInfeasibleContext{}
	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		c.reset(&testing.T{})
		return ctx, nil
	})

	sc.Step(`^a printer "([^"]*)" loaded with "([^"]*)" "([^"]*)" filament$`, c.APrinterLoadedWithDI)
	sc.Step(`^a geometry piece "([^"]*)" needing color "([^"]*)" and material "([^"]*)", build time "([^"]*)", due in "([^"]*)"$`, c.AGeometryPieceNeedingDI)
	sc.Step(`^the fleet runs one scheduling cycle$`, c.TheFleetRunsOneSchedulingCycleDI)
	sc.Step(`^the schedule status is infeasible$`, c.TheScheduleStatusIsInfeasible)
	sc.Step(`^the schedule has (\d+) entries$`, c.TheScheduleHasEntriesDI)
	sc.Step(`^piece "([^"]*)" is not launched$`, c.PieceIsNotLaunched)
}
