package steps

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"github.com/print-farm/farm-go/internal/domain/schedule"
)

// forbiddenZoneContext exercises the scheduler's forbidden-zone
// projection against a piece whose processing time fits entirely before
// the window.
type forbiddenZoneContext struct {
	f  *farmFixture
	sc *schedule.Schedule
}

func (c *forbiddenZoneContext) reset(t *testing.T) {
	c.f = newFarmFixture()
	c.sc = nil
}

func (c *forbiddenZoneContext) TheCurrentTimeIs(clockTime, zoneName string) error {
	loc, err := time.LoadLocation(zoneName)
	if err != nil {
		return err
	}
	parsed, err := time.ParseInLocation("15:04", clockTime, loc)
	if err != nil {
		return err
	}
	today := c.f.clock.Now().In(loc)
	full := time.Date(today.Year(), today.Month(), today.Day(), parsed.Hour(), parsed.Minute(), 0, 0, loc)
	c.f.clock.SetTime(full)
	c.f.schedulerSvc.TimeZone = loc
	return nil
}

func (c *forbiddenZoneContext) AForbiddenZoneFromHourForHours(startHour, durationHours int) error {
	c.f.schedulerSvc.Zones = append(c.f.schedulerSvc.Zones, schedule.ForbiddenZone{
		StartHour:     startHour,
		DurationHours: durationHours,
	})
	return nil
}

func (c *forbiddenZoneContext) APrinterLoadedWithFZ(printerName, color, material string) error {
	profile := c.f.createPrinterProfile(300, 300, 300, []string{material})
	c.f.createMaterialProfile(60, 210)
	p := c.f.createPrinter(printerName, profile.ID)
	fil := c.f.createFilament(material, color, profile.ID)
	c.f.loadFilament(p, fil)
	return nil
}

func (c *forbiddenZoneContext) AGeometryPieceNeedingFZ(name, color, material, buildTimeStr, dueInStr string) error {
	buildTime, err := time.ParseDuration(buildTimeStr)
	if err != nil {
		return err
	}
	dueIn, err := time.ParseDuration(dueInStr)
	if err != nil {
		return err
	}
	order := c.f.createOrder(dueIn)
	c.f.createGeometryPiece(order.ID, []string{material}, []string{color}, buildTime, 50, 50, 50)
	return nil
}

func (c *forbiddenZoneContext) TheFleetRunsOneSchedulingCycleFZ() error {
	sc, err := c.f.runSchedulerAndDispatch()
	c.sc = sc
	return err
}

func (c *forbiddenZoneContext) TheScheduleHasEntryOnStartingAtEndingAtFZ(count int, printerName string, startS, endS int) error {
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

// InitializeForbiddenZoneScenario registers every step for the forbidden
// zone feature.
func InitializeForbiddenZoneScenario(sc *godog.ScenarioContext) {
	c := &forbiddenZoneContext{}
	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		c.reset(&testing.T{})
		return ctx, nil
	})

	sc.Step(`^the current time is "([^"]*)" (\w+)$`, c.TheCurrentTimeIs)
	sc.Step(`^a forbidden zone from hour (\d+) for (\d+) hours$`, c.AForbiddenZoneFromHourForHours)
	sc.Step(`^a printer "([^"]*)" loaded with "([^"]*)" "([^"]*)" filament$`, c.APrinterLoadedWithFZ)
	sc.Step(`^a geometry piece "([^"]*)" needing color "([^"]*)" and material "([^"]*)", build time "([^"]*)", due in "([^"]*)"$`, c.AGeometryPieceNeedingFZ)
	sc.Step(`^the fleet runs one scheduling cycle$`, c.TheFleetRunsOneSchedulingCycleFZ)
	sc.Step(`^the schedule has (\d+) entry on "([^"]*)" starting at (\d+)s and ending at (\d+)s$`, c.TheScheduleHasEntryOnStartingAtEndingAtFZ)
}
