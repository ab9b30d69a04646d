package bdd

import (
	"testing"

	"github.com/cucumber/godog"

	"github.com/print-farm/farm-go/test/bdd/steps"
)

func TestDeadlineInfeasible(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			steps.InitializeDeadlineInfeasibleScenario(sc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/deadline_infeasible.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run deadline infeasible tests")
	}
}
