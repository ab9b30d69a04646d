package bdd

import (
	"testing"

	"github.com/cucumber/godog"

	"github.com/print-farm/farm-go/test/bdd/steps"
)

func TestHappyPath(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			steps.InitializeHappyPathScenario(sc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/happy_path.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run happy path tests")
	}
}
