package bdd

import (
	"testing"

	"github.com/cucumber/godog"

	"github.com/print-farm/farm-go/test/bdd/steps"
)

func TestCancellation(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			steps.InitializeCancellationScenario(sc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/cancellation.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run cancellation tests")
	}
}
