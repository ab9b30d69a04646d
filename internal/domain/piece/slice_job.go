package piece

import (
	"time"

	"github.com/google/uuid"
)

// SliceJob is a handle to the external slicing/quoting service. The core
// never talks G-code; it only observes readiness, the resulting estimates,
// and the produced program file through this handle (spec.md §1, "out of
// scope" collaborators).
type SliceJob struct {
	ID                  uuid.UUID
	SliceConfigurationID uuid.UUID
	GeometryModelIDs     []uuid.UUID
	SaveProgram          bool

	Ready               bool
	EstimatedBuildTime  time.Duration
	EstimatedWeightG    float64
	ProgramFile         string

	// ErrorLog surfaces the external slicer's failure detail to the
	// operator when Ready is false and the job terminated in error.
	ErrorLog string
}

// EstimatedBuildTimeSeconds returns the estimate in whole seconds, the unit
// the scheduler's constraint model works in.
func (s *SliceJob) EstimatedBuildTimeSeconds() int64 {
	return int64(s.EstimatedBuildTime.Seconds())
}

// Failed reports whether the external job terminated without producing a
// usable program (non-ready with a recorded error).
func (s *SliceJob) Failed() bool {
	return !s.Ready && s.ErrorLog != ""
}
