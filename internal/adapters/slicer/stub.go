// Package slicer implements ports.SlicerClient. The real slicing/quoting
// service is a gRPC-shaped external collaborator per spec.md §1's "thin
// contracts only" framing; this package provides the in-process stub this
// repo exercises the port against (no protoc toolchain is available to
// generate a real gRPC client here). Grounded on the teacher's
// ContainerRunner.Log in-memory-cache-plus-async-goroutine idiom
// (internal/adapters/grpc/container_runner.go): a mutex-guarded map of job
// state, completed off a background goroutine rather than a synchronous
// call.
package slicer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/print-farm/farm-go/internal/domain/ports"
	"github.com/print-farm/farm-go/internal/domain/shared"
)

// jobState is the stub's private record of one submitted slice job.
type jobState struct {
	ready  bool
	result ports.SliceResult
}

// Stub is an in-process ports.SlicerClient. Submit enqueues a job that
// becomes ready after Delay, estimating build time and weight from the
// request shape rather than real geometry analysis.
type Stub struct {
	Clock shared.Clock
	Delay time.Duration

	// PerModelSeconds and PerModelGrams scale the synthesized estimate by
	// the number of geometry models in the request, so multi-model jobs
	// quote larger than single-model ones.
	PerModelSeconds int64
	PerModelGrams   float64

	mu   sync.RWMutex
	jobs map[uuid.UUID]*jobState
}

// NewStub constructs a Stub with the teacher's mock-external-service
// defaults: a short fixed delay and linear per-model estimates.
func NewStub(clock shared.Clock) *Stub {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Stub{
		Clock:           clock,
		Delay:           5 * time.Second,
		PerModelSeconds: 1800,
		PerModelGrams:   25,
		jobs:            make(map[uuid.UUID]*jobState),
	}
}

// Submit records a pending job and completes it asynchronously after Delay.
func (s *Stub) Submit(ctx context.Context, req ports.SliceRequest) (uuid.UUID, error) {
	if len(req.GeometryModelIDs) == 0 {
		return uuid.UUID{}, fmt.Errorf("slice request has no geometry models")
	}

	jobID := uuid.New()
	models := len(req.GeometryModelIDs)

	s.mu.Lock()
	s.jobs[jobID] = &jobState{ready: false}
	s.mu.Unlock()

	programFile := ""
	if req.SaveProgram {
		programFile = fmt.Sprintf("%s.gcode", jobID.String())
	}

	go func() {
		s.Clock.Sleep(s.Delay)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.jobs[jobID] = &jobState{
			ready: true,
			result: ports.SliceResult{
				Ready:              true,
				EstimatedBuildTime: int64(models) * s.PerModelSeconds,
				EstimatedWeightG:   float64(models) * s.PerModelGrams,
				ProgramFile:        programFile,
			},
		}
	}()

	return jobID, nil
}

// Result returns the job's current state, not-ready if the background
// goroutine has not yet completed it.
func (s *Stub) Result(ctx context.Context, jobID uuid.UUID) (ports.SliceResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return ports.SliceResult{}, fmt.Errorf("unknown slice job %s", jobID)
	}
	if !job.ready {
		return ports.SliceResult{Ready: false}, nil
	}
	return job.result, nil
}

var _ ports.SlicerClient = (*Stub)(nil)
