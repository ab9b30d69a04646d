package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/print-farm/farm-go/internal/domain/device"
	"github.com/print-farm/farm-go/internal/domain/ports"
	"github.com/print-farm/farm-go/internal/domain/shared"
)

// SliceThenProgramRunner waits for the external SliceJob to become ready,
// then delegates to a ProgramRunner for upload+poll (spec.md §4.2).
type SliceThenProgramRunner struct {
	Slicer    ports.SlicerClient
	Program   *ProgramRunner
	Clock     shared.Clock
	PollDelay time.Duration
}

func (r *SliceThenProgramRunner) Run(ctx context.Context, t *device.Task) error {
	if t.SliceJobID == nil {
		return t.Fail(fmt.Errorf("slice_then_program task missing slice job id"))
	}

	delay := r.PollDelay
	if delay == 0 {
		delay = 2 * time.Second
	}

	if !t.Sent {
		for {
			if t.Status() == device.StatusCancelled {
				return nil
			}
			result, err := r.Slicer.Result(ctx, *t.SliceJobID)
			if err != nil {
				return t.Fail(fmt.Errorf("slice job result: %w", err))
			}
			if result.ErrorLog != "" {
				return t.Fail(fmt.Errorf("slice job failed: %s", result.ErrorLog))
			}
			if result.Ready {
				t.ProgramFile = result.ProgramFile
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			r.Clock.Sleep(delay)
		}
	}

	return r.Program.Run(ctx, t)
}

// FilamentChangeRunner wraps a filament-change task's synthesized command
// program. Completion is gated by a separate human confirmation rather
// than remote status (spec.md §4.2), so Run only drives the program
// subtask; the controller service marks the task's human gate via
// device.AwaitingHuman using the linked FilamentChange's Confirmed flag.
type FilamentChangeRunner struct {
	Command *CommandRunner
}

func (r *FilamentChangeRunner) Run(ctx context.Context, t *device.Task) error {
	t.Sent = true
	if err := r.Command.Client.IssueCommands(ctx, t.CommandScript); err != nil {
		return t.Fail(fmt.Errorf("filament change issue_commands: %w", err))
	}
	// The task itself does not complete here -- it stays claimed/running
	// until the operator confirms the filament change (awaiting-human
	// gate); ConfirmFilamentChangeHandler calls t.Complete() at that point.
	return nil
}
