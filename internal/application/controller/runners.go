// Package controller implements the Device Controller (C2): the
// per-printer task queue, active-task tracking, and the task-kind-specific
// runners (C3) that drive a claimed task to a terminal state.
package controller

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/print-farm/farm-go/internal/application/common"
	"github.com/print-farm/farm-go/internal/domain/device"
	"github.com/print-farm/farm-go/internal/domain/ports"
	"github.com/print-farm/farm-go/internal/domain/shared"
	"github.com/print-farm/farm-go/internal/domain/shared/apperr"
)

// endOfFileSentinel is appended to a program upload so the program runner
// can detect completion from status polling without ambiguity (spec.md
// §4.1): a synchronize-all-motion command followed by a benign query.
var endOfFileSentinel = []string{"M400", "M105"}

// CommandRunner drives a "command" task: issue the commands and finish.
type CommandRunner struct {
	Client ports.DeviceAPIClient
}

func (r *CommandRunner) Run(ctx context.Context, t *device.Task) error {
	t.Sent = true
	if err := r.Client.IssueCommands(ctx, t.CommandScript); err != nil {
		return t.Fail(fmt.Errorf("issue_commands: %w", err))
	}
	return t.Complete()
}

// ProgramSource supplies the bytes for a program-kind task's upload,
// either a stored ready-to-run file or the output of a finished SliceJob.
type ProgramSource interface {
	Open(ctx context.Context, t *device.Task) (name string, content []byte, err error)
}

// ProgramRunner drives a "program" task: upload once, then poll status
// cooperatively until the remote reports done (spec.md §4.2).
type ProgramRunner struct {
	Client      ports.DeviceAPIClient
	Source      ProgramSource
	Clock       shared.Clock
	PollDelay   time.Duration // 2s per spec.md §4.2
}

func (r *ProgramRunner) Run(ctx context.Context, t *device.Task) error {
	logger := common.LoggerFromContext(ctx)

	if !t.Sent {
		name, content, err := r.Source.Open(ctx, t)
		if err != nil {
			return t.Fail(fmt.Errorf("open program source: %w", err))
		}
		body := append(append([]byte{}, content...), []byte(strings.Join(endOfFileSentinel, "\n"))...)
		assigned, err := r.Client.UploadAndStart(ctx, name, bytes.NewReader(body))
		if err != nil {
			return t.Fail(fmt.Errorf("upload_and_start: %w", err))
		}
		t.RemoteFilename = assigned
		t.Sent = true
	}

	delay := r.PollDelay
	if delay == 0 {
		delay = 2 * time.Second
	}

	for {
		if t.Status() == device.StatusCancelled {
			return nil
		}

		job, err := r.Client.FetchJobState(ctx)
		if err != nil {
			logger.Log("warn", "poll job state failed", map[string]interface{}{"task_id": t.ID.String(), "error": err.Error()})
			r.Clock.Sleep(delay)
			continue
		}

		if t.RemoteFilename != job.FileName {
			return t.Fail(apperr.ErrTrackingLost)
		}

		state, err := r.Client.FetchPrinterState(ctx)
		if err != nil {
			logger.Log("warn", "poll printer state failed", map[string]interface{}{"task_id": t.ID.String(), "error": err.Error()})
			r.Clock.Sleep(delay)
			continue
		}

		if state.Printing || state.Paused {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			r.Clock.Sleep(delay)
			continue
		}

		return t.Complete()
	}
}
