// Package ports declares the interfaces the domain/application layers use
// to talk to external collaborators, kept as thin contracts per spec.md §1
// ("explicitly out of scope... treated as external collaborators with thin
// contracts only").
package ports

import (
	"context"
	"io"
)

// PrinterState is the C1 client's fetch_printer_state() result.
type PrinterState struct {
	Operational     bool
	Printing        bool
	Paused          bool
	Ready           bool
	ClosedOrError   bool
	NozzleActualC   float64
	BedActualC      float64
}

// JobState is the C1 client's fetch_job_state() result.
type JobState struct {
	FileName        string
	EstimatedTotalS int64
	EstimatedLeftS  *int64
}

// DeviceAPIClient speaks the fixed printer-host REST dialect of spec.md
// §4.1 / §6. One instance is owned per DeviceController.
type DeviceAPIClient interface {
	Ping(ctx context.Context) (bool, error)
	IssueCommands(ctx context.Context, lines []string) error
	// UploadAndStart streams the file with print=true and returns the
	// assigned remote filename on success.
	UploadAndStart(ctx context.Context, filename string, content io.Reader) (string, error)
	FetchPrinterState(ctx context.Context) (PrinterState, error)
	FetchJobState(ctx context.Context) (JobState, error)
	Cancel(ctx context.Context) error
}
