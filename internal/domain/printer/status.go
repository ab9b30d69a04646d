package printer

import "time"

// Flags mirrors the printer-host's reported state flags (spec.md §6).
type Flags struct {
	Operational    bool
	Printing       bool
	Paused         bool
	Ready          bool
	ClosedOrError  bool
	ConnectionError bool
}

// Temperatures holds the two actual readings the core cares about.
type Temperatures struct {
	NozzleActualC float64
	BedActualC    float64
}

// JobState mirrors the printer-host's /api/job response.
type JobState struct {
	FileName          string
	EstimatedTotalS    int64
	EstimatedLeftS     *int64 // nil when the remote reports printTimeLeft as null
}

// Status is the DeviceController's cached status aggregate, refreshed by
// the periodic status poller (spec.md §4.7) and never mutated by the
// dispatch tick.
type Status struct {
	Flags        Flags
	Temperatures Temperatures
	Job          JobState
	UpdatedAt    time.Time
}
