package config

import "time"

// SchedulerConfig tunes the constraint-based Scheduler (C5).
type SchedulerConfig struct {
	// How often the scheduler tick re-solves the schedule
	Period time.Duration `mapstructure:"period" validate:"required"`

	// Safety cap on the planning horizon handed to the solver
	HorizonCap time.Duration `mapstructure:"horizon_cap" validate:"required"`

	// IANA time zone the forbidden zones and deadlines are interpreted in
	TimeZone string `mapstructure:"time_zone" validate:"required"`

	// Daily windows during which no print may be started
	ForbiddenZones []ForbiddenZoneConfig `mapstructure:"forbidden_zones"`
}

// ForbiddenZoneConfig is a daily recurring window, e.g. "no starts 22:00-06:00".
type ForbiddenZoneConfig struct {
	StartHour     int `mapstructure:"start_hour" validate:"min=0,max=23"`
	DurationHours int `mapstructure:"duration_hours" validate:"min=1,max=24"`
}

// DispatcherConfig tunes the Dispatcher (C6).
type DispatcherConfig struct {
	// How often the dispatcher tick runs
	Period time.Duration `mapstructure:"period" validate:"required"`
}

// PollerConfig tunes the per-controller status poller.
type PollerConfig struct {
	// How often each controller is polled for device/job state
	Period time.Duration `mapstructure:"period" validate:"required"`
}

// WatchdogConfig tunes the stalled-device buzzer heuristic.
type WatchdogConfig struct {
	// How often the watchdog sweep runs
	Period time.Duration `mapstructure:"period" validate:"required"`

	// Consecutive dispatch ticks spent in the human-intervention gate before the buzzer is poked
	BeepThreshold int `mapstructure:"beep_threshold" validate:"min=1"`
}
