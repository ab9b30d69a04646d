package config

import "time"

// DaemonConfig holds farmd process configuration.
type DaemonConfig struct {
	// PID file location, used to enforce a single farmd instance
	PIDFile string `mapstructure:"pid_file"`

	// Maximum number of device controllers farmd will run concurrently
	MaxControllers int `mapstructure:"max_controllers" validate:"min=1"`

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required"`
}

// HTTPConfig holds the operator REST surface listener configuration.
type HTTPConfig struct {
	// Listen address, e.g. ":8080"
	ListenAddr string `mapstructure:"listen_addr" validate:"required"`

	// Read/write timeouts for the operator HTTP server
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}
