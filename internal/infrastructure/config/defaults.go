package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "farm"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "farm"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 25
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 5
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Device API defaults
	if cfg.DeviceAPI.Timeout == 0 {
		cfg.DeviceAPI.Timeout = 10 * time.Second
	}
	if cfg.DeviceAPI.RateLimit.Requests == 0 {
		cfg.DeviceAPI.RateLimit.Requests = 2
	}
	if cfg.DeviceAPI.RateLimit.Burst == 0 {
		cfg.DeviceAPI.RateLimit.Burst = 5
	}
	if cfg.DeviceAPI.Retry.MaxAttempts == 0 {
		cfg.DeviceAPI.Retry.MaxAttempts = 3
	}
	if cfg.DeviceAPI.Retry.BackoffBase == 0 {
		cfg.DeviceAPI.Retry.BackoffBase = 1 * time.Second
	}
	if cfg.DeviceAPI.CircuitBreaker.FailureThreshold == 0 {
		cfg.DeviceAPI.CircuitBreaker.FailureThreshold = 5
	}
	if cfg.DeviceAPI.CircuitBreaker.OpenDuration == 0 {
		cfg.DeviceAPI.CircuitBreaker.OpenDuration = 30 * time.Second
	}
	if cfg.DeviceAPI.CircuitBreaker.SuccessThreshold == 0 {
		cfg.DeviceAPI.CircuitBreaker.SuccessThreshold = 2
	}

	// Scheduler defaults
	if cfg.Scheduler.Period == 0 {
		cfg.Scheduler.Period = 1 * time.Minute
	}
	if cfg.Scheduler.HorizonCap == 0 {
		cfg.Scheduler.HorizonCap = 14 * 24 * time.Hour
	}
	if cfg.Scheduler.TimeZone == "" {
		cfg.Scheduler.TimeZone = "UTC"
	}

	// Dispatcher defaults
	if cfg.Dispatcher.Period == 0 {
		cfg.Dispatcher.Period = 15 * time.Second
	}

	// Poller defaults
	if cfg.Poller.Period == 0 {
		cfg.Poller.Period = 5 * time.Second
	}

	// Watchdog defaults
	if cfg.Watchdog.Period == 0 {
		cfg.Watchdog.Period = 30 * time.Second
	}
	if cfg.Watchdog.BeepThreshold == 0 {
		cfg.Watchdog.BeepThreshold = 6
	}

	// Daemon defaults
	if cfg.Daemon.PIDFile == "" {
		cfg.Daemon.PIDFile = "/tmp/farmd.pid"
	}
	if cfg.Daemon.MaxControllers == 0 {
		cfg.Daemon.MaxControllers = 64
	}
	if cfg.Daemon.ShutdownTimeout == 0 {
		cfg.Daemon.ShutdownTimeout = 30 * time.Second
	}

	// HTTP defaults
	if cfg.HTTP.ListenAddr == "" {
		cfg.HTTP.ListenAddr = ":8080"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 10 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 10 * time.Second
	}

	// Metrics defaults
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Metrics.Host == "" {
		cfg.Metrics.Host = "localhost"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Logging.Rotation.MaxSize == 0 {
		cfg.Logging.Rotation.MaxSize = 100 // MB
	}
	if cfg.Logging.Rotation.MaxBackups == 0 {
		cfg.Logging.Rotation.MaxBackups = 3
	}
	if cfg.Logging.Rotation.MaxAge == 0 {
		cfg.Logging.Rotation.MaxAge = 28 // days
	}
}
