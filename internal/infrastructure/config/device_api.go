package config

import "time"

// DeviceAPIConfig holds the HTTP client configuration shared by every
// device controller talking to a printer host's REST dialect. Per-printer
// endpoint/API key live on the Printer/DeviceController persistence rows,
// not here -- this only configures the transport behavior.
type DeviceAPIConfig struct {
	// Request timeout for a single device call
	Timeout time.Duration `mapstructure:"timeout" validate:"required"`

	// Rate limiting settings (token bucket, per controller)
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// Retry configuration
	Retry RetryConfig `mapstructure:"retry"`

	// Circuit breaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Maximum requests per second
	Requests int `mapstructure:"requests" validate:"min=1"`

	// Burst size for token bucket
	Burst int `mapstructure:"burst" validate:"min=1"`
}

// RetryConfig holds retry configuration for failed requests
type RetryConfig struct {
	// Maximum number of retry attempts
	MaxAttempts int `mapstructure:"max_attempts" validate:"min=0"`

	// Base duration for exponential backoff
	BackoffBase time.Duration `mapstructure:"backoff_base"`
}

// CircuitBreakerConfig holds circuit breaker tuning
type CircuitBreakerConfig struct {
	// Consecutive failures before the breaker opens
	FailureThreshold int `mapstructure:"failure_threshold" validate:"min=1"`

	// How long the breaker stays open before allowing a half-open probe
	OpenDuration time.Duration `mapstructure:"open_duration" validate:"required"`

	// Successful half-open probes required to close the breaker
	SuccessThreshold int `mapstructure:"success_threshold" validate:"min=1"`
}
