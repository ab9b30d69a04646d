package deviceapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/print-farm/farm-go/internal/adapters/deviceapi"
	"github.com/print-farm/farm-go/internal/domain/shared"
	"github.com/print-farm/farm-go/internal/infrastructure/config"
)

func testConfig() config.DeviceAPIConfig {
	return config.DeviceAPIConfig{
		Timeout: time.Second,
		RateLimit: config.RateLimitConfig{
			Requests: 100,
			Burst:    10,
		},
		Retry: config.RetryConfig{
			MaxAttempts: 2,
			BackoffBase: time.Millisecond,
		},
		CircuitBreaker: config.CircuitBreakerConfig{
			FailureThreshold: 5,
			OpenDuration:     time.Minute,
			SuccessThreshold: 1,
		},
	}
}

func TestClient_Ping(t *testing.T) {
	// Arrange
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		assert.Equal(t, "/api/version", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := deviceapi.NewClient(server.URL, "secret-key", testConfig(), shared.NewMockClock(time.Time{}))

	// Act
	ok, err := client.Ping(context.Background())

	// Assert
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "secret-key", gotKey)
}

func TestClient_FetchPrinterState(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"state": map[string]interface{}{
				"flags": map[string]interface{}{
					"operational":   true,
					"printing":      true,
					"paused":        false,
					"ready":         false,
					"closedOrError": false,
				},
			},
			"temperature": map[string]interface{}{
				"tool0": map[string]interface{}{"actual": 210.5},
				"bed":   map[string]interface{}{"actual": 60.0},
			},
		})
	}))
	defer server.Close()

	client := deviceapi.NewClient(server.URL, "secret-key", testConfig(), shared.NewMockClock(time.Time{}))

	// Act
	state, err := client.FetchPrinterState(context.Background())

	// Assert
	require.NoError(t, err)
	assert.True(t, state.Operational)
	assert.True(t, state.Printing)
	assert.Equal(t, 210.5, state.NozzleActualC)
	assert.Equal(t, 60.0, state.BedActualC)
}

func TestClient_NonRetryable4xxDoesNotRetry(t *testing.T) {
	// Arrange
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := deviceapi.NewClient(server.URL, "secret-key", testConfig(), shared.NewMockClock(time.Time{}))

	// Act
	err := client.IssueCommands(context.Background(), []string{"G28"})

	// Assert
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestClient_RetriesOn503(t *testing.T) {
	// Arrange
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Retry.MaxAttempts = 3
	client := deviceapi.NewClient(server.URL, "secret-key", cfg, shared.NewMockClock(time.Time{}))

	// Act
	err := client.IssueCommands(context.Background(), []string{"G28"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}
