// Package deviceapi adapts ports.DeviceAPIClient onto the printer-host REST
// dialect of spec.md §4.1/§6, grounded on the teacher's api.SpaceTradersClient:
// the same rate-limiter + circuit-breaker + bounded-retry shape, retargeted
// to a different wire format and auth header.
package deviceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/print-farm/farm-go/internal/adapters/metrics"
	"github.com/print-farm/farm-go/internal/domain/ports"
	"github.com/print-farm/farm-go/internal/domain/shared"
	"github.com/print-farm/farm-go/internal/domain/shared/apperr"
	"github.com/print-farm/farm-go/internal/infrastructure/config"
)

// Client implements ports.DeviceAPIClient against one printer host.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	rateLimiter    *rate.Limiter
	circuitBreaker *CircuitBreaker
	clock          shared.Clock

	retryMaxAttempts int
	retryBackoffBase time.Duration
}

// NewClient constructs a Client for one printer's host, baseURL without a
// trailing slash (e.g. "http://192.168.1.40:80").
func NewClient(baseURL, apiKey string, cfg config.DeviceAPIConfig, clock shared.Clock) *Client {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit.Requests), cfg.RateLimit.Burst),
		circuitBreaker: NewCircuitBreaker(
			cfg.CircuitBreaker.FailureThreshold,
			cfg.CircuitBreaker.OpenDuration,
			cfg.CircuitBreaker.SuccessThreshold,
			clock,
		),
		clock:            clock,
		retryMaxAttempts: cfg.Retry.MaxAttempts,
		retryBackoffBase: cfg.Retry.BackoffBase,
	}
}

// nonRetryableError marks a failure the retry loop must not re-attempt
// (a malformed request, a non-429 4xx response, a decode failure).
type nonRetryableError struct {
	err error
}

func (e *nonRetryableError) Error() string { return e.err.Error() }
func (e *nonRetryableError) Unwrap() error { return e.err }

// request performs one logical call through the rate limiter and circuit
// breaker, retrying retryable failures with exponential backoff, and
// records the resolved outcome for the device-API metrics collector.
func (c *Client) request(ctx context.Context, method, path string, body io.Reader, contentType string, result interface{}) error {
	start := c.clock.Now()
	err := c.requestWithRetry(ctx, method, path, body, contentType, result)
	metrics.RecordAPIRequest(method, path, apiOutcome(err), c.clock.Now().Sub(start).Seconds())
	return err
}

func apiOutcome(err error) string {
	if err == nil {
		return "success"
	}
	return "error"
}

func (c *Client) requestWithRetry(ctx context.Context, method, path string, body io.Reader, contentType string, result interface{}) error {
	var lastErr error
	for attempt := 0; attempt <= c.retryMaxAttempts; attempt++ {
		if attempt > 0 {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			backoff := c.retryBackoffBase * time.Duration(1<<uint(attempt-1))
			c.clock.Sleep(backoff)
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait: %w", err)
		}

		err := c.circuitBreaker.Call(func() error {
			return c.doRequest(ctx, method, path, body, contentType, result)
		})
		if err == nil {
			return nil
		}
		lastErr = err

		var nre *nonRetryableError
		if errors.As(err, &nre) {
			return nre.err
		}
		if errors.Is(err, apperr.ErrCircuitOpen) {
			return err
		}
	}
	return fmt.Errorf("device api request failed after %d attempts: %w", c.retryMaxAttempts+1, lastErr)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader, contentType string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &nonRetryableError{err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("x-api-key", c.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("device host unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if result != nil {
			if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
				return &nonRetryableError{err: fmt.Errorf("decode response: %w", err)}
			}
		}
		return nil
	}

	payload, _ := io.ReadAll(resp.Body)
	apiErr := fmt.Errorf("device host returned %d: %s", resp.StatusCode, string(payload))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode == http.StatusServiceUnavailable:
		return apiErr
	case resp.StatusCode >= 500:
		return apiErr
	default:
		return &nonRetryableError{err: apiErr}
	}
}

// Ping hits GET /api/version to confirm host reachability.
func (c *Client) Ping(ctx context.Context) (bool, error) {
	err := c.request(ctx, http.MethodGet, "/api/version", nil, "", nil)
	if err != nil {
		return false, err
	}
	return true, nil
}

// IssueCommands posts a gcode command batch to POST /api/printer/command.
func (c *Client) IssueCommands(ctx context.Context, lines []string) error {
	payload, err := json.Marshal(map[string][]string{"commands": lines})
	if err != nil {
		return fmt.Errorf("marshal commands: %w", err)
	}
	return c.request(ctx, http.MethodPost, "/api/printer/command", bytes.NewReader(payload), "application/json", nil)
}

// UploadAndStart streams content as a multipart upload to
// POST /api/files/local with print=true, returning the remote filename.
func (c *Client) UploadAndStart(ctx context.Context, filename string, content io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("print", "true"); err != nil {
		return "", fmt.Errorf("write print field: %w", err)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("copy file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	var result struct {
		Files struct {
			Local struct {
				Name string `json:"name"`
			} `json:"local"`
		} `json:"files"`
	}
	if err := c.request(ctx, http.MethodPost, "/api/files/local", &buf, writer.FormDataContentType(), &result); err != nil {
		return "", err
	}
	if result.Files.Local.Name == "" {
		return filename, nil
	}
	return result.Files.Local.Name, nil
}

// FetchPrinterState gets GET /api/printer.
func (c *Client) FetchPrinterState(ctx context.Context) (ports.PrinterState, error) {
	var raw struct {
		State struct {
			Flags struct {
				Operational   bool `json:"operational"`
				Printing      bool `json:"printing"`
				Paused        bool `json:"paused"`
				Ready         bool `json:"ready"`
				ClosedOrError bool `json:"closedOrError"`
			} `json:"flags"`
		} `json:"state"`
		Temperature struct {
			Tool0 struct {
				Actual float64 `json:"actual"`
			} `json:"tool0"`
			Bed struct {
				Actual float64 `json:"actual"`
			} `json:"bed"`
		} `json:"temperature"`
	}
	if err := c.request(ctx, http.MethodGet, "/api/printer", nil, "", &raw); err != nil {
		return ports.PrinterState{}, err
	}
	return ports.PrinterState{
		Operational:   raw.State.Flags.Operational,
		Printing:      raw.State.Flags.Printing,
		Paused:        raw.State.Flags.Paused,
		Ready:         raw.State.Flags.Ready,
		ClosedOrError: raw.State.Flags.ClosedOrError,
		NozzleActualC: raw.Temperature.Tool0.Actual,
		BedActualC:    raw.Temperature.Bed.Actual,
	}, nil
}

// FetchJobState gets GET /api/job.
func (c *Client) FetchJobState(ctx context.Context) (ports.JobState, error) {
	var raw struct {
		Job struct {
			File struct {
				Name string `json:"name"`
			} `json:"file"`
		} `json:"job"`
		Progress struct {
			PrintTime     int64  `json:"printTime"`
			PrintTimeLeft *int64 `json:"printTimeLeft"`
		} `json:"progress"`
	}
	if err := c.request(ctx, http.MethodGet, "/api/job", nil, "", &raw); err != nil {
		return ports.JobState{}, err
	}
	return ports.JobState{
		FileName:        raw.Job.File.Name,
		EstimatedTotalS: raw.Progress.PrintTime,
		EstimatedLeftS:  raw.Progress.PrintTimeLeft,
	}, nil
}

// Cancel stops the active job on the host.
func (c *Client) Cancel(ctx context.Context) error {
	payload, err := json.Marshal(map[string]string{"command": "cancel"})
	if err != nil {
		return fmt.Errorf("marshal cancel command: %w", err)
	}
	return c.request(ctx, http.MethodPost, "/api/job", bytes.NewReader(payload), "application/json", nil)
}

var _ ports.DeviceAPIClient = (*Client)(nil)
