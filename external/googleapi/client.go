// Package googleapi is the raw transport against the Google Sheets and
// Drive REST APIs. The core consumes it only through the narrow interfaces
// in internal/usecase; everything network-shaped (auth header, retries,
// circuit breaking) lives here.
package googleapi

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/BigLep/roster-sync/internal/platform/logging"
	"github.com/BigLep/roster-sync/internal/platform/resilience"
	"github.com/BigLep/roster-sync/internal/usecase"
)

const (
	defaultSheetsBaseURL = "https://sheets.googleapis.com/v4"
	defaultDriveBaseURL  = "https://www.googleapis.com/drive/v3"

	maxResponseBytes = 6 << 20
)

var errGoogleTransient = crerr.New("google api transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	SheetsBaseURL  string
	DriveBaseURL   string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client implements usecase.RangeFetcher, usecase.FileStore and
// usecase.RangeWriter.
type Client struct {
	httpClient     *http.Client
	sheetsBaseURL  string
	driveBaseURL   string
	token          string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	sheetsBaseURL := strings.TrimRight(strings.TrimSpace(cfg.SheetsBaseURL), "/")
	if sheetsBaseURL == "" {
		sheetsBaseURL = defaultSheetsBaseURL
	}
	driveBaseURL := strings.TrimRight(strings.TrimSpace(cfg.DriveBaseURL), "/")
	if driveBaseURL == "" {
		driveBaseURL = defaultDriveBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		sheetsBaseURL:  sheetsBaseURL,
		driveBaseURL:   driveBaseURL,
		token:          strings.TrimSpace(cfg.Token),
		maxRetries:     max(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// doJSON executes one request through the breaker and decodes the response
// into target when target is non-nil.
func (c *Client) doJSON(ctx context.Context, method, fullURL string, body any, target any) error {
	raw, err := c.doRaw(ctx, method, fullURL, body)
	if err != nil {
		return err
	}
	if target == nil {
		return nil
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode google api payload: %w", err)
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, method, fullURL string, body any) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "google api circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: google api is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	raw, err := c.executeRequest(ctx, method, fullURL, body)
	if c.circuitEnabled {
		if err != nil && isCircuitFailure(err) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	return raw, err
}

func (c *Client) executeRequest(ctx context.Context, method, fullURL string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		encoded, err := sonic.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		payload = encoded
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errGoogleTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errGoogleTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: google api status=%d body=%s", errGoogleTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("google api status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("google api request failed")
	}
	c.logger.WarnContext(ctx, "google api request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isCircuitFailure(err error) bool {
	return stderrors.Is(err, errGoogleTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func abbreviateBody(body []byte) string {
	const limit = 256
	text := strings.TrimSpace(string(body))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
