package gios

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

const (
	// DefaultBaseURL is the base URL of the GIOŚ REST API.
	DefaultBaseURL = "https://api.gios.gov.pl/pjp-api/v1/rest"

	// maxBodyExcerpt bounds the response body excerpt carried by APIError.
	maxBodyExcerpt = 200
)

// ErrCircuitOpen is returned when the circuit breaker refuses a request.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// APIError reports a non-2xx upstream response after retries are exhausted.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the GIOŚ client.
type ClientConfig struct {
	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use. If nil, a default client with
	// Timeout is created.
	HTTPClient HTTPDoer

	// Timeout for individual API requests (default: 15s).
	Timeout time.Duration

	// MaxAttempts is the total number of attempts per request (default: 3).
	MaxAttempts uint64

	// InitialBackoff is the first retry delay (default: 1s).
	InitialBackoff time.Duration

	// MaxBackoff caps the retry delay (default: 8s).
	MaxBackoff time.Duration

	// Logger for request logging.
	Logger zerolog.Logger
}

// Client is a retrying GIOŚ API client. Transient failures (network errors,
// retryable HTTP statuses) are retried with exponential backoff; responses
// carrying the upstream error sentinel are returned as data, never retried.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	breaker    *gobreaker.CircuitBreaker[[]byte]
	cfg        ClientConfig
	logger     zerolog.Logger
}

// NewClient creates a new GIOŚ client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = 8 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "gios",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 10
		},
	})

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		breaker:    breaker,
		cfg:        cfg,
		logger:     cfg.Logger,
	}
}

// IsErrorSentinel reports whether a decoded payload carries the upstream
// business-level error marker. Such payloads arrive with HTTP 200 as well as
// with error statuses and signal "no data", not a transport failure.
func IsErrorSentinel(payload any) bool {
	rec, ok := payload.(map[string]any)
	if !ok {
		return false
	}
	_, ok = rec[keyErrorSentinel]
	return ok
}

// StationsPage fetches one page of the station listing.
func (c *Client) StationsPage(ctx context.Context, page, size int) (map[string]any, error) {
	return c.getObject(ctx, "/station/findAll", url.Values{
		"page": {fmt.Sprint(page)},
		"size": {fmt.Sprint(size)},
	})
}

// StationSensorsPage fetches one page of the sensor listing for a station.
func (c *Client) StationSensorsPage(ctx context.Context, stationID int64, page, size int) (map[string]any, error) {
	return c.getObject(ctx, fmt.Sprintf("/station/sensors/%d", stationID), url.Values{
		"page": {fmt.Sprint(page)},
		"size": {fmt.Sprint(size)},
	})
}

// CurrentData fetches the current measurement series for a sensor. The shape
// varies upstream (object envelope, bare list, or sentinel object), so the
// decoded payload is returned as-is for the walker to interpret.
func (c *Client) CurrentData(ctx context.Context, sensorID int64) (any, error) {
	return c.getJSON(ctx, fmt.Sprintf("/data/getData/%d", sensorID), nil)
}

// AirIndexData fetches the computed air quality index.
func (c *Client) AirIndexData(ctx context.Context, id int64) (map[string]any, error) {
	return c.getObject(ctx, fmt.Sprintf("/aqindex/getIndex/%d", id), nil)
}

// ArchivalData fetches one page of archival measurements for a sensor within
// the [from, to] date window.
func (c *Client) ArchivalData(ctx context.Context, sensorID int64, from, to time.Time, page, size int) (map[string]any, error) {
	return c.getObject(ctx, fmt.Sprintf("/archivalData/getDataBySensor/%d", sensorID), url.Values{
		"page":     {fmt.Sprint(page)},
		"size":     {fmt.Sprint(size)},
		"dateFrom": {from.Format("2006-01-02") + " 00:00"},
		"dateTo":   {to.Format("2006-01-02") + " 00:00"},
	})
}

// getObject is getJSON restricted to object-shaped payloads.
func (c *Client) getObject(ctx context.Context, path string, query url.Values) (map[string]any, error) {
	payload, err := c.getJSON(ctx, path, query)
	if err != nil {
		return nil, err
	}
	rec, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("get %s: got %T: %w", path, payload, ErrNotMapping)
	}
	return rec, nil
}

// getJSON issues a GET request and decodes the JSON body. Up to MaxAttempts
// attempts are made with exponential backoff on network errors and retryable
// HTTP statuses. A body that decodes to the error sentinel is returned
// without retry regardless of status.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values) (any, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	c.logger.Debug().Str("url", reqURL).Msg("GET")

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialBackoff
	bo.MaxInterval = c.cfg.MaxBackoff
	bo.MaxElapsedTime = 0 // retries bounded by MaxAttempts, not wall time

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.cfg.MaxAttempts-1), ctx)

	var payload any
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")

		body, status, err := c.execute(req)
		if err != nil {
			return err
		}

		decoded, decodeErr := decodeJSON(body)

		if status >= http.StatusBadRequest {
			// An error status with a parseable sentinel body is domain
			// data ("no data available"), not a transport failure.
			if decodeErr == nil && IsErrorSentinel(decoded) {
				payload = decoded
				return nil
			}
			apiErr := &APIError{StatusCode: status, Body: excerpt(body)}
			c.logger.Warn().Int("status", status).Str("url", reqURL).Msg("retryable API error")
			return apiErr
		}

		if decodeErr != nil {
			return backoff.Permanent(fmt.Errorf("decode response from %s: %w", path, decodeErr))
		}
		payload = decoded
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return payload, nil
}

// execute performs one HTTP round trip through the circuit breaker and
// drains the body.
func (c *Client) execute(req *http.Request) ([]byte, int, error) {
	var status int
	body, err := c.breaker.Execute(func() ([]byte, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
		return b, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, 0, backoff.Permanent(ErrCircuitOpen)
		}
		return nil, 0, err
	}
	return body, status, nil
}

func decodeJSON(body []byte) (any, error) {
	var payload any
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func excerpt(body []byte) string {
	s := string(body)
	if len(s) > maxBodyExcerpt {
		s = s[:maxBodyExcerpt]
	}
	return s
}
