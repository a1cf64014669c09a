// Package api is the REST client for the model marketplace backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/j-veylop/aximo-tui/internal/logger"
	"github.com/j-veylop/aximo-tui/internal/models"
)

const (
	defaultTimeout         = 30 * time.Second
	defaultRateLimit       = 5
	defaultMaxRetries      = 3
	defaultDetailCacheSize = 128
	maxResponseSize        = 16 << 20
)

// TokenFunc returns the current bearer token, or "" when signed out.
type TokenFunc func() string

// Client talks to the backend over HTTP.
type Client struct {
	baseURL        *url.URL
	httpClient     *http.Client
	token          TokenFunc
	limiter        *rate.Limiter
	breaker        *gobreaker.CircuitBreaker
	details        *lru.Cache[string, models.ModelRecord]
	maxRetries     uint64
	retryInterval  time.Duration
	detailCacheLen int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero or less disables the limit.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), max(int(perSecond), 1))
	}
}

// WithMaxRetries sets how many times a failed GET is repeated.
func WithMaxRetries(n uint64) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithRetryInterval sets the first backoff delay.
func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) { c.retryInterval = d }
}

// WithDetailCacheSize sets how many GetModel results are memoized.
func WithDetailCacheSize(n int) Option {
	return func(c *Client) { c.detailCacheLen = n }
}

// New creates a client for the backend at baseURL.
func New(baseURL string, token TokenFunc, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", baseURL)
	}
	if token == nil {
		token = func() string { return "" }
	}

	c := &Client{
		baseURL:        u,
		httpClient:     &http.Client{Timeout: defaultTimeout},
		token:          token,
		maxRetries:     defaultMaxRetries,
		retryInterval:  250 * time.Millisecond,
		detailCacheLen: defaultDetailCacheSize,
	}
	WithRateLimit(defaultRateLimit)(c)
	for _, opt := range opts {
		opt(c)
	}

	c.details, err = lru.New[string, models.ModelRecord](max(c.detailCacheLen, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to create detail cache: %w", err)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "api",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
		// Client errors mean the backend answered; only transport failures
		// and 5xx count against it.
		IsSuccessful: func(err error) bool {
			return err == nil || isClientError(err)
		},
	})

	return c, nil
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// do sends one logical request. GETs are retried with exponential backoff on
// transport errors and retryable statuses. The decoded payload, unwrapped from
// a {"result": ...} envelope if present, is stored in out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	attempt := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		raw, err := c.breaker.Execute(func() (interface{}, error) {
			return c.send(ctx, method, path, query, payload)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrUnavailable)
			}
			if isClientError(err) || ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}

		if out == nil {
			return nil
		}
		if err := decodeResult(raw.([]byte), out); err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	var retries uint64
	if method == http.MethodGet {
		retries = c.maxRetries
	}
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(c.retryInterval),
		backoff.WithMaxElapsedTime(2*time.Minute),
	)
	return backoff.RetryNotify(attempt, backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx),
		func(err error, next time.Duration) {
			logger.Debug("retrying request", "method", method, "path", path, "error", err, "next", next)
		})
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s request failed: %w", method, path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(method, path, resp.StatusCode, data)
	}
	return data, nil
}

// decodeResult accepts either a bare JSON value or a {"result": ...} envelope.
func decodeResult(data []byte, out any) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	if data[0] == '{' {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(data, &envelope); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		if inner, ok := envelope["result"]; ok {
			data = inner
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
