// Package backend implements the HTTP client for the Reelist server API.
// Every request passes through a shared rate limiter and circuit breaker,
// so a struggling server slows the whole client down uniformly instead of
// producing a different failure mode per screen.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"reelist/internal/domain"
	"reelist/internal/infra/config"
)

// maxResponseBody is the maximum response body size read from the server.
const maxResponseBody = 1 * 1024 * 1024 // 1 MB

// headerClientSession carries the client session ULID so server logs can
// correlate requests from the same installation.
const headerClientSession = "X-Client-Session"

// Defaults applied when config values are zero.
const (
	defaultTimeout         time.Duration = 10 * time.Second
	defaultProbeTimeout    time.Duration = 3 * time.Second
	defaultRatePerSecond                 = 5.0
	defaultRateBurst                     = 8
	defaultBreakerFailures uint32        = 5
	defaultBreakerCooldown time.Duration = 30 * time.Second
)

// Client talks to the Reelist server. It is safe for concurrent use.
type Client struct {
	baseURL      string
	http         *http.Client
	limiter      *rate.Limiter
	breaker      *gobreaker.CircuitBreaker[[]byte]
	probeTimeout time.Duration
	logger       *slog.Logger
}

// New creates a Client for the server at cfg.URL.
// Zero-valued config fields fall back to package defaults.
func New(cfg config.BackendConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	probeTimeout := cfg.ProbeTimeout
	if probeTimeout == 0 {
		probeTimeout = defaultProbeTimeout
	}
	perSecond := cfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = defaultRatePerSecond
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = defaultRateBurst
	}
	maxFailures := cfg.BreakerFailures
	if maxFailures == 0 {
		maxFailures = defaultBreakerFailures
	}
	cooldown := cfg.BreakerCooldown
	if cooldown == 0 {
		cooldown = defaultBreakerCooldown
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 1, // allow 1 probe in half-open state
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// Rejections and auth failures are server verdicts, not outages.
			return !errors.Is(err, domain.ErrBackendUnreachable) &&
				!errors.Is(err, domain.ErrTimeout) &&
				!errors.Is(err, domain.ErrBackendStatus)
		},
	})

	return &Client{
		baseURL:      strings.TrimRight(cfg.URL, "/"),
		http:         &http.Client{Timeout: timeout},
		limiter:      rate.NewLimiter(rate.Limit(perSecond), burst),
		breaker:      breaker,
		probeTimeout: probeTimeout,
		logger:       logger,
	}
}

// BaseURL returns the server base URL the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// BreakerState returns the current circuit breaker state for monitoring.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// Health checks the server health endpoint and returns its status string.
func (c *Client) Health(ctx context.Context) (string, error) {
	var payload struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, "Client.Health", "/api/v1/health", &payload); err != nil {
		return "", err
	}
	return payload.Status, nil
}

// getJSON performs a GET request and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	body, err := c.do(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.NewDomainError(op, domain.ErrBackendStatus, "unreadable response: "+err.Error())
	}
	return nil
}

// postJSON performs a POST request with a JSON payload and decodes the
// response into out. Both payload and out may be nil.
func (c *Client) postJSON(ctx context.Context, op, path string, payload, out any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return domain.WrapOp(op, fmt.Errorf("marshal request: %w", err))
		}
	}

	respBody, err := c.do(ctx, op, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return domain.NewDomainError(op, domain.ErrBackendStatus, "unreadable response: "+err.Error())
	}
	return nil
}

// do executes one request through the limiter and breaker and returns the
// response body. Non-2xx statuses and transport failures come back as
// domain errors carrying op context.
func (c *Client) do(ctx context.Context, op, method, path string, body []byte) ([]byte, error) {
	if c.baseURL == "" {
		return nil, domain.NewDomainError(op, domain.ErrNoBackend, "")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, domain.WrapOp(op, err)
	}

	respBody, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, op, method, path, body)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, domain.NewDomainError(op, domain.ErrBackendUnreachable, "circuit open, cooling down")
		}
		return nil, err
	}
	return respBody, nil
}

// roundTrip performs the raw HTTP exchange.
func (c *Client) roundTrip(ctx context.Context, op, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, domain.WrapOp(op, fmt.Errorf("create request: %w", err))
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	if id := domain.ClientSessionFrom(ctx); id != "" {
		httpReq.Header.Set(headerClientSession, id)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, domain.NewDomainError(op, domain.ErrTimeout, "")
		}
		return nil, domain.NewDomainError(op, domain.ErrBackendUnreachable, err.Error())
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, domain.NewDomainError(op, domain.ErrBackendUnreachable, "read response: "+err.Error())
	}

	if httpResp.StatusCode >= http.StatusBadRequest {
		return nil, mapStatusError(op, httpResp.StatusCode, respBody)
	}
	return respBody, nil
}

// isTimeout reports whether err is a deadline or network timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// mapStatusError maps an HTTP status code + response body to a domain error.
// The sentinel determines retryability and how the UI reports the failure.
func mapStatusError(op string, statusCode int, body []byte) error {
	detail := decodeDetail(body)

	switch {
	case statusCode == http.StatusTooManyRequests: // 429
		return domain.NewDomainError(op, domain.ErrRateLimit, detail)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden: // 401, 403
		return domain.NewDomainError(op, domain.ErrAuthInvalid, detail)
	case statusCode >= 500:
		if detail == "" {
			detail = fmt.Sprintf("status %d", statusCode)
		}
		return domain.NewDomainError(op, domain.ErrBackendStatus, detail)
	default: // remaining 4xx: the server understood and said no
		return domain.NewDomainError(op, domain.ErrSubmissionRejected, detail)
	}
}

// decodeDetail extracts the server's stated reason from an error body.
// Falls back to the raw body, truncated, when it is not the usual JSON shape.
func decodeDetail(body []byte) string {
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Detail != "" {
			return payload.Detail
		}
	}

	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
