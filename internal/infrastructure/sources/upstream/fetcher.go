// Package upstream is the shared HTTP plumbing for the source adapters:
// circuit breaking, retry with backoff, singleflight collapsing and secret
// redaction. Adapters feed it a request builder and get raw bytes back.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/matchcast/matchcast/internal/domain/broadcast"
	"github.com/matchcast/matchcast/internal/platform/logging"
	"github.com/matchcast/matchcast/internal/platform/resilience"
)

const (
	maxResponseBytes = 6 << 20
	defaultTimeout   = 20 * time.Second
)

var credentialParamRegex = regexp.MustCompile(`(?i)(api_?key|api_?token|token|key)=[^&\s"']+`)

type Config struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	MaxRetries int
	Logger     *logging.Logger
	Breaker    resilience.BreakerConfig
	// Secrets are literal credential values to scrub from logged errors.
	Secrets []string
}

// Fetcher executes upstream HTTP requests under one shared breaker. One
// Fetcher per upstream host; sharing one across hosts couples their failure
// domains.
type Fetcher struct {
	httpClient     *http.Client
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	secrets        []string
	flight         resilience.SingleFlight
}

func NewFetcher(cfg Config) *Fetcher {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	return &Fetcher{
		httpClient:     httpClient,
		maxRetries:     max(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(cfg.Breaker),
		circuitEnabled: cfg.Breaker.Enabled,
		secrets:        cfg.Secrets,
	}
}

// Do runs the request produced by build, retrying transient failures with
// linear backoff. Concurrent calls sharing a key ride on one upstream
// request. build is called once per attempt so request bodies are rebuilt
// fresh.
func (f *Fetcher) Do(ctx context.Context, key string, build func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	if f.circuitEnabled {
		if err := f.breaker.Allow(); err != nil {
			f.logger.WarnContext(ctx, "circuit breaker rejected upstream request", "state", f.breaker.State())
			return nil, fmt.Errorf("%w: circuit open", broadcast.ErrUpstreamUnavailable)
		}
	}

	out, err, _ := f.flight.Do(key, func() (any, error) {
		raw, reqErr := f.execute(ctx, build)
		if f.circuitEnabled {
			if reqErr != nil && isCircuitFailure(reqErr) {
				f.breaker.RecordFailure()
			} else {
				f.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}
	return raw, nil
}

func (f *Fetcher) execute(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		req, err := build(ctx)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := f.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", broadcast.ErrTimeout, ctx.Err())
			}
			lastErr = fmt.Errorf("%w: send request: %s", broadcast.ErrUpstreamUnavailable, f.redact(err.Error()))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", broadcast.ErrUpstreamUnavailable, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusTooManyRequests:
				// Retrying a throttling upstream only digs the hole deeper.
				return nil, fmt.Errorf("%w: status=%d body=%s", broadcast.ErrUpstreamRateLimited, resp.StatusCode, abbreviateBody(raw))
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: status=%d body=%s", broadcast.ErrUpstreamUnavailable, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("upstream status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == f.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %v", broadcast.ErrTimeout, ctx.Err())
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("upstream request failed")
	}
	f.logger.WarnContext(ctx, "upstream request failed", "error", lastErr)
	return nil, lastErr
}

func (f *Fetcher) redact(value string) string {
	value = strings.TrimSpace(value)
	for _, secret := range f.secrets {
		if secret != "" {
			value = strings.ReplaceAll(value, secret, "REDACTED")
		}
	}
	return credentialParamRegex.ReplaceAllString(value, "$1=REDACTED")
}

func isCircuitFailure(err error) bool {
	return errors.Is(err, broadcast.ErrUpstreamUnavailable) || errors.Is(err, broadcast.ErrTimeout)
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return code >= 500
}

func abbreviateBody(raw []byte) string {
	body := strings.TrimSpace(string(raw))
	if len(body) > 256 {
		body = body[:256] + "..."
	}
	return body
}
