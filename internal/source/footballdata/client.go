package footballdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/tcastillov/futbol-data/internal/platform/logging"
	"github.com/tcastillov/futbol-data/internal/platform/resilience"
	"github.com/tcastillov/futbol-data/internal/source"
)

const (
	defaultBaseURL  = "https://api.football-data.org/v4"
	maxResponseSize = 6 << 20
)

var errTransient = crerr.New("football-data transient failure")
var tokenHeaderRegex = regexp.MustCompile(`(?i)(x-auth-token|authorization):\s*\S+`)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func newClient(cfg ClientConfig) *client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		token:          strings.TrimSpace(cfg.Token),
		maxRetries:     cfg.MaxRetries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		circuitEnabled: cfg.CircuitBreaker.Enabled,
	}
}

// getJSON performs one authenticated GET, deduplicating identical in-flight
// requests and guarding the provider with the circuit breaker.
func (c *client) getJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "football-data circuit breaker rejected request", "state", string(c.breaker.State()))
			return source.NewError(Name, source.ErrTimeout, err)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.execute(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return source.Errorf(Name, source.ErrParse, "unexpected payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return source.NewError(Name, source.ErrParse, crerr.Wrap(err, "decode provider payload"))
	}

	return nil
}

func (c *client) execute(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, source.NewError(Name, source.ErrParse, crerr.Wrap(err, "build request"))
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Auth-Token", c.token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, source.NewError(Name, source.ErrTimeout, ctx.Err())
			}
			lastErr = crerr.Wrapf(errTransient, "send request: %s", redactHeaders(err.Error()))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
			_ = resp.Body.Close()

			switch {
			case readErr != nil:
				lastErr = crerr.Wrapf(errTransient, "read response body: %v", readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
				return nil, source.Errorf(Name, source.ErrAuth, "provider status=%d", resp.StatusCode)
			case resp.StatusCode == http.StatusNotFound:
				return nil, source.Errorf(Name, source.ErrNotFound, "provider status=404")
			case resp.StatusCode == http.StatusTooManyRequests:
				// Provider-declared limit: honor the advertised wait rather
				// than hammering through retries.
				wait := retryAfter(resp.Header)
				if wait <= 0 || attempt == c.maxRetries {
					return nil, source.Errorf(Name, source.ErrRateLimited, "provider status=429")
				}
				if err := sleepCtx(ctx, wait); err != nil {
					return nil, source.NewError(Name, source.ErrTimeout, err)
				}
				continue
			case resp.StatusCode >= 500:
				lastErr = crerr.Wrapf(errTransient, "provider status=%d", resp.StatusCode)
			default:
				return nil, source.Errorf(Name, source.ErrParse, "provider status=%d body=%s", resp.StatusCode, abbreviate(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		if err := sleepCtx(ctx, time.Duration(attempt+1)*time.Second); err != nil {
			return nil, source.NewError(Name, source.ErrTimeout, err)
		}
	}

	if lastErr == nil {
		lastErr = crerr.New("provider request failed")
	}
	c.logger.WarnContext(ctx, "football-data request failed", "url", fullURL, "error", lastErr)
	return nil, source.NewError(Name, source.ErrTimeout, lastErr)
}

func retryAfter(h http.Header) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(h.Get("Retry-After")))
	if err != nil || seconds <= 0 || seconds > 30 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func redactHeaders(msg string) string {
	return tokenHeaderRegex.ReplaceAllString(msg, "$1: ***")
}

func abbreviate(raw []byte) string {
	const limit = 200
	if len(raw) <= limit {
		return string(raw)
	}
	return fmt.Sprintf("%s... (%d bytes)", raw[:limit], len(raw))
}
