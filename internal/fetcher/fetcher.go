// Package fetcher performs polite HTTP GETs against third-party sites:
// minimum inter-request spacing with jitter, exponential backoff with
// Retry-After support, and a bounded number of attempts per URL.
package fetcher

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Status classifies the terminal state of one fetch call.
type Status string

const (
	StatusOK          Status = "ok"
	StatusHTTPError   Status = "http_error"
	StatusTimeout     Status = "timeout"
	StatusConnError   Status = "conn_error"
	StatusRateLimited Status = "rate_limited"
	StatusExhausted   Status = "exhausted"
)

// Outcome is the result of one fetch call. Callers treat every non-OK
// status identically as "no data for this URL".
type Outcome struct {
	URL      string
	Status   Status
	Payload  []byte
	Attempts int
	Err      error
}

// OK reports whether the fetch produced a payload.
func (o Outcome) OK() bool { return o.Status == StatusOK }

// Config holds the retry and pacing policy. Zero values are replaced with
// defaults by New.
type Config struct {
	// MaxAttempts bounds retries per URL. Default 6.
	MaxAttempts int
	// Timeout applies to each individual attempt. Default 15s.
	Timeout time.Duration
	// MinInterval is the minimum spacing between any two requests issued
	// by this fetcher, across all goroutines sharing it. Default 1s;
	// negative disables spacing.
	MinInterval time.Duration
	// BaseDelay seeds the exponential backoff (base * 2^(attempt-1)).
	// Default 2s.
	BaseDelay time.Duration
	// MaxJitter is the upper bound of the random pause added to every
	// spacing and backoff wait. Default 500ms.
	MaxJitter time.Duration
	// UserAgent overrides the default browser-like agent string.
	UserAgent string
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func (c *Config) applyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 6
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.MinInterval < 0 {
		c.MinInterval = 0
	} else if c.MinInterval == 0 {
		c.MinInterval = time.Second
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 2 * time.Second
	}
	if c.MaxJitter < 0 {
		c.MaxJitter = 0
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
}

// Fetcher issues spaced, retried GETs over one reused HTTP client. Safe for
// concurrent use; the spacing limiter is shared by all callers.
type Fetcher struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	clock   clockwork.Clock
	logger  zerolog.Logger
}

// Option customises a Fetcher.
type Option func(*Fetcher)

// WithClock substitutes the wall clock, primarily for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(f *Fetcher) {
		if clock != nil {
			f.clock = clock
		}
	}
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// New returns a Fetcher with cfg's policy, filling defaults for zero fields.
func New(cfg Config, logger zerolog.Logger, opts ...Option) *Fetcher {
	cfg.applyDefaults()

	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}

	f := &Fetcher{
		cfg:     cfg,
		client:  &http.Client{},
		limiter: rate.NewLimiter(limit, 1),
		clock:   clockwork.NewRealClock(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// MaxJitter config of zero disables jitter entirely (used by tests).
func (f *Fetcher) jitter() time.Duration {
	if f.cfg.MaxJitter <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(f.cfg.MaxJitter)))
}

// Fetch GETs url, retrying transient failures per the configured policy.
// It blocks the calling goroutine for spacing and backoff waits; cancelling
// ctx stops the call promptly with the last observed failure class.
func (f *Fetcher) Fetch(ctx context.Context, url string) Outcome {
	out := Outcome{URL: url, Status: StatusConnError}

	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		// Shared spacing gate, then a small random stagger. The stagger
		// applies before every attempt, whether or not the limiter blocked.
		if err := f.limiter.Wait(ctx); err != nil {
			out.Err = err
			return out
		}
		if err := f.sleep(ctx, f.jitter()); err != nil {
			out.Err = err
			return out
		}

		out.Attempts = attempt
		status, retryAfter, payload, err := f.attempt(ctx, url)
		out.Status = status
		out.Err = err

		switch status {
		case StatusOK:
			out.Payload = payload
			return out
		case StatusHTTPError:
			// Permanent: 404 and unlisted statuses are not retried.
			return out
		}

		if ctx.Err() != nil {
			return out
		}
		if attempt == f.cfg.MaxAttempts {
			break
		}

		wait := f.backoff(attempt, retryAfter)
		f.logger.Debug().
			Str("url", url).
			Int("attempt", attempt).
			Str("status", string(status)).
			Dur("wait", wait).
			Msg("retrying fetch")
		if err := f.sleep(ctx, wait+f.jitter()); err != nil {
			return out
		}
	}

	out.Status = StatusExhausted
	return out
}

// attempt runs a single GET and classifies the result. retryAfter is
// non-zero only for a 429 carrying a numeric Retry-After header.
func (f *Fetcher) attempt(ctx context.Context, url string) (Status, time.Duration, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return StatusHTTPError, 0, nil, err
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Connection", "keep-alive")

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return StatusTimeout, 0, nil, err
		}
		return StatusConnError, 0, nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return StatusConnError, 0, nil, readErr
		}
		return StatusOK, 0, body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return StatusRateLimited, parseRetryAfter(resp.Header.Get("Retry-After")), nil, nil
	case resp.StatusCode == http.StatusInternalServerError,
		resp.StatusCode == http.StatusBadGateway,
		resp.StatusCode == http.StatusServiceUnavailable,
		resp.StatusCode == http.StatusGatewayTimeout:
		// Transient server errors share the 429 backoff policy.
		return StatusRateLimited, 0, nil, nil
	default:
		// 404 and anything unlisted is permanent.
		return StatusHTTPError, 0, nil, nil
	}
}

// backoff returns the wait before the next attempt: the server's Retry-After
// when present, otherwise base * 2^(attempt-1).
func (f *Fetcher) backoff(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return retryAfter
	}
	return f.cfg.BaseDelay * (1 << (attempt - 1))
}

// sleep blocks for d on the fetcher's clock, returning early when ctx is
// cancelled.
func (f *Fetcher) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := f.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}

func parseRetryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
