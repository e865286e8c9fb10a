package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig disables spacing and jitter so tests only exercise the retry
// waits, which run on the injected fake clock.
func testConfig() Config {
	return Config{
		MaxAttempts: 6,
		Timeout:     5 * time.Second,
		MinInterval: -1,
		BaseDelay:   2 * time.Second,
		MaxJitter:   0,
	}
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte("<html>list</html>"))
	}))
	defer srv.Close()

	f := New(testConfig(), zerolog.Nop())
	out := f.Fetch(context.Background(), srv.URL)

	require.True(t, out.OK())
	assert.Equal(t, StatusOK, out.Status)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, []byte("<html>list</html>"), out.Payload)
	assert.NoError(t, out.Err)
}

func TestFetchRetriesAfterRateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	fc := clockwork.NewFakeClock()
	f := New(testConfig(), zerolog.Nop(), WithClock(fc))

	outc := make(chan Outcome, 1)
	go func() { outc <- f.Fetch(context.Background(), srv.URL) }()

	// Two rate-limited attempts, each followed by the server's 1s wait.
	for n := 0; n < 2; n++ {
		fc.BlockUntil(1)
		fc.Advance(time.Second)
	}

	out := <-outc
	require.True(t, out.OK())
	assert.Equal(t, 3, out.Attempts)
	assert.EqualValues(t, 3, hits.Load())
}

func TestFetchExponentialBackoffExhaustion(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxAttempts = 3
	fc := clockwork.NewFakeClock()
	f := New(cfg, zerolog.Nop(), WithClock(fc))

	outc := make(chan Outcome, 1)
	go func() { outc <- f.Fetch(context.Background(), srv.URL) }()

	// No Retry-After header: base*2^(attempt-1) gives 2s then 4s.
	fc.BlockUntil(1)
	fc.Advance(2 * time.Second)
	fc.BlockUntil(1)
	fc.Advance(4 * time.Second)

	out := <-outc
	assert.False(t, out.OK())
	assert.Equal(t, StatusExhausted, out.Status)
	assert.Equal(t, 3, out.Attempts)
	assert.EqualValues(t, 3, hits.Load())
}

func TestFetchDoesNotRetryNotFound(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := New(testConfig(), zerolog.Nop())
	out := f.Fetch(context.Background(), srv.URL)

	assert.Equal(t, StatusHTTPError, out.Status)
	assert.Equal(t, 1, out.Attempts)
	assert.EqualValues(t, 1, hits.Load())
}

func TestFetchTimeoutClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Timeout = 50 * time.Millisecond
	cfg.MaxAttempts = 1
	f := New(cfg, zerolog.Nop())

	out := f.Fetch(context.Background(), srv.URL)
	assert.Equal(t, StatusExhausted, out.Status)
	require.Error(t, out.Err)
	assert.True(t, isTimeout(out.Err))
}

func TestFetchCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	fc := clockwork.NewFakeClock()
	f := New(testConfig(), zerolog.Nop(), WithClock(fc))

	ctx, cancel := context.WithCancel(context.Background())
	outc := make(chan Outcome, 1)
	go func() { outc <- f.Fetch(ctx, srv.URL) }()

	fc.BlockUntil(1)
	cancel()

	out := <-outc
	assert.False(t, out.OK())
	assert.Equal(t, StatusRateLimited, out.Status)
	assert.Equal(t, 1, out.Attempts)
}

func TestFetchMinIntervalSpacing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MinInterval = 50 * time.Millisecond
	f := New(cfg, zerolog.Nop())

	start := time.Now()
	require.True(t, f.Fetch(context.Background(), srv.URL).OK())
	require.True(t, f.Fetch(context.Background(), srv.URL).OK())
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		header string
		want   time.Duration
	}{
		{"5", 5 * time.Second},
		{" 2 ", 2 * time.Second},
		{"0", 0},
		{"-1", 0},
		{"", 0},
		{"Wed, 21 Oct 2026 07:28:00 GMT", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseRetryAfter(tt.header), "header %q", tt.header)
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()

	assert.Equal(t, 6, cfg.MaxAttempts)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, time.Second, cfg.MinInterval)
	assert.Equal(t, 2*time.Second, cfg.BaseDelay)
	assert.NotEmpty(t, cfg.UserAgent)
}
