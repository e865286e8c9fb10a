// Package plexapi is a minimal Plex Media Server HTTP client covering the
// catalog operations this tool needs: section listing, section enumeration,
// title search, and playlist creation. Authentication is token-based; the
// PIN/OAuth login flow is out of scope and the token comes from config.
package plexapi

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	productName    = "plexlist"
	productVersion = "0.1"

	rateLimitRequests = 5
	rateLimitDuration = time.Second

	defaultTimeout = 30 * time.Second
)

// ErrPartitionNotFound is returned when a library section name matches no
// section on the server.
var ErrPartitionNotFound = errors.New("library section not found")

// Client talks to one Plex server. Safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	clientID   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger

	mu        sync.Mutex
	sections  map[string]Section
	machineID string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient substitutes the HTTP backend, primarily for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithClientIdentifier pins the X-Plex-Client-Identifier instead of
// generating a fresh one.
func WithClientIdentifier(id string) Option {
	return func(c *Client) {
		if id != "" {
			c.clientID = id
		}
	}
}

// NewClient creates a client for the Plex server at baseURL.
func NewClient(baseURL, token string, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      strings.TrimSpace(token),
		clientID:   uuid.NewString(),
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(rateLimitDuration/time.Duration(rateLimitRequests)), rateLimitRequests),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// doXML performs a request and decodes the MediaContainer response into out
// when out is non-nil.
func (c *Client) doXML(ctx context.Context, method, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("X-Plex-Client-Identifier", c.clientID)
	req.Header.Set("X-Plex-Product", productName)
	req.Header.Set("X-Plex-Version", productVersion)
	req.Header.Set("Accept", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("plex request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("plex %s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := xml.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode plex response: %w", err)
	}
	return nil
}
