// Package gbif is a client for the GBIF Species API.
//
// The client returns raw JSON payloads so callers can cache them verbatim;
// the Parse* functions turn payloads into typed records.
package gbif

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/seedcatalog/seedcatalog-server/internal/ratelimit"
)

const (
	// DefaultBaseURL is the public GBIF API root.
	DefaultBaseURL = "https://api.gbif.org/v1"

	// SourceName is the attribution label for data from this API.
	SourceName = "GBIF Species API"

	defaultConnectTimeout = 4 * time.Second
	defaultReadTimeout    = 4 * time.Second
	defaultRPS            = 5.0
	defaultBurst          = 5
	defaultUserAgent      = "SeedCatalog/1.0"

	// maxBodyBytes caps how much of a response is read.
	maxBodyBytes = 2 << 20
)

// Limiter keys, one bucket per endpoint.
const (
	endpointMatch      = "species/match"
	endpointDetails    = "species"
	endpointVernacular = "species/vernacularNames"
)

// Observer receives one call per HTTP request made.
type Observer interface {
	ObserveLookup(endpoint, outcome string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveLookup(string, string, time.Duration) {}

// Config configures the client. Zero values fall back to defaults.
type Config struct {
	BaseURL        string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	RPS            float64
	Burst          int
	UserAgent      string
}

// Client is a rate-limited GBIF Species API client. It never retries.
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
	limiter   *ratelimit.KeyedRateLimiter
	observer  Observer
	logger    *slog.Logger
}

// New creates a new GBIF client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.RPS <= 0 {
		cfg.RPS = defaultRPS
	}
	if cfg.Burst < 1 {
		cfg.Burst = defaultBurst
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			// Ceiling for connect, headers and body together.
			Timeout: cfg.ConnectTimeout + cfg.ReadTimeout,
		},
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		limiter:   ratelimit.New(cfg.RPS, cfg.Burst),
		observer:  nopObserver{},
		logger:    logger,
	}
}

// SetObserver installs a request observer, typically metrics.
func (c *Client) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	c.observer = o
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
	c.http.CloseIdleConnections()
}

// SourceURL returns the canonical public URL for a usage key.
// It does not depend on the configured base URL.
func SourceURL(usageKey int64) string {
	return DefaultBaseURL + "/species/" + strconv.FormatInt(usageKey, 10)
}

// MatchByName asks GBIF for the best taxon match for a name.
func (c *Client) MatchByName(ctx context.Context, name string) ([]byte, error) {
	query := url.Values{}
	query.Set("name", name)

	body, err := c.doRequest(ctx, endpointMatch, c.baseURL+"/species/match?"+query.Encode())
	if err != nil {
		return nil, wrapError("match", name, err)
	}
	return body, nil
}

// FetchDetails retrieves the species record for a usage key.
func (c *Client) FetchDetails(ctx context.Context, usageKey int64) ([]byte, error) {
	key := strconv.FormatInt(usageKey, 10)

	body, err := c.doRequest(ctx, endpointDetails, c.baseURL+"/species/"+key)
	if err != nil {
		return nil, wrapError("details", key, err)
	}
	return body, nil
}

// FetchVernacularNames retrieves the common names recorded for a usage key.
func (c *Client) FetchVernacularNames(ctx context.Context, usageKey int64) ([]byte, error) {
	key := strconv.FormatInt(usageKey, 10)

	body, err := c.doRequest(ctx, endpointVernacular, c.baseURL+"/species/"+key+"/vernacularNames")
	if err != nil {
		return nil, wrapError("vernacular", key, err)
	}
	return body, nil
}

// doRequest executes one rate-limited GET and returns the body of a 2xx response.
func (c *Client) doRequest(ctx context.Context, endpoint, rawURL string) (body []byte, err error) {
	start := time.Now()
	defer func() {
		c.observer.ObserveLookup(endpoint, Outcome(err), time.Since(start))
	}()

	if err := c.limiter.Wait(ctx, endpoint); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %w", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("gbif request", "endpoint", endpoint, "url", rawURL)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusBadRequest:
		return nil, ErrBadRequest
	case resp.StatusCode >= 500:
		return nil, ErrServer
	default:
		return nil, fmt.Errorf("%w %d", ErrUnexpectedStatus, resp.StatusCode)
	}
}
