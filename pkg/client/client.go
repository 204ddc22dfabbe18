// Package client provides the request gateway to the Scribe backend:
// base URL resolution, cookie credentials, anti-forgery header
// injection, rate limiting, and response caching. Every call resolves
// to an envelope; callers never see a raw transport error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/scribehq/scribe-client/pkg/cache"
	"github.com/scribehq/scribe-client/pkg/envelope"
)

// Prometheus metrics for gateway operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_requests_total",
		Help: "Total gateway requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scribe_request_duration_seconds",
		Help:    "Gateway request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	failuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_failures_total",
		Help: "Total failure envelopes by kind",
	}, []string{"kind"})
)

// Default cookie and header names for the anti-forgery token.
const (
	DefaultCSRFCookie = "csrftoken"
	DefaultCSRFHeader = "X-CSRFToken"
)

// maxBodyBytes caps response bodies read into memory.
const maxBodyBytes = 8 << 20

// Config holds the gateway configuration.
type Config struct {
	// BaseURL is the backend origin, e.g. "https://api.scribe.example".
	BaseURL string

	// UserAgent header sent on every request.
	UserAgent string

	// CSRFCookieName is the client-readable anti-forgery cookie
	// (default "csrftoken").
	CSRFCookieName string

	// CSRFHeaderName is the header the token is echoed in on
	// non-read requests (default "X-CSRFToken").
	CSRFHeaderName string

	// Timeout per HTTP request.
	Timeout time.Duration

	// RateLimit is the client-side request rate (requests per second).
	RateLimit float64

	// RateBurst is the limiter burst size.
	RateBurst int

	// Redis enables the GET response cache when set.
	Redis *redis.Client

	// CacheTTL is the lifetime of cached GET responses.
	CacheTTL time.Duration

	// Retry for idempotent reads that fail at the transport or 5xx level.
	MaxRetries     int
	InitialBackoff time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:        baseURL,
		UserAgent:      userAgent,
		CSRFCookieName: DefaultCSRFCookie,
		CSRFHeaderName: DefaultCSRFHeader,
		Timeout:        30 * time.Second,
		RateLimit:      10,
		RateBurst:      5,
		CacheTTL:       60 * time.Second,
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
	}
}

// Client is the request gateway.
type Client struct {
	httpClient *http.Client
	jar        *cookiejar.Jar
	base       *url.URL
	limiter    *rate.Limiter
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// New creates a new gateway client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("base URL must be absolute (got %q)", cfg.BaseURL)
	}

	if cfg.CSRFCookieName == "" {
		cfg.CSRFCookieName = DefaultCSRFCookie
	}
	if cfg.CSRFHeaderName == "" {
		cfg.CSRFHeaderName = DefaultCSRFHeader
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 10
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 5
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 1 * time.Second
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	logger := log.With().Str("component", "gateway").Logger()

	var cacheManager *cache.Manager
	if cfg.Redis != nil {
		cacheManager = cache.NewManager(cfg.Redis)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Jar:     jar,
		},
		jar:     jar,
		base:    base,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		cache:   cacheManager,
		config:  cfg,
		logger:  logger,
	}, nil
}

// Send issues a request and returns its envelope. Transport failures,
// unresolvable endpoints, and body marshal errors all surface as
// network-kind failures rather than Go errors.
func (c *Client) Send(ctx context.Context, method, endpoint string, body any) envelope.Envelope {
	logger := c.logger.With().
		Str("request_id", uuid.NewString()).
		Str("method", method).
		Str("endpoint", endpoint).
		Logger()

	target, err := c.resolve(endpoint)
	if err != nil {
		logger.Error().Err(err).Msg("Endpoint resolution failed")
		failuresTotal.WithLabelValues(string(envelope.KindNetwork)).Inc()
		return envelope.NetworkFailure(err)
	}

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(target.Path).Observe(time.Since(start).Seconds())
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		logger.Warn().Err(err).Msg("Rate limiter wait aborted")
		failuresTotal.WithLabelValues(string(envelope.KindNetwork)).Inc()
		return envelope.NetworkFailure(err)
	}

	useCache := c.cache != nil && method == http.MethodGet && c.config.CacheTTL > 0
	cacheKey := cache.Key{Endpoint: target.Path, Query: target.Query()}
	if useCache {
		if entry, err := c.cache.Get(ctx, cacheKey); err == nil {
			logger.Debug().Msg("Cache hit")
			requestsTotal.WithLabelValues(target.Path, "cache").Inc()
			return envelope.Parse(entry.StatusCode, entry.Body)
		}
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			logger.Error().Err(err).Msg("Request body marshal failed")
			failuresTotal.WithLabelValues(string(envelope.KindNetwork)).Inc()
			return envelope.NetworkFailure(err)
		}
	}

	status, respBody, err := c.execute(ctx, logger, method, target, payload)
	if err != nil {
		logger.Error().Err(err).Msg("Request failed")
		requestsTotal.WithLabelValues(target.Path, "network_error").Inc()
		failuresTotal.WithLabelValues(string(envelope.KindNetwork)).Inc()
		return envelope.NetworkFailure(err)
	}

	requestsTotal.WithLabelValues(target.Path, strconv.Itoa(status)).Inc()

	env := envelope.Parse(status, respBody)
	if env.Failure != nil {
		failuresTotal.WithLabelValues(string(env.Failure.Kind)).Inc()
		logger.Warn().
			Int("status", status).
			Str("kind", string(env.Failure.Kind)).
			Msg("Backend failure")
		return env
	}

	logger.Debug().
		Int("status", status).
		Dur("duration", time.Since(start)).
		Msg("Request complete")

	if useCache && status == http.StatusOK {
		entry := cache.NewEntry(status, respBody, c.config.CacheTTL)
		if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache response")
		}
	}

	// A successful write makes cached list pages under the same root stale.
	if c.cache != nil && !isReadMethod(method) {
		if err := c.cache.InvalidatePrefix(ctx, rootSegment(target.Path)); err != nil {
			logger.Warn().Err(err).Msg("Cache invalidation failed")
		}
	}

	return env
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, endpoint string) envelope.Envelope {
	return c.Send(ctx, http.MethodGet, endpoint, nil)
}

// Post performs a POST request with a JSON body (nil for no body).
func (c *Client) Post(ctx context.Context, endpoint string, body any) envelope.Envelope {
	return c.Send(ctx, http.MethodPost, endpoint, body)
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, endpoint string, body any) envelope.Envelope {
	return c.Send(ctx, http.MethodPatch, endpoint, body)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, endpoint string) envelope.Envelope {
	return c.Send(ctx, http.MethodDelete, endpoint, nil)
}

// CSRFToken returns the current anti-forgery token from the cookie jar,
// or "" when the server has not issued one yet.
func (c *Client) CSRFToken() string {
	for _, cookie := range c.jar.Cookies(c.base) {
		if cookie.Name == c.config.CSRFCookieName {
			return cookie.Value
		}
	}
	return ""
}

// resolve joins an endpoint to the base URL. Absolute endpoints
// (pagination cursors) pass through untouched.
func (c *Client) resolve(endpoint string) (*url.URL, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	if u.IsAbs() {
		return u, nil
	}
	return c.base.ResolveReference(u), nil
}

// roundTrip performs a single HTTP exchange and drains the body.
func (c *Client) roundTrip(ctx context.Context, method string, target *url.URL, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Non-read methods echo the anti-forgery token when present; when the
	// cookie is absent the header is omitted and the server rejects with a
	// csrf-kind failure, surfaced normally.
	if !isReadMethod(method) {
		if token := c.CSRFToken(); token != "" {
			req.Header.Set(c.config.CSRFHeaderName, token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := readBody(resp)
	if err != nil {
		return 0, nil, fmt.Errorf("read response body: %w", err)
	}

	return resp.StatusCode, respBody, nil
}

// isReadMethod reports whether a method is safe to retry and needs no
// anti-forgery token.
func isReadMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// rootSegment reduces a path to its first segment, the invalidation
// granularity for cached lists ("/posts/42/" -> "/posts/").
func rootSegment(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "/"
	}
	if i := strings.Index(trimmed, "/"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return "/" + trimmed + "/"
}

// SetHTTPClient sets a custom HTTP client (for testing). The cookie jar
// is preserved so credential cookies keep flowing.
func (c *Client) SetHTTPClient(client *http.Client) {
	if client.Jar == nil {
		client.Jar = c.jar
	}
	c.httpClient = client
}

// BaseURL returns the resolved backend origin.
func (c *Client) BaseURL() *url.URL {
	return c.base
}
