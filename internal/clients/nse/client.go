// Package nse provides a client for the JSON API behind the NSE India website
package nse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/nsechat/internal/cache"
	"github.com/bobmcallan/nsechat/internal/common"
	"github.com/bobmcallan/nsechat/internal/interfaces"
)

const (
	DefaultBaseURL   = "https://www.nseindia.com"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 3 // requests per second
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/80.0.3987.132 Safari/537.36"
)

// Client implements interfaces.NSEClient
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	cache      interfaces.ResponseCache
	validate   *validator.Validate

	// session cookies are issued by the HTML site and required by the API
	sessionMu sync.Mutex
	warmed    bool
}

var _ interfaces.NSEClient = (*Client)(nil)

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithUserAgent overrides the browser user agent sent with every request
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithCache stores successful response bodies in cache
func WithCache(rc interfaces.ResponseCache) ClientOption {
	return func(c *Client) {
		if rc != nil {
			c.cache = rc
		}
	}
}

// NewClient creates a new NSE client
func NewClient(opts ...ClientOption) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Jar:     jar,
		},
		limiter:  rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:   common.NewSilentLogger(),
		cache:    cache.NoopCache{},
		validate: validator.New(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewClientFromConfig creates a client from the [clients.nse] config section
func NewClientFromConfig(config common.NSEConfig, logger *common.Logger, rc interfaces.ResponseCache) *Client {
	opts := []ClientOption{
		WithLogger(logger),
		WithTimeout(config.GetTimeout()),
		WithRateLimit(config.RateLimit),
		WithUserAgent(config.UserAgent),
		WithCache(rc),
	}
	if config.BaseURL != "" {
		opts = append(opts, WithBaseURL(config.BaseURL))
	}
	return NewClient(opts...)
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("NSE API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Unwrap lets callers match every API failure against common.ErrUpstreamUnavailable
func (e *APIError) Unwrap() error {
	return common.ErrUpstreamUnavailable
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("Accept-Language", "en-GB,en-US;q=0.9,en;q=0.8")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Connection", "keep-alive")
}

// warmUp loads the home page once so the cookie jar holds a session.
func (c *Client) warmUp(ctx context.Context, force bool) error {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	if c.warmed && !force {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: session warm-up: %v", common.ErrUpstreamUnavailable, err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	c.logger.Debug().Int("status", resp.StatusCode).Msg("NSE session warmed")
	c.warmed = true
	return nil
}

// get performs a rate-limited GET request and decodes the JSON body into result.
// Bodies are cached for ttl when a cache is configured.
func (c *Client) get(ctx context.Context, path string, params url.Values, ttl time.Duration, result interface{}) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	cacheKey := path + "?" + params.Encode()

	if body, ok := c.cache.Get(ctx, cacheKey); ok {
		if err := json.Unmarshal(body, result); err == nil {
			c.logger.Debug().Str("path", path).Msg("NSE cache hit")
			return nil
		}
	}

	if err := c.warmUp(ctx, false); err != nil {
		return err
	}

	body, err := c.fetch(ctx, path, reqURL)
	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
		c.logger.Debug().Str("path", path).Int("status", apiErr.StatusCode).Msg("NSE session rejected, re-warming")
		if werr := c.warmUp(ctx, true); werr != nil {
			return werr
		}
		body, err = c.fetch(ctx, path, reqURL)
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("%w: failed to decode %s response: %v", common.ErrUpstreamUnavailable, path, err)
	}
	if err := c.validate.Struct(result); err != nil {
		var invalid *validator.InvalidValidationError
		if !errors.As(err, &invalid) {
			return fmt.Errorf("%w: unexpected %s response: %v", common.ErrUpstreamUnavailable, path, err)
		}
	}

	c.cache.Set(ctx, cacheKey, body, ttl)
	return nil
}

func (c *Client) fetch(ctx context.Context, path, reqURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	c.logger.Debug().Str("url", c.baseURL+path).Msg("NSE API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", common.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", common.ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    msg,
			Endpoint:   path,
		}
	}

	return body, nil
}
