package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/keiba-sim/internal/metrics"
	"golang.org/x/time/rate"
)

// Browser-like headers; netkeiba and the public CORS proxies reject bare clients.
const (
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultAcceptLanguage = "ja,en-US;q=0.9,en;q=0.8"
)

// HTTPClientConfig holds configuration for HTTP clients
type HTTPClientConfig struct {
	Timeout           time.Duration
	MaxRetries        int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	RateLimit         float64 // requests per second
	Burst             int
	CircuitBreakerMax int           // max consecutive failures before circuit break
	CircuitCooldown   time.Duration // how long the circuit stays open before a trial request
}

// DefaultHTTPClientConfig returns recommended defaults
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:           30 * time.Second,
		MaxRetries:        2,
		RetryWaitMin:      200 * time.Millisecond,
		RetryWaitMax:      5 * time.Second,
		RateLimit:         1.0,
		Burst:             1,
		CircuitBreakerMax: 5,
		CircuitCooldown:   30 * time.Second,
	}
}

// RateLimitedHTTPClient wraps retryablehttp.Client with rate limiting and circuit breaker
type RateLimitedHTTPClient struct {
	client            *retryablehttp.Client
	limiter           *rate.Limiter
	circuitBreakerMax int
	cooldown          time.Duration
	logger            *logrus.Entry
	now               func() time.Time

	mu                sync.Mutex
	consecutiveErrors int
	isOpen            bool
	openedAt          time.Time
	trialInFlight     bool
	lastError         error
}

// NewRateLimitedHTTPClient creates a new rate-limited HTTP client
func NewRateLimitedHTTPClient(cfg HTTPClientConfig, logger *logrus.Entry) *RateLimitedHTTPClient {
	if logger == nil {
		base := logrus.New()
		base.SetLevel(logrus.PanicLevel)
		logger = logrus.NewEntry(base)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.CircuitBreakerMax <= 0 {
		cfg.CircuitBreakerMax = DefaultHTTPClientConfig().CircuitBreakerMax
	}
	if cfg.CircuitCooldown <= 0 {
		cfg.CircuitCooldown = DefaultHTTPClientConfig().CircuitCooldown
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = customRetryPolicy()
	// Return the last response instead of a "giving up" error so callers see upstream status
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	// Retry chatter only at debug level
	retryClient.Logger = nil
	if logger.Logger.IsLevelEnabled(logrus.DebugLevel) {
		retryClient.Logger = logger
	}

	return &RateLimitedHTTPClient{
		client:            retryClient,
		limiter:           rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		circuitBreakerMax: cfg.CircuitBreakerMax,
		cooldown:          cfg.CircuitCooldown,
		logger:            logger,
		now:               time.Now,
	}
}

// Do executes an HTTP request with rate limiting and circuit breaker.
// Once the cooldown has passed an open circuit lets a single trial request
// through; its outcome closes or re-opens the circuit.
func (c *RateLimitedHTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	trial, err := c.admit()
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		c.abortTrial(trial)
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	retryReq, err := retryablehttp.FromRequest(req.WithContext(ctx))
	if err != nil {
		c.abortTrial(trial)
		return nil, err
	}

	resp, err := c.client.Do(retryReq)
	if err != nil {
		c.recordFailure(err)
		return nil, err
	}

	if resp.StatusCode >= 500 {
		c.recordFailure(fmt.Errorf("upstream status %d", resp.StatusCode))
	} else {
		c.Reset()
	}

	return resp, nil
}

// Get executes a GET request with the browser-like headers
func (c *RateLimitedHTTPClient) Get(ctx context.Context, url, userAgent string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", DefaultAcceptLanguage)
	return c.Do(ctx, req)
}

// IsOpen reports whether the circuit breaker is open and still cooling down
func (c *RateLimitedHTTPClient) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isOpen && c.now().Sub(c.openedAt) < c.cooldown
}

// Reset closes the circuit breaker
func (c *RateLimitedHTTPClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isOpen {
		c.logger.Info("Circuit breaker closed")
	}
	c.consecutiveErrors = 0
	c.isOpen = false
	c.trialInFlight = false
	c.lastError = nil
}

// Close closes any resources held by the client
func (c *RateLimitedHTTPClient) Close() error {
	c.client.HTTPClient.CloseIdleConnections()
	return nil
}

// admit rejects requests while the circuit is open. After the cooldown it
// admits one trial request and reports it as such.
func (c *RateLimitedHTTPClient) admit() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isOpen {
		return false, nil
	}
	if c.trialInFlight || c.now().Sub(c.openedAt) < c.cooldown {
		return false, fmt.Errorf("%w: %v", ErrCircuitOpen, c.lastError)
	}
	c.trialInFlight = true
	return true, nil
}

// abortTrial releases a trial slot that never reached the upstream
func (c *RateLimitedHTTPClient) abortTrial(trial bool) {
	if !trial {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trialInFlight = false
}

func (c *RateLimitedHTTPClient) recordFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutiveErrors++
	c.lastError = err
	if c.isOpen {
		// failed trial
		c.openedAt = c.now()
		c.trialInFlight = false
		c.logger.WithError(err).Warn("Circuit breaker trial request failed; staying open")
		return
	}
	if c.consecutiveErrors >= c.circuitBreakerMax {
		c.isOpen = true
		c.openedAt = c.now()
		metrics.RecordCircuitBreakerTrip()
		c.logger.WithError(err).Warnf("Circuit breaker opened after %d consecutive errors", c.consecutiveErrors)
	}
}

// ReadBody reads at most limit bytes and fails instead of truncating a larger body
func ReadBody(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, limit)
	}
	return body, nil
}

// customRetryPolicy defines which HTTP responses should trigger a retry
func customRetryPolicy() retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			// Retry on network errors
			return true, nil
		}

		switch resp.StatusCode {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true, nil
		}
		return false, nil
	}
}
