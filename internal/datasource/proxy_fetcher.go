package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/yourusername/keiba-sim/internal/logger"
	"github.com/yourusername/keiba-sim/internal/metrics"
)

const (
	proxyFetcherName = "proxy_fetcher"
	// URLPlaceholder marks where the escaped target goes in a proxy template
	URLPlaceholder = "{url}"
	// DirectTemplate fetches the target without a proxy
	DirectTemplate = URLPlaceholder
	maxBodyBytes   = 10 << 20
)

// ProxyFetcherConfig configures the proxy chain
type ProxyFetcherConfig struct {
	// Proxies are URL templates such as "https://corsproxy.io/?{url}", tried in order.
	// An empty list fetches the target directly.
	Proxies        []string
	AttemptTimeout time.Duration
	UserAgent      string
	HTTP           HTTPClientConfig
}

type proxyEndpoint struct {
	template string
	label    string
	client   *RateLimitedHTTPClient
}

// ProxyFetcher fetches documents through an ordered list of CORS proxies,
// moving to the next proxy only after the current one fails.
type ProxyFetcher struct {
	endpoints      []proxyEndpoint
	attemptTimeout time.Duration
	userAgent      string
	logger         *logger.ProviderLogger
}

// NewProxyFetcher creates a fetcher with one rate-limited client per proxy
func NewProxyFetcher(cfg ProxyFetcherConfig, log *logger.ProviderLogger) (*ProxyFetcher, error) {
	templates := cfg.Proxies
	if len(templates) == 0 {
		templates = []string{DirectTemplate}
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 10 * time.Second
	}

	endpoints := make([]proxyEndpoint, 0, len(templates))
	for _, tpl := range templates {
		if !strings.Contains(tpl, URLPlaceholder) {
			return nil, fmt.Errorf("proxy template %q has no %s placeholder", tpl, URLPlaceholder)
		}
		label := proxyLabel(tpl)
		endpoints = append(endpoints, proxyEndpoint{
			template: tpl,
			label:    label,
			client:   NewRateLimitedHTTPClient(cfg.HTTP, log.WithField("proxy", label)),
		})
	}

	return &ProxyFetcher{
		endpoints:      endpoints,
		attemptTimeout: cfg.AttemptTimeout,
		userAgent:      cfg.UserAgent,
		logger:         log,
	}, nil
}

// Fetch returns the body of target from the first proxy that answers with 2xx.
// Exhausting every proxy yields a *ProviderError matching ErrProxiesExhausted.
func (f *ProxyFetcher) Fetch(ctx context.Context, target string) ([]byte, error) {
	if _, err := url.ParseRequestURI(target); err != nil {
		return nil, NewProviderError(proxyFetcherName, ErrCodeInvalidData, "invalid target url", err)
	}

	var failures []error
	for i, ep := range f.endpoints {
		body, err := f.attempt(ctx, ep, target)
		f.logger.LogProxyAttempt(ep.label, target, i+1, err)
		metrics.RecordProxyAttempt(ep.label, err == nil)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, NewProviderError(proxyFetcherName, ErrCodeNetworkError, "fetch cancelled", ctx.Err())
		}
		failures = append(failures, fmt.Errorf("%s: %w", ep.label, err))
	}

	return nil, NewProviderError(proxyFetcherName, ErrCodeProxiesExhausted,
		fmt.Sprintf("%d proxies failed for %s", len(f.endpoints), target), errors.Join(failures...))
}

func (f *ProxyFetcher) attempt(ctx context.Context, ep proxyEndpoint, target string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.attemptTimeout)
	defer cancel()

	resp, err := ep.client.Get(ctx, expandTemplate(ep.template, target), f.userAgent)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
	}

	return ReadBody(resp.Body, maxBodyBytes)
}

// Close releases idle connections of every proxy client
func (f *ProxyFetcher) Close() error {
	for _, ep := range f.endpoints {
		ep.client.Close()
	}
	return nil
}

func expandTemplate(template, target string) string {
	if template == DirectTemplate {
		return target
	}
	return strings.ReplaceAll(template, URLPlaceholder, url.QueryEscape(target))
}

// proxyLabel reduces a template to its host for logs and metric labels
func proxyLabel(template string) string {
	if template == DirectTemplate {
		return "direct"
	}
	u, err := url.Parse(strings.ReplaceAll(template, URLPlaceholder, ""))
	if err != nil || u.Host == "" {
		return template
	}
	return u.Host
}
