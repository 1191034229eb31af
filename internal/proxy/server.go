// Package proxy serves GET /api/fetch?url=, a CORS-enabled pass-through
// that returns upstream pages decoded to UTF-8.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/keiba-sim/internal/config"
	"github.com/yourusername/keiba-sim/internal/datasource"
	"github.com/yourusername/keiba-sim/internal/health"
	"github.com/yourusername/keiba-sim/internal/logger"
	"github.com/yourusername/keiba-sim/internal/metrics"
)

const (
	serviceName  = "keiba-proxy"
	maxBodyBytes = 10 << 20
	acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// ErrorResponse is the JSON body of rejected or failed fetches
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the fetch pass-through server
type Server struct {
	cfg        config.ProxyServerConfig
	httpCfg    datasource.HTTPClientConfig
	logger     *logger.ProxyLogger
	health     *health.Handler
	router     chi.Router
	httpServer *http.Server
	allowed    map[string]bool

	// one client per upstream host so a failing site only trips its own breaker
	mu        sync.Mutex
	upstreams map[string]*datasource.RateLimitedHTTPClient
}

// NewServer builds the router and the upstream client
func NewServer(cfg config.ProxyServerConfig, log *logrus.Logger, version string) (*Server, error) {
	if cfg.DefaultCharset == "" {
		cfg.DefaultCharset = DefaultCharset
	}
	if _, err := LookupEncoding(cfg.DefaultCharset); err != nil {
		return nil, err
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 15
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = maxBodyBytes
	}

	httpCfg := datasource.DefaultHTTPClientConfig()
	httpCfg.Timeout = cfg.Timeout()
	httpCfg.MaxRetries = 1
	httpCfg.RateLimit = 5
	httpCfg.Burst = 10
	if cfg.CircuitCooldownSeconds > 0 {
		httpCfg.CircuitCooldown = time.Duration(cfg.CircuitCooldownSeconds) * time.Second
	}

	proxyLog := logger.NewProxyLogger(log)
	s := &Server{
		cfg:       cfg,
		httpCfg:   httpCfg,
		logger:    proxyLog,
		allowed:   make(map[string]bool, len(cfg.AllowedHosts)),
		upstreams: make(map[string]*datasource.RateLimitedHTTPClient),
	}
	for _, h := range cfg.AllowedHosts {
		s.allowed[strings.ToLower(strings.TrimSpace(h))] = true
	}

	s.health = health.NewHandler(health.Config{
		ServiceName: serviceName,
		Version:     version,
		Logger:      log,
		Checkers: map[string]health.Checker{
			"charset": health.CheckerFunc(func(ctx context.Context) error {
				_, err := LookupEncoding(s.cfg.DefaultCharset)
				return err
			}),
			"upstream": health.CheckerFunc(func(ctx context.Context) error {
				open, total := s.OpenCircuits()
				if total > 0 && len(open) == total {
					return fmt.Errorf("%w: %s", datasource.ErrCircuitOpen, strings.Join(open, ", "))
				}
				return nil
			}),
		},
	})

	r := chi.NewRouter()
	r.Use(s.loggingMiddleware)
	s.health.Mount(r)
	r.Handle("/metrics", metrics.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Use(corsMiddleware)
		r.Get("/fetch", s.handleFetch)
		r.Options("/fetch", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})
	s.router = r

	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddress(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until Shutdown is called
func (s *Server) Start() error {
	s.health.SetReady(true)
	s.logger.WithField("address", s.httpServer.Addr).Info("Proxy server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	defer s.closeUpstreams()
	return s.httpServer.Shutdown(ctx)
}

// OpenCircuits lists upstream hosts whose circuit breaker is open, and the
// number of hosts contacted so far
func (s *Server) OpenCircuits() ([]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var open []string
	for host, c := range s.upstreams {
		if c.IsOpen() {
			open = append(open, host)
		}
	}
	sort.Strings(open)
	return open, len(s.upstreams)
}

func (s *Server) upstream(host string) *datasource.RateLimitedHTTPClient {
	host = strings.ToLower(host)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.upstreams[host]
	if !ok {
		c = datasource.NewRateLimitedHTTPClient(s.httpCfg, s.logger.WithField("upstream", host))
		s.upstreams[host] = c
	}
	return c
}

func (s *Server) closeUpstreams() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.upstreams {
		c.Close()
	}
}

// SetReady toggles the readiness endpoint
func (s *Server) SetReady(ready bool) {
	s.health.SetReady(ready)
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		s.logger.LogRejected(target, "missing url")
		writeError(w, http.StatusBadRequest, "url query parameter is required")
		return
	}
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		s.logger.LogRejected(target, "not an http(s) url")
		writeError(w, http.StatusBadRequest, "url must be an absolute http or https URL")
		return
	}
	if !s.hostAllowed(u.Hostname()) {
		s.logger.LogRejected(target, "host not allowed")
		writeError(w, http.StatusForbidden, fmt.Sprintf("host %s is not allowed", u.Hostname()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Timeout())
	defer cancel()

	body, resp, err := s.fetch(ctx, u.Host, target)
	if err != nil {
		s.logger.LogUpstreamFailure(target, err)
		writeError(w, http.StatusBadGateway, "Failed to fetch from proxy: "+err.Error())
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(resp.StatusCode)
		_, _ = fmt.Fprintf(w, "Failed to fetch from target URL: %s", http.StatusText(resp.StatusCode))
		return
	}

	charset := DetectCharset(resp.Header.Get("Content-Type"), body, s.cfg.DefaultCharset)
	decoded, charset, err := ToUTF8(body, charset, s.cfg.DefaultCharset)
	if err != nil {
		s.logger.LogUpstreamFailure(target, err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.logger.LogUpstream(target, resp.StatusCode, charset, len(body))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(decoded)
}

func (s *Server) fetch(ctx context.Context, host, target string) ([]byte, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, nil, err
	}
	ua := s.cfg.UserAgent
	if ua == "" {
		ua = datasource.DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", datasource.DefaultAcceptLanguage)

	resp, err := s.upstream(host).Do(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := datasource.ReadBody(resp.Body, s.cfg.MaxBodyBytes)
	if err != nil {
		return nil, nil, err
	}
	return body, resp, nil
}

// hostAllowed accepts every host when no allow-list is configured,
// otherwise exact matches and their subdomains
func (s *Server) hostAllowed(host string) bool {
	if len(s.allowed) == 0 {
		return true
	}
	host = strings.ToLower(host)
	for {
		if s.allowed[host] {
			return true
		}
		i := strings.IndexByte(host, '.')
		if i < 0 {
			return false
		}
		host = host[i+1:]
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code for logs and metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" || r.URL.Path == "/live" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		metrics.RecordProxyServerRequest(strconv.Itoa(rec.status))
		s.logger.LogRequest(r.Method, r.URL.Path, rec.status, float64(time.Since(start).Milliseconds()))
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}
