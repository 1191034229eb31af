package proxy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/keiba-sim/internal/config"
	"github.com/yourusername/keiba-sim/internal/logger"
	"golang.org/x/text/encoding/japanese"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(config.ProxyServerConfig{
		Address:        "127.0.0.1",
		Port:           8080,
		AllowedHosts:   []string{"127.0.0.1", "netkeiba.com"},
		DefaultCharset: "euc-jp",
		TimeoutSeconds: 5,
	}, logger.Discard(), "test")
	require.NoError(t, err)
	return s
}

func fetch(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/fetch?url="+url.QueryEscape(target), nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func eucJP(t *testing.T, s string) string {
	t.Helper()
	out, err := japanese.EUCJP.NewEncoder().String(s)
	require.NoError(t, err)
	return out
}

func TestFetchMissingURL(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/fetch", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "url query parameter is required", body.Error)
}

func TestFetchRejectsNonHTTP(t *testing.T) {
	s := newTestServer(t)
	for _, target := range []string{"ftp://race.netkeiba.com/", "race.netkeiba.com/race", "file:///etc/passwd"} {
		rec := fetch(t, s, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestFetchRejectsHostOutsideAllowList(t *testing.T) {
	s := newTestServer(t)

	rec := fetch(t, s, "https://evil.example/page")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = fetch(t, s, "https://netkeiba.com.evil.example/")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.True(t, s.hostAllowed("race.netkeiba.com"))
	assert.True(t, s.hostAllowed("DB.NETKEIBA.COM"))
}

func TestFetchDecodesDefaultCharset(t *testing.T) {
	var gotUA, gotLang string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(eucJP(t, "<html><body>有馬記念 単勝</body></html>")))
	}))
	defer upstream.Close()

	rec := fetch(t, newTestServer(t), upstream.URL+"/race/shutuba.html")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html><body>有馬記念 単勝</body></html>", rec.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, gotUA, "Mozilla/5.0")
	assert.True(t, strings.HasPrefix(gotLang, "ja"))
}

func TestFetchHonoursHeaderCharset(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sjis, _ := japanese.ShiftJIS.NewEncoder().String("中山競馬場")
		w.Header().Set("Content-Type", "text/html; charset=Shift_JIS")
		_, _ = w.Write([]byte(sjis))
	}))
	defer upstream.Close()

	rec := fetch(t, newTestServer(t), upstream.URL)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "中山競馬場", rec.Body.String())
}

func TestFetchSniffsMetaCharset(t *testing.T) {
	page := `<html><head><meta charset="utf-8"></head><body>東京優駿</body></html>`
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer upstream.Close()

	rec := fetch(t, newTestServer(t), upstream.URL)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, page, rec.Body.String())
}

func TestFetchPassesUpstreamStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer upstream.Close()

	rec := fetch(t, newTestServer(t), upstream.URL+"/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Failed to fetch from target URL: Not Found", rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestFetchTransportFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := upstream.URL
	upstream.Close()

	rec := fetch(t, newTestServer(t), target)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "Failed to fetch from proxy")
}

func TestFailingHostDoesNotTripOtherHosts(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer up.Close()

	s := newTestServer(t)
	s.SetReady(true)
	for i := 0; i < 5; i++ {
		rec := fetch(t, s, down.URL+"/down")
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	}

	rec := fetch(t, s, down.URL+"/down")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "circuit breaker open")

	rec = fetch(t, s, up.URL+"/ok")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>ok</html>", rec.Body.String())

	open, total := s.OpenCircuits()
	assert.Equal(t, []string{strings.TrimPrefix(down.URL, "http://")}, open)
	assert.Equal(t, 2, total)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFetchRejectsOversizedBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 65)))
	}))
	defer upstream.Close()

	s, err := NewServer(config.ProxyServerConfig{
		AllowedHosts:   []string{"127.0.0.1"},
		DefaultCharset: "utf-8",
		TimeoutSeconds: 5,
		MaxBodyBytes:   64,
	}, logger.Discard(), "test")
	require.NoError(t, err)

	rec := fetch(t, s, upstream.URL)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "response body too large")
}

func TestPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/fetch", nil)
	rec := httptest.NewRecorder()
	newTestServer(t).Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "GET")
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s.SetReady(true)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"charset":"ok"`)
}

func TestNewServerRejectsUnknownCharset(t *testing.T) {
	_, err := NewServer(config.ProxyServerConfig{DefaultCharset: "klingon", TimeoutSeconds: 1}, logger.Discard(), "test")
	assert.Error(t, err)
}
