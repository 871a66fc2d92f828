package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josuelopezv/GeminiT-sub000/internal/api/middleware"
	"github.com/josuelopezv/GeminiT-sub000/internal/infrastructure/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Terminal.Shell = "/bin/sh"
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	srv, err := NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func get(srv *Server, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	return w
}

func TestServerRoutes(t *testing.T) {
	srv := newTestServer(t, testConfig())

	w := get(srv, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w = get(srv, "/services")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"terminal"`)
	assert.Contains(t, w.Body.String(), `"system"`)

	w = get(srv, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "geminit_http_requests_total")
	assert.Contains(t, w.Body.String(), "go_goroutines")

	w = get(srv, "/sessions/nope/stream")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServerCORSPreflight(t *testing.T) {
	srv := newTestServer(t, testConfig())

	req := httptest.NewRequest("OPTIONS", "/sessions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Less(t, w.Code, 300)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServerLoadsProfiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles:\n  - name: sh\n    command: /bin/sh\n"), 0o600))

	cfg := testConfig()
	cfg.Terminal.ProfilesPath = path
	srv := newTestServer(t, cfg)

	w := get(srv, "/profiles")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestServerRejectsBadProfiles(t *testing.T) {
	cfg := testConfig()
	cfg.Terminal.ProfilesPath = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := NewServer(cfg)
	assert.Error(t, err)
}

func TestServerRejectsBadLogLevel(t *testing.T) {
	cfg := testConfig()
	cfg.Logging.Level = "loud"

	_, err := NewServer(cfg)
	assert.Error(t, err)
}

func TestShutdownKillsSessions(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
	srv, err := NewServer(testConfig())
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/sessions", strings.NewReader(`{"id":"doomed"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Equal(t, 1, srv.manager.Count())

	require.NoError(t, srv.Shutdown(context.Background()))
	assert.Equal(t, 0, srv.manager.Count())
}

func TestAddr(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "9999"

	srv := newTestServer(t, cfg)
	assert.Equal(t, "127.0.0.1:9999", srv.Addr())
}
