package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josuelopezv/GeminiT-sub000/internal/api/middleware"
	"github.com/josuelopezv/GeminiT-sub000/internal/infrastructure/monitoring"
	"github.com/josuelopezv/GeminiT-sub000/internal/providers/terminal"
	"github.com/josuelopezv/GeminiT-sub000/internal/service"
)

const testShell = "/bin/sh"

type testEnv struct {
	router  *gin.Engine
	manager *terminal.Manager
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if _, err := os.Stat(testShell); err != nil {
		t.Skipf("%s not available: %v", testShell, err)
	}
	gin.SetMode(gin.TestMode)

	metrics := monitoring.NewMetrics()
	manager := terminal.NewManager(terminal.Options{
		DefaultShell: testShell,
		Profiles:     map[string]terminal.Profile{"sh": {Name: "sh", Command: testShell}},
	}).WithMetrics(metrics)
	t.Cleanup(manager.KillAll)

	capturer := terminal.NewCapturer(manager, 5*time.Second, nil).WithMetrics(metrics)
	registry := service.NewRegistry().WithMetrics(metrics)
	require.NoError(t, registry.Register(terminal.NewProvider(manager, capturer)))

	router := gin.New()
	router.Use(middleware.RequestID())
	NewHandlers(manager, capturer, registry, metrics, nil).Register(router)

	return &testEnv{router: router, manager: manager}
}

func (e *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do("GET", "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(0), body["sessions"])
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestSessionLifecycle(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do("POST", "/sessions", map[string]interface{}{"id": "web", "cols": 100, "rows": 30})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "web", created["id"])
	assert.Equal(t, float64(100), created["cols"])

	w = env.do("GET", "/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = env.do("POST", "/sessions/web/input", map[string]string{"data": "echo web-$((20+3))\n"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Eventually(t, func() bool {
		w := env.do("GET", "/sessions/web/history?clean=true", nil)
		return w.Code == http.StatusOK && strings.Contains(w.Body.String(), "web-23")
	}, 5*time.Second, 20*time.Millisecond)

	w = env.do("POST", "/sessions/web/resize", map[string]int{"cols": 120, "rows": 40})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do("GET", "/sessions/web", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(120), decode(t, w)["cols"])

	w = env.do("DELETE", "/sessions/web", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do("GET", "/sessions/web", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateSessionErrors(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do("POST", "/sessions", map[string]string{"id": "taken"})
	require.Equal(t, http.StatusCreated, w.Code)

	tests := []struct {
		name   string
		body   map[string]interface{}
		status int
	}{
		{"invalid id", map[string]interface{}{"id": "bad id"}, http.StatusBadRequest},
		{"duplicate id", map[string]interface{}{"id": "taken"}, http.StatusConflict},
		{"unknown profile", map[string]interface{}{"profile": "fish"}, http.StatusBadRequest},
		{"shell fails to start", map[string]interface{}{"shell": "/nonexistent/shell"}, http.StatusUnprocessableEntity},
		{"invalid size", map[string]interface{}{"cols": 0, "rows": 5}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do("POST", "/sessions", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			body := decode(t, w)
			assert.Contains(t, body, "error")
			assert.Equal(t, false, body["success"])
		})
	}

	assert.Equal(t, 1, env.manager.Count())
}

func TestCreateSessionWithoutBody(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do("POST", "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(decode(t, w)["id"].(string), "sess_"))
}

func TestCapture(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do("POST", "/sessions", map[string]interface{}{"id": "cap", "env": map[string]string{"PS1": ""}})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do("POST", "/sessions/cap/capture", map[string]interface{}{
		"command":      "echo rest-$((1+1))",
		"tool_call_id": "call_rest",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Contains(t, body["output"], "rest-2")
	assert.NotContains(t, body, "error")
}

func TestCaptureErrors(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do("POST", "/sessions/missing/capture", map[string]string{"command": "ls"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, terminal.CaptureErrAttach, decode(t, w)["error"])

	w = env.do("POST", "/sessions/missing/capture", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("POST", "/sessions/missing/capture", map[string]string{"command": "ls", "tool_call_id": "not valid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryGzip(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do("POST", "/sessions", map[string]string{"id": "gz"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = env.do("POST", "/sessions/gz/input", map[string]string{"data": "echo zipped-$((5*5))\n"})
	require.Equal(t, http.StatusOK, w.Code)

	require.Eventually(t, func() bool {
		req := httptest.NewRequest("GET", "/sessions/gz/history", nil)
		req.Header.Set("Accept-Encoding", "gzip, deflate")
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		if w.Code != http.StatusOK || w.Header().Get("Content-Encoding") != "gzip" {
			return false
		}
		zr, err := gzip.NewReader(w.Body)
		if err != nil {
			return false
		}
		data, err := io.ReadAll(zr)
		return err == nil && strings.Contains(string(data), "zipped-25")
	}, 5*time.Second, 20*time.Millisecond)

	w = env.do("GET", "/sessions/nope/history", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestValidationErrors(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"bad session id", "GET", "/sessions/bad%20id", nil, http.StatusBadRequest},
		{"input without data", "POST", "/sessions/x/input", map[string]string{}, http.StatusBadRequest},
		{"resize without rows", "POST", "/sessions/x/resize", map[string]int{"cols": 80}, http.StatusBadRequest},
		{"input to unknown session", "POST", "/sessions/x/input", map[string]string{"data": "ls\n"}, http.StatusNotFound},
		{"resize unknown session", "POST", "/sessions/x/resize", map[string]int{"cols": 80, "rows": 24}, http.StatusNotFound},
		{"kill unknown session", "DELETE", "/sessions/x", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())

			body := decode(t, w)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestServices(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do("GET", "/services", nil)
	require.Equal(t, http.StatusOK, w.Code)
	services := decode(t, w)["services"].([]interface{})
	require.Len(t, services, 1)
	assert.Equal(t, "terminal", services[0].(map[string]interface{})["id"])

	w = env.do("GET", "/services?category=Bad", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("GET", "/services/discover?intent=run+a+shell+command", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["services"], 1)

	w = env.do("GET", "/profiles", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])
}

func TestExecuteService(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do("POST", "/services/execute", map[string]interface{}{
		"tool_id": "terminal.create_session",
		"params":  map[string]interface{}{"session_id": "tool"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["success"])
	assert.Equal(t, 1, env.manager.Count())

	w = env.do("POST", "/services/execute", map[string]interface{}{"tool_id": "bad tool"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("POST", "/services/execute", map[string]interface{}{"tool_id": "missing.tool"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])

	w = env.do("POST", "/services/execute", map[string]interface{}{
		"tool_id": "terminal.get_session",
		"params":  map[string]interface{}{"session_id": "nope"},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsSnapshot(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do("POST", "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do("GET", "/metrics/json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w))
}
