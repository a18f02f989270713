package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/neuroboss/internal/mocks"
	"github.com/jsamuelsen/neuroboss/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveHealth(t *testing.T, h *HealthHandler, path string) *httptest.ResponseRecorder {
	t.Helper()

	router := gin.New()
	h.Register(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))

	return w
}

func TestNewBuildInfo(t *testing.T) {
	bi := NewBuildInfo("1.4.0", "abc123", "2026-01-15T10:00:00Z", "gpt-5-mini")

	assert.Equal(t, BuildInfo{
		Version:   "1.4.0",
		Commit:    "abc123",
		BuildTime: "2026-01-15T10:00:00Z",
		GoVersion: runtime.Version(),
		Model:     "gpt-5-mini",
	}, bi)
}

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler(mocks.NewMockHealthRegistry(t), BuildInfo{})

	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	h.started = start
	h.now = func() time.Time { return start.Add(90*time.Second + 700*time.Millisecond) }

	w := serveHealth(t, h, "/-/live")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","uptimeSeconds":90}`, w.Body.String())
}

func TestHealthHandler_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		result     *ports.HealthResult
		wantStatus int
		wantBody   string
	}{
		{
			name: "model client ready",
			result: &ports.HealthResult{
				Status: ports.HealthStatusHealthy,
				Checks: map[string]*ports.CheckResult{"openai": {Status: ports.HealthStatusHealthy}},
			},
			wantStatus: http.StatusOK,
			wantBody:   `"status":"healthy"`,
		},
		{
			name: "api key missing",
			result: &ports.HealthResult{
				Status: ports.HealthStatusUnhealthy,
				Checks: map[string]*ports.CheckResult{
					"openai": {Status: ports.HealthStatusUnhealthy, Message: "openai unavailable: API key not configured"},
				},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "API key not configured",
		},
		{
			name: "circuit open",
			result: &ports.HealthResult{
				Status: ports.HealthStatusUnhealthy,
				Checks: map[string]*ports.CheckResult{
					"openai": {Status: ports.HealthStatusUnhealthy, Message: "circuit breaker open, next attempt in 12s"},
				},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "next attempt in 12s",
		},
		{
			name:       "nothing registered",
			result:     &ports.HealthResult{Status: ports.HealthStatusHealthy, Checks: map[string]*ports.CheckResult{}},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"healthy"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := mocks.NewMockHealthRegistry(t)
			registry.EXPECT().CheckAll(mock.Anything).Return(tt.result)

			w := serveHealth(t, NewHealthHandler(registry, BuildInfo{}), "/-/ready")

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
		})
	}
}

func TestHealthHandler_BuildInfo(t *testing.T) {
	h := NewHealthHandler(mocks.NewMockHealthRegistry(t), BuildInfo{
		Version:   "1.2.3",
		Commit:    "def456",
		BuildTime: "2026-02-01T12:00:00Z",
		GoVersion: "go1.25.7",
		Model:     "gpt-5-mini",
	})

	w := serveHealth(t, h, "/-/build")

	require.Equal(t, http.StatusOK, w.Code)

	var resp BuildInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, "def456", resp.Commit)
	assert.Equal(t, "go1.25.7", resp.GoVersion)
	assert.Equal(t, "gpt-5-mini", resp.Model)
}

func TestHealthHandler_BuildInfoOmitsEmptyModel(t *testing.T) {
	w := serveHealth(t, NewHealthHandler(mocks.NewMockHealthRegistry(t), BuildInfo{Version: "dev"}), "/-/build")

	assert.NotContains(t, w.Body.String(), `"model"`)
}

func TestHealthHandler_Metrics(t *testing.T) {
	w := serveHealth(t, NewHealthHandler(mocks.NewMockHealthRegistry(t), BuildInfo{}), "/-/metrics")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}
