// Package handlers provides HTTP request handlers for the service.
package handlers

import (
	"math"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsamuelsen/neuroboss/internal/ports"
)

// BuildInfo is served on /-/build. Version, Commit and BuildTime come from
// ldflags; Model is the configured generation model.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	Model     string `json:"model,omitempty"`
}

// NewBuildInfo fills in the Go version.
func NewBuildInfo(version, commit, buildTime, model string) BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
		Model:     model,
	}
}

// HealthHandler serves the operational endpoints under /-/.
type HealthHandler struct {
	registry  ports.HealthRegistry
	buildInfo BuildInfo
	started   time.Time
	now       func() time.Time
}

// NewHealthHandler creates a health handler; uptime counts from this call.
func NewHealthHandler(registry ports.HealthRegistry, buildInfo BuildInfo) *HealthHandler {
	return &HealthHandler{
		registry:  registry,
		buildInfo: buildInfo,
		started:   time.Now(),
		now:       time.Now,
	}
}

type livenessResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
}

// Liveness always answers 200 while the process runs. It never checks the
// model API: an unreachable upstream must not restart the container.
func (h *HealthHandler) Liveness(c *gin.Context) {
	uptime := h.now().Sub(h.started).Seconds()

	c.JSON(http.StatusOK, livenessResponse{
		Status:        "ok",
		UptimeSeconds: int64(math.Floor(uptime)),
	})
}

type readinessResponse struct {
	Status string                        `json:"status"`
	Checks map[string]*ports.CheckResult `json:"checks,omitempty"`
}

// Readiness answers 503 while the model client cannot generate (no API key or
// an open circuit). Callers would only get the fallback result until then.
func (h *HealthHandler) Readiness(c *gin.Context) {
	result := h.registry.CheckAll(c.Request.Context())

	status := http.StatusOK
	if result.Status == ports.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(status, readinessResponse{
		Status: string(result.Status),
		Checks: result.Checks,
	})
}

// BuildInfoHandler serves /-/build.
func (h *HealthHandler) BuildInfoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.buildInfo)
}

// Register mounts /-/live, /-/ready, /-/build and the Prometheus /-/metrics.
func (h *HealthHandler) Register(engine *gin.Engine) {
	rg := engine.Group("/-")
	rg.GET("/live", h.Liveness)
	rg.GET("/ready", h.Readiness)
	rg.GET("/build", h.BuildInfoHandler)
	rg.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
