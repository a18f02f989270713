package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/neuroboss/internal/adapters/http/dto"
	"github.com/jsamuelsen/neuroboss/internal/adapters/http/handlers"
	"github.com/jsamuelsen/neuroboss/internal/adapters/http/middleware"
	"github.com/jsamuelsen/neuroboss/internal/platform/config"
	"github.com/jsamuelsen/neuroboss/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default deadline for API requests.
const DefaultRequestTimeout = 75 * time.Second

// PageRegistrar registers the HTML page routes on the engine.
type PageRegistrar interface {
	RegisterRoutes(engine *gin.Engine)
}

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// Logger is the structured logger for request logging.
	Logger *slog.Logger

	// AppConfig contains application configuration.
	AppConfig *config.AppConfig

	// CORS controls cross-origin access to /api.
	CORS config.CORSConfig

	// HealthHandler handles health check endpoints.
	HealthHandler *handlers.HealthHandler

	// NeurobossHandler handles the generation endpoint.
	NeurobossHandler *handlers.NeurobossHandler

	// Page serves the HTML form. Nil disables it.
	Page PageRegistrar

	// Timeout is the deadline applied to /api requests.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery - catch panics first
//  2. Request ID - generate/extract request ID
//  3. Correlation ID - handle distributed tracing correlation
//  4. OpenTelemetry - tracing and metrics
//  5. Logging - request logging (skips health endpoints)
//
// Route groups:
//   - /-/ (internal): health endpoints, no timeout
//   - /api/ (public API): CORS when enabled, then the request timeout
//   - / and /static/: the HTML page
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	serviceName := "neuroboss"
	if cfg.AppConfig != nil && cfg.AppConfig.Name != "" {
		serviceName = cfg.AppConfig.Name
	}

	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.TracingMiddleware(serviceName),
		telemetry.Middleware(),
		middleware.Logging(cfg.Logger),
	)

	engine.NoRoute(func(c *gin.Context) {
		dto.AbortWithErrorCode(c, dto.ErrorCodeNotFound, "route not found")
	})

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.Register(engine)
	}

	api := engine.Group("/api")
	if cfg.CORS.Enabled {
		api.Use(middleware.CORS(cfg.CORS))
		// Preflight requests need a route for the CORS middleware to run on.
		api.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	}

	if cfg.Timeout > 0 {
		api.Use(middleware.Timeout(cfg.Timeout))
	}

	if cfg.NeurobossHandler != nil {
		cfg.NeurobossHandler.RegisterNeurobossRoutes(api)
	}

	if cfg.Page != nil {
		cfg.Page.RegisterRoutes(engine)
	}
}
