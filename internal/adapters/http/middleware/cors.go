package middleware

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/neuroboss/internal/adapters/http/dto"
	"github.com/jsamuelsen/neuroboss/internal/platform/config"
	"github.com/jsamuelsen/neuroboss/internal/platform/telemetry"
)

const corsMaxAge = 12 * time.Hour

// CORS returns middleware that answers cross-origin requests for the API.
// A "*" entry in AllowedOrigins allows every origin.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:  []string{"POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", HeaderRequestID, HeaderCorrelationID},
		ExposeHeaders: []string{HeaderRequestID, HeaderCorrelationID, telemetry.HeaderTraceID, dto.HeaderFallback},
		MaxAge:        corsMaxAge,
	}

	if slices.Contains(cfg.AllowedOrigins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
	}

	return cors.New(c)
}
