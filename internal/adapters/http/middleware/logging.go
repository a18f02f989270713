package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/neuroboss/internal/adapters/http/dto"
	"github.com/jsamuelsen/neuroboss/internal/platform/logging"
)

// quietPrefixes are never access-logged: health checks, metrics scrapes and assets.
var quietPrefixes = []string{"/-/", "/static/"}

// Logging writes one access line per request when it completes, through the
// request logger so request and correlation IDs are attached. 5xx logs at
// ERROR, 4xx at WARN. A fallback generation is flagged with fallback=true.
func Logging(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, prefix := range quietPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}

		start := time.Now()

		c.Next()

		ctx := c.Request.Context()
		reqLogger, ok := logging.Lookup(ctx)
		if !ok {
			reqLogger = logger
		}

		status := c.Writer.Status()
		latency := time.Since(start)

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Int64("latency_ms", latency.Milliseconds()),
			slog.Int("bytes", c.Writer.Size()),
			slog.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Header().Get(dto.HeaderFallback) != "" {
			attrs = append(attrs, slog.Bool("fallback", true))
		}

		reqLogger.LogAttrs(ctx, levelForStatus(status), "request completed", attrs...)
	}
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
