package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/neuroboss/internal/adapters/http/dto"
	"github.com/jsamuelsen/neuroboss/internal/platform/logging"
)

// Timeout returns middleware that puts a deadline on the request context.
//
// Handlers run on the request goroutine and must respect ctx.Done(). If the
// deadline has passed when the handler returns and nothing was written, a
// 504 with the TIMEOUT envelope is sent.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			handleTimeout(c, timeout)
		}
	}
}

// handleTimeout logs the timeout and responds with the error envelope.
func handleTimeout(c *gin.Context, timeout time.Duration) {
	traceID := dto.GetTraceID(c)

	logging.FromContext(c.Request.Context()).Warn("request timeout",
		slog.String("path", c.Request.URL.Path),
		slog.String("method", c.Request.Method),
		slog.Duration("timeout", timeout),
		slog.String("trace_id", traceID),
	)

	c.AbortWithStatusJSON(http.StatusGatewayTimeout, dto.NewErrorResponse(
		dto.ErrorCodeTimeout,
		"request timeout exceeded",
	).WithTraceID(traceID))
}
