package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/neuroboss/internal/adapters/http/dto"
	"github.com/jsamuelsen/neuroboss/internal/platform/logging"
)

// Recovery turns a panic into the generic 500 envelope and logs it with its
// stack. It must be the first middleware so it covers the whole chain.
// A response that already started is only aborted.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			reqLogger, ok := logging.Lookup(c.Request.Context())
			if !ok {
				reqLogger = logger
			}

			traceID := dto.GetTraceID(c)

			reqLogger.Error("panic recovered",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.String("trace_id", traceID),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError,
				dto.NewErrorResponse(dto.ErrorCodeInternal, "an internal error occurred").WithTraceID(traceID))
		}()

		c.Next()
	}
}
