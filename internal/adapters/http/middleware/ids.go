package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/neuroboss/internal/platform/logging"
)

const (
	// HeaderRequestID identifies one HTTP request.
	HeaderRequestID = "X-Request-ID"

	// HeaderCorrelationID ties a page submit to the endpoint call and model
	// request it causes.
	HeaderCorrelationID = "X-Correlation-ID"

	// maxIDLength bounds caller-supplied IDs that are echoed and logged.
	maxIDLength = 128
)

type idKey int

const (
	requestIDKey idKey = iota
	correlationIDKey
)

// RequestID reuses a well-formed X-Request-ID or generates a UUID v4. The ID
// is echoed in the response, stored in the request context and added to the
// context logger.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := incomingID(c, HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}

		ctx := ContextWithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(logging.WithRequestID(ctx, id))
		c.Header(HeaderRequestID, id)

		c.Next()
	}
}

// CorrelationID reuses a well-formed X-Correlation-ID. Without one the
// request ID starts the chain, so it must run after RequestID.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		id := incomingID(c, HeaderCorrelationID)
		if id == "" {
			id = RequestIDFromContext(ctx)
		}
		if id == "" {
			id = uuid.NewString()
		}

		ctx = ContextWithCorrelationID(ctx, id)
		c.Request = c.Request.WithContext(logging.WithCorrelationID(ctx, id))
		c.Header(HeaderCorrelationID, id)

		c.Next()
	}
}

// incomingID returns the header value, or "" when it is too long or holds
// anything but printable ASCII.
func incomingID(c *gin.Context, header string) string {
	id := c.GetHeader(header)
	if len(id) > maxIDLength {
		return ""
	}

	for i := range len(id) {
		if id[i] < '!' || id[i] > '~' {
			return ""
		}
	}

	return id
}

// RequestIDFromContext returns the request ID, or "" if none is set.
// Outbound clients forward it to the next hop.
func RequestIDFromContext(ctx context.Context) string {
	return idFromContext(ctx, requestIDKey)
}

// CorrelationIDFromContext returns the correlation ID, or "" if none is set.
func CorrelationIDFromContext(ctx context.Context) string {
	return idFromContext(ctx, correlationIDKey)
}

// ContextWithRequestID stores a request ID in ctx.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithCorrelationID stores a correlation ID in ctx.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

func idFromContext(ctx context.Context, key idKey) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(key).(string)

	return id
}
