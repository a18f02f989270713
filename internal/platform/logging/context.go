package logging

import (
	"context"
	"log/slog"
)

// Attribute keys the ID middleware attaches to the request logger.
const (
	KeyRequestID     = "request_id"
	KeyCorrelationID = "correlation_id"
)

type ctxKey struct{}

var defaultLogger = slog.Default()

// FromContext returns the request logger, or the process default outside a request.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := Lookup(ctx); ok {
		return logger
	}

	return defaultLogger
}

// Lookup returns the logger stored in ctx and whether one was present.
// Components holding their own logger use it to prefer the request one.
func Lookup(ctx context.Context) (*slog.Logger, bool) {
	if ctx == nil {
		return nil, false
	}

	logger, ok := ctx.Value(ctxKey{}).(*slog.Logger)

	return logger, ok && logger != nil
}

// WithContext stores a logger in the context.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// WithRequestID tags every later log line of the request with its ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withAttr(ctx, KeyRequestID, requestID)
}

// WithCorrelationID tags every later log line of the request with the correlation chain.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return withAttr(ctx, KeyCorrelationID, correlationID)
}

func withAttr(ctx context.Context, key, value string) context.Context {
	return WithContext(ctx, FromContext(ctx).With(slog.String(key, value)))
}

// SetDefault installs logger as both the package and the slog default.
func SetDefault(logger *slog.Logger) {
	defaultLogger = logger
	slog.SetDefault(logger)
}
