package acl

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/jsamuelsen/neuroboss/internal/adapters/clients"
)

// UpstreamError describes a failed call to the model service.
type UpstreamError struct {
	Service    string
	Operation  string
	StatusCode int // zero when no response was received
	Reason     string
	Cause      error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("%s %s failed", e.Service, e.Operation)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" with status %d", e.StatusCode)
	}

	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	return msg
}

// Unwrap returns the underlying cause.
func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// IsUpstream reports whether err came from the model service call.
func IsUpstream(err error) bool {
	var upstream *UpstreamError
	return errors.As(err, &upstream)
}

// MapModelError translates SDK and transport failures into an UpstreamError.
// Returns nil for a nil error.
func MapModelError(err error, serviceName, operation string) error {
	if err == nil {
		return nil
	}

	upstream := &UpstreamError{
		Service:   serviceName,
		Operation: operation,
		Cause:     err,
	}

	var apiErr *openai.Error
	switch {
	case errors.As(err, &apiErr):
		upstream.StatusCode = apiErr.StatusCode
		upstream.Reason = apiErr.Message
		if upstream.Reason == "" {
			upstream.Reason = apiErr.Code
		}

	case errors.Is(err, clients.ErrCircuitOpen):
		upstream.Reason = "circuit breaker open"

	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		upstream.Reason = "max retries exceeded"

	case errors.Is(err, context.DeadlineExceeded):
		upstream.Reason = "deadline exceeded"

	case errors.Is(err, context.Canceled):
		upstream.Reason = "canceled"

	default:
		upstream.Reason = err.Error()
	}

	return upstream
}
