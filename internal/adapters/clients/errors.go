// Package clients provides the instrumented HTTP transport for the model API.
package clients

import (
	"context"
	"errors"
	"net"
)

// Transport failures. The acl package turns them into upstream errors; they
// never reach an HTTP caller directly.
var (
	// ErrCircuitOpen means the call was rejected without contacting the model API.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last transport error or 5xx once every
	// configured attempt has failed. With the default single attempt it marks
	// any such failure.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// isRetryableError reports whether another attempt could succeed. Caller
// cancellation and deadlines are final; network timeouts and connection
// failures are not.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError

	return errors.As(err, &opErr)
}
