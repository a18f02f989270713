// Package acl is the Anti-Corruption Layer between the application and the
// hosted model service.
//
// The OpenAI SDK types never leave this package. Outbound, a [ports.Prompt]
// is translated into a Responses API request whose text format is a strict
// JSON schema. Inbound, the response is reduced to its output text and token
// usage; the text itself is left unparsed because deciding what to do with
// non-conforming output is an application concern.
//
// # Transport
//
// The SDK sends requests through [clients.Client], so every model call is
// traced, counted, carries the request and correlation IDs, and is guarded by
// the circuit breaker. SDK-level retries are disabled; retry policy lives in
// the client configuration.
//
// # Error Handling Strategy
//
// Failures are translated by [MapModelError] into an [UpstreamError]. It is
// deliberately not a domain error: the HTTP layer renders it as a generic
// 500 and the details go to the log.
//
//   - *openai.Error (4xx, or 5xx after retries) → UpstreamError with StatusCode
//   - [clients.ErrCircuitOpen] → UpstreamError, reason "circuit breaker open"
//   - [clients.ErrMaxRetriesExceeded] → UpstreamError, reason "max retries exceeded"
//   - context cancellation → UpstreamError wrapping the context error
//
// The adapter also implements [ports.HealthChecker]. Readiness fails when no
// API key is configured or the circuit is open.
package acl
