package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/neuroboss/internal/adapters/http/middleware"
	"github.com/jsamuelsen/neuroboss/internal/platform/config"
	"github.com/jsamuelsen/neuroboss/internal/platform/logging"
)

const (
	instrumentationName = "github.com/jsamuelsen/neuroboss/internal/adapters/clients"

	// defaultTimeout applies when the config leaves Timeout unset.
	defaultTimeout = 60 * time.Second

	// Pool sizes used when TransportConfig leaves a field at zero.
	transportMaxIdleConns        = 100
	transportMaxIdleConnsPerHost = 10
	transportIdleConnTimeout     = 90 * time.Second

	// backoffJitter spreads each wait by ±25%.
	backoffJitter = 0.25
)

// Call outcomes recorded on the duration histogram.
const (
	outcomeCompleted   = "completed"
	outcomeRejected    = "rejected" // 429 or 5xx answer
	outcomeFailed      = "failed"   // no answer at all
	outcomeCanceled    = "canceled"
	outcomeCircuitOpen = "circuit_open"
)

// Config configures an HTTP client instance.
type Config struct {
	// ServiceName identifies the downstream service for logging and tracing.
	ServiceName string

	// Timeout bounds a single attempt. Retries and backoff come on top.
	Timeout time.Duration

	Retry     config.RetryConfig
	Circuit   config.CircuitBreakerConfig
	Transport config.TransportConfig

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Client is the transport under the OpenAI SDK. Every call to the model API
// goes through its circuit breaker and retry loop, gets a client span and a
// duration sample, and carries the request and correlation IDs of the page
// or API request that caused it.
//
// Requests carry absolute URLs; the SDK sets its own base URL and credential.
type Client struct {
	http        *http.Client
	serviceName string
	retry       config.RetryConfig
	logger      *slog.Logger
	cb          *CircuitBreaker

	tracer   trace.Tracer
	duration metric.Float64Histogram
}

// New creates a new instrumented HTTP client.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(
		slog.String("component", "clients.Client"),
		slog.String("downstream", cfg.ServiceName),
	)

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:   cfg.Circuit.MaxFailures,
		Timeout:       cfg.Circuit.Timeout,
		HalfOpenLimit: cfg.Circuit.HalfOpenLimit,
	})
	cb.OnStateChange(func(from, to State) {
		logger.Warn("circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	duration, err := otel.Meter(instrumentationName).Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of model API calls, retries included"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	return &Client{
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: newTransport(cfg.Transport),
		},
		serviceName: cfg.ServiceName,
		retry:       cfg.Retry,
		logger:      logger,
		cb:          cb,
		tracer:      otel.Tracer(instrumentationName),
		duration:    duration,
	}, nil
}

// Do sends req to the model API.
//
// Transport errors and 5xx answers are retried with backoff; the request body
// is buffered so each attempt resends the same payload. A 4xx answer,
// including 429, is returned to the caller as is.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	logger := logging.FromContext(ctx).With(
		slog.String("downstream", c.serviceName),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	if err := bufferBody(req); err != nil {
		return nil, err
	}

	if !c.cb.Allow() {
		c.record(ctx, req.Method, 0, start, outcomeCircuitOpen)
		logger.WarnContext(ctx, "model API call skipped, circuit open",
			slog.Duration("open_for", c.cb.OpenFor()),
		)

		return nil, ErrCircuitOpen
	}

	ctx, span := c.tracer.Start(ctx, "HTTP "+req.Method+" "+c.serviceName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", req.URL.String()),
			attribute.String("peer.service", c.serviceName),
		),
	)
	defer span.End()

	c.injectHeaders(ctx, req)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.send(ctx, req, logger)
	if err != nil {
		return nil, c.fail(ctx, req, err, span, logger, start)
	}

	status := resp.StatusCode
	span.SetAttributes(attribute.Int("http.response.status_code", status))

	if TripsCircuit(status) {
		c.cb.RecordFailure()
		span.SetStatus(codes.Error, http.StatusText(status))
		c.record(ctx, req.Method, status, start, outcomeRejected)
		logger.WarnContext(ctx, "model API rejected request", slog.Int("status", status))

		return resp, nil
	}

	c.cb.RecordSuccess()
	if status >= http.StatusBadRequest {
		span.SetStatus(codes.Error, http.StatusText(status))
	}
	c.record(ctx, req.Method, status, start, outcomeCompleted)
	logger.DebugContext(ctx, "model API call completed",
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
	)

	return resp, nil
}

// send runs up to Retry.MaxAttempts attempts. Only the final 5xx becomes an error.
func (c *Client) send(ctx context.Context, req *http.Request, logger *slog.Logger) (*http.Response, error) {
	var lastErr error

	for attempt := range max(c.retry.MaxAttempts, 1) {
		if attempt > 0 {
			if err := c.wait(ctx, attempt); err != nil {
				return nil, err
			}

			if err := rewind(req); err != nil {
				return nil, err
			}
		}

		resp, err := c.http.Do(req.WithContext(ctx))

		switch {
		case err != nil && !isRetryableError(err):
			return nil, err
		case err != nil:
			lastErr = err
		case resp.StatusCode >= http.StatusInternalServerError:
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
		default:
			return resp, nil
		}

		logger.DebugContext(ctx, "model API attempt failed",
			slog.Int("attempt", attempt+1),
			slog.Any("error", lastErr),
		)
	}

	return nil, lastErr
}

// fail settles the breaker for a call that got no usable answer.
// A caller that gave up says nothing about the model API.
func (c *Client) fail(ctx context.Context, req *http.Request, err error, span trace.Span, logger *slog.Logger, start time.Time) error {
	span.SetStatus(codes.Error, err.Error())

	if errors.Is(err, context.Canceled) {
		c.cb.Release()
		c.record(ctx, req.Method, 0, start, outcomeCanceled)
		logger.InfoContext(ctx, "model API call canceled by caller",
			slog.Duration("duration", time.Since(start)),
		)

		return err
	}

	c.cb.RecordFailure()
	span.RecordError(err)
	c.record(ctx, req.Method, 0, start, outcomeFailed)
	logger.ErrorContext(ctx, "model API call failed",
		slog.Duration("duration", time.Since(start)),
		slog.Any("error", err),
	)

	if errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, err)
}

// wait sleeps the backoff for attempt unless ctx ends first.
func (c *Client) wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(c.calculateBackoff(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// calculateBackoff grows InitialInterval by Multiplier per attempt,
// caps it at MaxInterval and applies jitter.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := float64(c.retry.InitialInterval) * math.Pow(c.retry.Multiplier, float64(attempt))
	backoff = min(backoff, float64(c.retry.MaxInterval))

	jitter := (rand.Float64()*2 - 1) * backoffJitter //nolint:gosec // jitter needs no crypto randomness

	return time.Duration(backoff * (1 + jitter))
}

// bufferBody makes a one-shot body replayable.
func bufferBody(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return nil
	}

	data, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return fmt.Errorf("reading request body: %w", err)
	}

	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	req.Body, _ = req.GetBody()

	return nil
}

// rewind restores the body consumed by the previous attempt.
func rewind(req *http.Request) error {
	if req.GetBody == nil {
		return nil
	}

	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("rewinding request body: %w", err)
	}
	req.Body = body

	return nil
}

// CircuitState returns the current state of the circuit breaker.
func (c *Client) CircuitState() State {
	return c.cb.State()
}

// CircuitOpenFor returns the time left before the open circuit admits a trial call.
func (c *Client) CircuitOpenFor() time.Duration {
	return c.cb.OpenFor()
}

// ServiceName returns the downstream name used in logs and spans.
func (c *Client) ServiceName() string {
	return c.serviceName
}

// Doer adapts Client to the single-method interface SDKs accept
// for a custom HTTP transport.
type Doer struct {
	client *Client
}

// Do sends req with the request's own context.
func (d Doer) Do(req *http.Request) (*http.Response, error) {
	return d.client.Do(req.Context(), req)
}

// Doer returns an adapter exposing Do(*http.Request).
func (c *Client) Doer() Doer {
	return Doer{client: c}
}

// injectHeaders forwards the request and correlation IDs to the model API.
func (c *Client) injectHeaders(ctx context.Context, req *http.Request) {
	if id := middleware.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderRequestID, id)
	}

	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderCorrelationID, id)
	}
}

// newTransport builds the pooled transport, falling back to package defaults.
func newTransport(cfg config.TransportConfig) *http.Transport {
	t := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        transportMaxIdleConns,
		MaxIdleConnsPerHost: transportMaxIdleConnsPerHost,
		IdleConnTimeout:     transportIdleConnTimeout,
	}

	if cfg.MaxIdleConns > 0 {
		t.MaxIdleConns = cfg.MaxIdleConns
	}

	if cfg.MaxIdleConnsPerHost > 0 {
		t.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	}

	if cfg.IdleConnTimeout > 0 {
		t.IdleConnTimeout = cfg.IdleConnTimeout
	}

	return t
}

func (c *Client) record(ctx context.Context, method string, status int, start time.Time, outcome string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", method),
		attribute.String("peer.service", c.serviceName),
		attribute.String("outcome", outcome),
	}

	if status > 0 {
		attrs = append(attrs, attribute.Int("http.response.status_code", status))
	}

	c.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attrs...))
}
