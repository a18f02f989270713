package telemetry

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/jsamuelsen/neuroboss"

// HeaderTraceID carries the trace ID back to the caller.
const HeaderTraceID = "X-Trace-ID"

// fallbackHeader mirrors dto.HeaderFallback; telemetry sits below the
// adapters and cannot import them.
const fallbackHeader = "X-Neuroboss-Fallback"

// Route and outcome attributes on HTTP server metrics.
var (
	attrMethod   = attribute.Key("http.request.method")
	attrRoute    = attribute.Key("http.route")
	attrStatus   = attribute.Key("http.response.status_code")
	attrFallback = attribute.Key("neuroboss.fallback")
)

// httpMetrics are the request instruments. The histogram count doubles as
// the request counter.
type httpMetrics struct {
	duration metric.Float64Histogram
	active   metric.Int64UpDownCounter
}

func newHTTPMetrics() (*httpMetrics, error) {
	meter := otel.Meter(instrumentationName)

	duration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.05, 0.25, 1, 2.5, 5, 10, 20, 40, 60, 90),
	)
	if err != nil {
		return nil, err
	}

	active, err := meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("In-flight HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	return &httpMetrics{duration: duration, active: active}, nil
}

// Middleware records request metrics and sets X-Trace-ID. It must run after
// TracingMiddleware so a span exists. Generations answered with the fallback
// result are tagged neuroboss.fallback=true on the metric and the span.
func Middleware() gin.HandlerFunc {
	m, err := newHTTPMetrics()
	if err != nil {
		otel.Handle(err)
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		base := metric.WithAttributes(attrMethod.String(c.Request.Method), attrRoute.String(route))

		if m != nil {
			m.active.Add(ctx, 1, base)
			defer m.active.Add(ctx, -1, base)
		}

		span := trace.SpanFromContext(ctx)
		if sc := span.SpanContext(); sc.HasTraceID() {
			c.Header(HeaderTraceID, sc.TraceID().String())
		}

		c.Next()

		fallback := c.Writer.Header().Get(fallbackHeader) != ""
		if fallback {
			span.SetAttributes(attrFallback.Bool(true))
		}

		if m == nil {
			return
		}

		m.duration.Record(ctx, time.Since(start).Seconds(), base, metric.WithAttributes(
			attrStatus.Int(c.Writer.Status()),
			attrFallback.Bool(fallback),
		))
	}
}

// TracingMiddleware returns the otelgin tracing middleware. Operational
// endpoints, static assets and CORS preflights are not traced.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName, otelgin.WithGinFilter(func(c *gin.Context) bool {
		path := c.Request.URL.Path
		return !strings.HasPrefix(path, "/-/") &&
			!strings.HasPrefix(path, "/static/") &&
			c.Request.Method != http.MethodOptions
	}))
}
