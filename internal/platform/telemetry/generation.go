package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const namespace = "neuroboss"

// Generation outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeFallback    = "fallback"
	OutcomeError       = "error"
	OutcomeInvalidBody = "invalid_request"
)

var (
	generationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "total",
			Help:      "Generation requests by outcome",
		},
		[]string{"outcome"},
	)

	modelCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Model call duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60},
		},
		[]string{"model", "status"},
	)

	modelTokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "tokens_used_total",
			Help:      "Tokens consumed by model calls",
		},
		[]string{"model", "type"},
	)
)

// GenerationMetrics records generation outcomes to both Prometheus and the
// OpenTelemetry meter provider.
type GenerationMetrics struct {
	outcomes metric.Int64Counter
}

// NewGenerationMetrics creates generation metrics on the global meter provider.
func NewGenerationMetrics() (*GenerationMetrics, error) {
	meter := otel.Meter(instrumentationName)

	outcomes, err := meter.Int64Counter(
		"neuroboss.generation.total",
		metric.WithDescription("Generation requests by outcome"),
	)
	if err != nil {
		return nil, err
	}

	return &GenerationMetrics{outcomes: outcomes}, nil
}

// RecordOutcome counts one generation request.
func (m *GenerationMetrics) RecordOutcome(ctx context.Context, outcome string) {
	generationTotal.WithLabelValues(outcome).Inc()

	if m != nil && m.outcomes != nil {
		m.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

// RecordModelCall records the latency of one model call.
func (m *GenerationMetrics) RecordModelCall(model string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}

	modelCallDuration.WithLabelValues(model, status).Observe(d.Seconds())
}

// RecordTokens adds token usage reported by the model.
func (m *GenerationMetrics) RecordTokens(model string, input, output int64) {
	if input > 0 {
		modelTokensUsed.WithLabelValues(model, "input").Add(float64(input))
	}

	if output > 0 {
		modelTokensUsed.WithLabelValues(model, "output").Add(float64(output))
	}
}
