package acl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/jsamuelsen/neuroboss/internal/adapters/clients"
	"github.com/jsamuelsen/neuroboss/internal/domain"
	"github.com/jsamuelsen/neuroboss/internal/platform/logging"
	"github.com/jsamuelsen/neuroboss/internal/platform/telemetry"
	"github.com/jsamuelsen/neuroboss/internal/ports"
)

const (
	// ServiceName identifies the model service in logs, errors, and health checks.
	ServiceName = "openai"

	operationGenerate = "generate"
)

// OpenAIClientConfig contains configuration for the OpenAI adapter.
type OpenAIClientConfig struct {
	// Client is the instrumented HTTP client all SDK requests go through.
	Client *clients.Client

	// APIKey is the server-held credential. An empty key fails readiness.
	APIKey string

	// BaseURL is the API root, e.g. https://api.openai.com/v1.
	BaseURL string

	// Metrics is optional.
	Metrics *telemetry.GenerationMetrics

	// Logger is the structured logger.
	Logger *slog.Logger
}

// OpenAIClient implements ports.ModelClient with the OpenAI Responses API.
type OpenAIClient struct {
	sdk     openai.Client
	http    *clients.Client
	hasKey  bool
	metrics *telemetry.GenerationMetrics
}

// NewOpenAIClient creates the OpenAI adapter.
// Panics if Client is nil. Defaults logger to slog.Default() if nil.
func NewOpenAIClient(cfg OpenAIClientConfig) *OpenAIClient {
	if cfg.Client == nil {
		panic("OpenAIClient: Client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := []option.RequestOption{
		option.WithHTTPClient(cfg.Client.Doer()),
		option.WithMaxRetries(0),
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	if cfg.APIKey == "" {
		logger.Warn("model API key not configured; generation requests will fail")
	}

	return &OpenAIClient{
		sdk:     openai.NewClient(opts...),
		http:    cfg.Client,
		hasKey:  cfg.APIKey != "",
		metrics: cfg.Metrics,
	}
}

// Generate sends the prompt and returns the raw output text.
// Implements ports.ModelClient.
func (c *OpenAIClient) Generate(ctx context.Context, prompt ports.Prompt) (string, error) {
	logger := logging.FromContext(ctx).With(slog.String("downstream", ServiceName))

	logger.Log(ctx, logging.LevelTrace, "sending prompt",
		slog.String("model", prompt.Model),
		slog.String("schema", prompt.SchemaName),
		slog.String("input", prompt.Input))

	start := time.Now()
	resp, err := c.sdk.Responses.New(ctx, toResponseParams(prompt))
	elapsed := time.Since(start)

	c.metrics.RecordModelCall(prompt.Model, elapsed, err)

	if err != nil {
		mapped := MapModelError(err, ServiceName, operationGenerate)
		logger.ErrorContext(ctx, "model call failed",
			slog.String("model", prompt.Model),
			slog.Duration("duration", elapsed),
			slog.Any("error", mapped))

		return "", mapped
	}

	out := fromResponse(resp)
	c.metrics.RecordTokens(prompt.Model, out.InputTokens, out.OutputTokens)

	logger.DebugContext(ctx, "model call complete",
		slog.String("model", prompt.Model),
		slog.String("response_id", out.ID),
		slog.Int64("input_tokens", out.InputTokens),
		slog.Int64("output_tokens", out.OutputTokens),
		slog.Duration("duration", elapsed))
	logger.Log(ctx, logging.LevelTrace, "model output", slog.String("output", out.Text))

	return out.Text, nil
}

// Name returns the health check name for this client.
// Implements ports.HealthChecker.
func (c *OpenAIClient) Name() string {
	return ServiceName
}

// Check reports whether generation can currently be attempted.
// It makes no network call; a paid request per readiness check is not acceptable.
// Implements ports.HealthChecker.
func (c *OpenAIClient) Check(_ context.Context) error {
	if !c.hasKey {
		return domain.NewUnavailableError(ServiceName, "API key not configured")
	}

	if c.http.CircuitState() == clients.StateOpen {
		reason := "circuit breaker open"
		if wait := c.http.CircuitOpenFor(); wait > 0 {
			reason = fmt.Sprintf("%s, next attempt in %s", reason, wait.Round(time.Second))
		}

		return domain.NewUnavailableError(ServiceName, reason)
	}

	return nil
}
