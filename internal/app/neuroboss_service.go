// Package app contains application services that orchestrate use cases.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jsamuelsen/neuroboss/internal/domain"
	"github.com/jsamuelsen/neuroboss/internal/platform/logging"
	"github.com/jsamuelsen/neuroboss/internal/platform/telemetry"
	"github.com/jsamuelsen/neuroboss/internal/ports"
)

const operationGenerate = "neuroboss.generate"

// NeurobossServiceConfig contains configuration for the generation service.
type NeurobossServiceConfig struct {
	ModelClient ports.ModelClient

	// Model, SchemaName, Strict, and InputPrefix shape the outbound prompt.
	Model       string
	SchemaName  string
	Strict      bool
	InputPrefix string

	// Instruction is the fixed system instruction.
	Instruction string

	// Fallback is returned when the model output cannot be used.
	Fallback domain.GenerationResult

	Metrics *telemetry.GenerationMetrics
	Logger  *slog.Logger
}

// Generation is the outcome of one request.
type Generation struct {
	Result domain.GenerationResult

	// Fallback is set when Result is the fixed fallback rather than model output.
	Fallback bool
}

// NeurobossService turns a project description into frameworks and a quote.
type NeurobossService struct {
	model       ports.ModelClient
	modelName   string
	schemaName  string
	strict      bool
	inputPrefix string
	instruction string
	fallback    domain.GenerationResult
	metrics     *telemetry.GenerationMetrics
	exec        *Executor
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewNeurobossService creates the generation service.
// Panics if ModelClient is nil. Defaults logger to slog.Default() if nil.
func NewNeurobossService(cfg NeurobossServiceConfig) *NeurobossService {
	if cfg.ModelClient == nil {
		panic("NeurobossService: ModelClient is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &NeurobossService{
		model:       cfg.ModelClient,
		modelName:   cfg.Model,
		schemaName:  cfg.SchemaName,
		strict:      cfg.Strict,
		inputPrefix: cfg.InputPrefix,
		instruction: cfg.Instruction,
		fallback:    cfg.Fallback,
		metrics:     cfg.Metrics,
		exec:        NewExecutor(logger),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger,
	}
}

// modelResult mirrors the result schema for decoding model output.
// String fields are pointers so required checks presence, not emptiness.
type modelResult struct {
	Frameworks []modelFramework `json:"frameworks" validate:"required,dive"`
	Quote      *modelQuote      `json:"quote"      validate:"required"`
}

type modelFramework struct {
	Name  *string  `json:"name"  validate:"required"`
	Steps []string `json:"steps" validate:"required"`
	Why   *string  `json:"why"   validate:"required"`
}

type modelQuote struct {
	Text   *string `json:"text"   validate:"required"`
	Author *string `json:"author" validate:"required"`
}

// Generate asks the model for frameworks and a quote.
//
// An empty project is a validation error. Model output that is empty, not
// JSON, or does not match the schema yields the fallback with Fallback set.
// Model call failures are returned unchanged in meaning.
func (s *NeurobossService) Generate(ctx context.Context, req domain.GenerationRequest) (*Generation, error) {
	op := Operation[domain.GenerationRequest, string, *modelResult, *Generation]{
		Name: operationGenerate,
		Validate: func(_ context.Context, in domain.GenerationRequest) error {
			return in.Validate()
		},
		Perform: func(ctx context.Context, in domain.GenerationRequest) (string, error) {
			return s.model.Generate(ctx, s.Prompt(in.Project))
		},
		Verify: func(_ context.Context, _ domain.GenerationRequest, output string) (*modelResult, error) {
			return s.decode(output)
		},
		Respond: func(_ context.Context, _ domain.GenerationRequest, verified *modelResult) (*Generation, error) {
			return &Generation{Result: toDomain(verified)}, nil
		},
	}

	gen, err := Execute(ctx, s.exec, op, req)
	if err == nil {
		s.metrics.RecordOutcome(ctx, telemetry.OutcomeSuccess)
		return gen, nil
	}

	if step, _ := GetExecutionStep(err); step == StepVerify && domain.IsMalformedOutput(err) {
		s.metrics.RecordOutcome(ctx, telemetry.OutcomeFallback)

		var malformed *domain.MalformedOutputError
		if errors.As(err, &malformed) {
			s.loggerFor(ctx).WarnContext(ctx, "returning fallback result",
				slog.Int("output_length", len(malformed.Output)),
				slog.Any("error", malformed.Cause))
		}

		return &Generation{Result: s.Fallback(), Fallback: true}, nil
	}

	if domain.IsValidation(err) {
		s.metrics.RecordOutcome(ctx, telemetry.OutcomeInvalidBody)
	} else {
		s.metrics.RecordOutcome(ctx, telemetry.OutcomeError)
	}

	return nil, err
}

// loggerFor prefers the request-scoped logger, which carries the request IDs.
func (s *NeurobossService) loggerFor(ctx context.Context) *slog.Logger {
	if logger, ok := logging.Lookup(ctx); ok {
		return logger
	}

	return s.logger
}

// Prompt builds the outbound prompt for a project description.
func (s *NeurobossService) Prompt(project string) ports.Prompt {
	return ports.Prompt{
		Model:       s.modelName,
		Instruction: s.instruction,
		Input:       s.inputPrefix + project,
		SchemaName:  s.schemaName,
		Schema:      Schema(),
		Strict:      s.strict,
	}
}

// Fallback returns a copy of the fixed fallback result.
func (s *NeurobossService) Fallback() domain.GenerationResult {
	frameworks := make([]domain.Framework, len(s.fallback.Frameworks))
	copy(frameworks, s.fallback.Frameworks)

	return domain.GenerationResult{Frameworks: frameworks, Quote: s.fallback.Quote}
}

// decode parses model output into the result shape.
// Empty output is treated as an empty JSON object.
func (s *NeurobossService) decode(output string) (*modelResult, error) {
	text := output
	if strings.TrimSpace(text) == "" {
		text = "{}"
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()

	var result modelResult
	if err := dec.Decode(&result); err != nil {
		return nil, domain.NewMalformedOutputError(output, fmt.Errorf("decoding: %w", err))
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, domain.NewMalformedOutputError(output, errors.New("trailing data after JSON document"))
	}

	if err := s.validate.Struct(&result); err != nil {
		return nil, domain.NewMalformedOutputError(output, err)
	}

	return &result, nil
}

func toDomain(r *modelResult) domain.GenerationResult {
	frameworks := make([]domain.Framework, 0, len(r.Frameworks))
	for _, f := range r.Frameworks {
		frameworks = append(frameworks, domain.Framework{Name: *f.Name, Steps: f.Steps, Why: *f.Why})
	}

	return domain.GenerationResult{
		Frameworks: frameworks,
		Quote:      domain.Quote{Text: *r.Quote.Text, Author: *r.Quote.Author},
	}
}

// Schema returns the JSON schema the model output must satisfy.
// Every object sets additionalProperties to false, which strict mode requires.
func Schema() map[string]any {
	return object(map[string]any{
		"frameworks": map[string]any{
			"type": "array",
			"items": object(map[string]any{
				"name":  str(),
				"steps": map[string]any{"type": "array", "items": str()},
				"why":   str(),
			}, "name", "steps", "why"),
		},
		"quote": object(map[string]any{
			"text":   str(),
			"author": str(),
		}, "text", "author"),
	}, "frameworks", "quote")
}

func object(properties map[string]any, required ...string) map[string]any {
	req := make([]any, len(required))
	for i, r := range required {
		req[i] = r
	}

	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             req,
		"additionalProperties": false,
	}
}

func str() map[string]any {
	return map[string]any{"type": "string"}
}
