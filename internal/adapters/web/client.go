package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jsamuelsen/neuroboss/internal/adapters/http/dto"
	"github.com/jsamuelsen/neuroboss/internal/adapters/http/middleware"
	"github.com/jsamuelsen/neuroboss/internal/domain"
	"github.com/jsamuelsen/neuroboss/internal/platform/logging"
)

const generatePath = "/api/neuroboss"

var (
	// ErrEndpointStatus is returned when the endpoint answers with a non-2xx status.
	ErrEndpointStatus = errors.New("endpoint returned non-success status")

	// ErrEndpointBody is returned when a 2xx answer is not a JSON document.
	ErrEndpointBody = errors.New("endpoint returned a non-JSON body")
)

// EndpointClientConfig configures the HTTP client for the generation endpoint.
type EndpointClientConfig struct {
	// BaseURL is the scheme and host of the service, e.g. http://127.0.0.1:8080.
	BaseURL string

	// Timeout bounds one generation call.
	Timeout time.Duration
}

// EndpointClient calls POST /api/neuroboss over HTTP, the way the browser would.
type EndpointClient struct {
	client *resty.Client
}

// NewEndpointClient creates a client for the generation endpoint.
func NewEndpointClient(cfg EndpointClientConfig) *EndpointClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &EndpointClient{client: client}
}

// Generate posts the project and decodes the result.
// Any non-2xx status is an error wrapping ErrEndpointStatus.
func (e *EndpointClient) Generate(ctx context.Context, project string) (domain.GenerationResult, error) {
	var out dto.GenerateResponse

	req := e.client.R().
		SetContext(ctx).
		SetBody(dto.GenerateRequest{Project: &project}).
		SetResult(&out)

	// The page request's ID becomes the correlation ID of the endpoint call.
	correlationID := middleware.CorrelationIDFromContext(ctx)
	if correlationID == "" {
		correlationID = middleware.RequestIDFromContext(ctx)
	}

	if correlationID != "" {
		req.SetHeader(middleware.HeaderCorrelationID, correlationID)
	}

	resp, err := req.Post(generatePath)
	if err != nil {
		return domain.GenerationResult{}, fmt.Errorf("calling %s: %w", generatePath, err)
	}

	if !resp.IsSuccess() {
		return domain.GenerationResult{}, fmt.Errorf("%w: %d", ErrEndpointStatus, resp.StatusCode())
	}

	// resty decodes the result only for JSON content types.
	if ct := resp.Header().Get("Content-Type"); !resty.IsJSONType(ct) {
		return domain.GenerationResult{}, fmt.Errorf("%w: content type %q", ErrEndpointBody, ct)
	}

	logging.FromContext(ctx).DebugContext(ctx, "endpoint responded",
		slog.Int("status", resp.StatusCode()),
		slog.Bool("fallback", resp.Header().Get(dto.HeaderFallback) == "true"),
		slog.Duration("latency", resp.Time()),
	)

	return out.ToDomain(), nil
}
