package acl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/neuroboss/internal/adapters/clients"
	"github.com/jsamuelsen/neuroboss/internal/adapters/http/middleware"
	"github.com/jsamuelsen/neuroboss/internal/domain"
	"github.com/jsamuelsen/neuroboss/internal/platform/config"
	"github.com/jsamuelsen/neuroboss/internal/ports"
)

const testAPIKey = "sk-test-0123456789abcdef"

func newHTTPClient(t *testing.T, maxFailures int) *clients.Client {
	t.Helper()

	client, err := clients.New(&clients.Config{
		ServiceName: ServiceName,
		Timeout:     5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     1,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   maxFailures,
			Timeout:       30 * time.Second,
			HalfOpenLimit: 1,
		},
	})
	require.NoError(t, err)

	return client
}

// setupOpenAIClient creates an OpenAIClient pointed at a test server.
func setupOpenAIClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewOpenAIClient(OpenAIClientConfig{
		Client:  newHTTPClient(t, 10),
		APIKey:  testAPIKey,
		BaseURL: server.URL + "/v1",
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func testPrompt() ports.Prompt {
	return ports.Prompt{
		Model:       "gpt-5-mini",
		Instruction: "Return JSON.",
		Input:       "Project: a podcast",
		SchemaName:  "NeurobossResult",
		Schema: map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"answer": map[string]any{"type": "string"},
			},
			"required": []any{"answer"},
		},
		Strict: true,
	}
}

func writeResponse(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{
		"id": "resp_123",
		"object": "response",
		"model": "gpt-5-mini",
		"status": "completed",
		"output": [{
			"type": "message",
			"id": "msg_1",
			"role": "assistant",
			"status": "completed",
			"content": [{"type": "output_text", "text": %q, "annotations": []}]
		}],
		"usage": {"input_tokens": 12, "output_tokens": 34, "total_tokens": 46}
	}`, text)
}

func TestNewOpenAIClient_PanicsWithoutClient(t *testing.T) {
	assert.Panics(t, func() {
		NewOpenAIClient(OpenAIClientConfig{APIKey: testAPIKey})
	})
}

func TestOpenAIClient_Name(t *testing.T) {
	client := setupOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {})

	assert.Equal(t, "openai", client.Name())
}

func TestGenerate_Success(t *testing.T) {
	var body map[string]any
	var authHeader string
	var path string

	client := setupOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		authHeader = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		writeResponse(w, `{"answer":"42"}`)
	})

	out, err := client.Generate(context.Background(), testPrompt())
	require.NoError(t, err)

	assert.JSONEq(t, `{"answer":"42"}`, out)
	assert.Equal(t, "/v1/responses", path)
	assert.Equal(t, "Bearer "+testAPIKey, authHeader)

	assert.Equal(t, "gpt-5-mini", body["model"])
	assert.Equal(t, "Return JSON.", body["instructions"])

	input, ok := body["input"].([]any)
	require.True(t, ok, "input should be a message list")
	require.Len(t, input, 1)
	msg := input[0].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	assert.Equal(t, "Project: a podcast", msg["content"])

	format := body["text"].(map[string]any)["format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	assert.Equal(t, "NeurobossResult", format["name"])
	assert.Equal(t, true, format["strict"])
	assert.Equal(t, false, format["schema"].(map[string]any)["additionalProperties"])
}

func TestGenerate_EmptyOutput(t *testing.T) {
	client := setupOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"resp_1","object":"response","status":"completed","output":[]}`)
	})

	out, err := client.Generate(context.Background(), testPrompt())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGenerate_PropagatesRequestID(t *testing.T) {
	var requestID string

	client := setupOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get("X-Request-ID")
		writeResponse(w, "{}")
	})

	ctx := middleware.ContextWithRequestID(context.Background(), "req-42")
	_, err := client.Generate(ctx, testPrompt())
	require.NoError(t, err)

	assert.Equal(t, "req-42", requestID)
}

func TestGenerate_APIError(t *testing.T) {
	client := setupOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key","param":null}}`)
	})

	_, err := client.Generate(context.Background(), testPrompt())
	require.Error(t, err)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusUnauthorized, upstream.StatusCode)
	assert.Equal(t, "Incorrect API key provided", upstream.Reason)
	assert.False(t, domain.IsValidation(err))
	assert.False(t, domain.IsUnavailable(err))
}

func TestGenerate_ServerError(t *testing.T) {
	client := setupOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Generate(context.Background(), testPrompt())
	require.Error(t, err)

	assert.True(t, IsUpstream(err))
	assert.ErrorIs(t, err, clients.ErrMaxRetriesExceeded)
}

func TestGenerate_ContextCanceled(t *testing.T) {
	client := setupOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, "{}")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Generate(ctx, testPrompt())
	require.Error(t, err)
	assert.True(t, IsUpstream(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenAIClient_Check(t *testing.T) {
	t.Run("healthy with key", func(t *testing.T) {
		client := setupOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {})
		assert.NoError(t, client.Check(context.Background()))
	})

	t.Run("missing key", func(t *testing.T) {
		client := NewOpenAIClient(OpenAIClientConfig{
			Client: newHTTPClient(t, 10),
			Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		})

		err := client.Check(context.Background())
		require.Error(t, err)
		assert.True(t, domain.IsUnavailable(err))
		assert.Contains(t, err.Error(), "API key")
	})

	t.Run("circuit open", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		t.Cleanup(server.Close)

		client := NewOpenAIClient(OpenAIClientConfig{
			Client:  newHTTPClient(t, 1),
			APIKey:  testAPIKey,
			BaseURL: server.URL,
			Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		})

		_, err := client.Generate(context.Background(), testPrompt())
		require.Error(t, err)

		err = client.Check(context.Background())
		require.Error(t, err)
		assert.True(t, domain.IsUnavailable(err))
		assert.Contains(t, err.Error(), "circuit breaker open")
		assert.Contains(t, err.Error(), "next attempt in")

		_, err = client.Generate(context.Background(), testPrompt())
		assert.ErrorIs(t, err, clients.ErrCircuitOpen)
	})

	t.Run("rate limited opens circuit", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`))
		}))
		t.Cleanup(server.Close)

		client := NewOpenAIClient(OpenAIClientConfig{
			Client:  newHTTPClient(t, 1),
			APIKey:  testAPIKey,
			BaseURL: server.URL,
			Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		})

		_, err := client.Generate(context.Background(), testPrompt())
		require.Error(t, err)

		err = client.Check(context.Background())
		require.Error(t, err)
		assert.True(t, domain.IsUnavailable(err))
	})

	t.Run("bad key keeps circuit closed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`))
		}))
		t.Cleanup(server.Close)

		client := NewOpenAIClient(OpenAIClientConfig{
			Client:  newHTTPClient(t, 1),
			APIKey:  testAPIKey,
			BaseURL: server.URL,
			Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		})

		_, err := client.Generate(context.Background(), testPrompt())
		require.Error(t, err)

		assert.NoError(t, client.Check(context.Background()))
	})
}

func TestMapModelError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantReason string
	}{
		{"circuit open", clients.ErrCircuitOpen, "circuit breaker open"},
		{"retries exhausted", fmt.Errorf("%w: boom", clients.ErrMaxRetriesExceeded), "max retries exceeded"},
		{"deadline", context.DeadlineExceeded, "deadline exceeded"},
		{"canceled", context.Canceled, "canceled"},
		{"other", errors.New("dial tcp: refused"), "dial tcp: refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapModelError(tt.err, ServiceName, "generate")

			var upstream *UpstreamError
			require.ErrorAs(t, err, &upstream)
			assert.Equal(t, tt.wantReason, upstream.Reason)
			assert.Equal(t, "openai", upstream.Service)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	assert.NoError(t, MapModelError(nil, ServiceName, "generate"))
}

func TestUpstreamError_Error(t *testing.T) {
	err := &UpstreamError{Service: "openai", Operation: "generate", StatusCode: 429, Reason: "rate limited"}
	assert.Equal(t, "openai generate failed with status 429: rate limited", err.Error())

	err = &UpstreamError{Service: "openai", Operation: "generate"}
	assert.Equal(t, "openai generate failed", err.Error())
}

func TestToResponseParams_OmitsEmptyInstruction(t *testing.T) {
	prompt := testPrompt()
	prompt.Instruction = ""

	params := toResponseParams(prompt)
	assert.False(t, params.Instructions.Valid())
	require.NotNil(t, params.Text.Format.OfJSONSchema)
	assert.Equal(t, "NeurobossResult", params.Text.Format.OfJSONSchema.Name)
}

func TestFromResponse_Nil(t *testing.T) {
	assert.Equal(t, completion{}, fromResponse(nil))
}
