//go:build integration

package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/neuroboss/internal/adapters/clients"
	"github.com/jsamuelsen/neuroboss/internal/adapters/clients/acl"
	"github.com/jsamuelsen/neuroboss/internal/domain"
	"github.com/jsamuelsen/neuroboss/internal/platform/config"
	"github.com/jsamuelsen/neuroboss/internal/ports"
)

func newModelClient(t *testing.T, baseURL string, maxFailures int) (*acl.OpenAIClient, *clients.Client) {
	t.Helper()

	httpClient, err := clients.New(&clients.Config{
		ServiceName: acl.ServiceName,
		Timeout:     2 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     1,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   maxFailures,
			Timeout:       50 * time.Millisecond,
			HalfOpenLimit: 1,
		},
	})
	require.NoError(t, err)

	return acl.NewOpenAIClient(acl.OpenAIClientConfig{
		Client:  httpClient,
		APIKey:  "sk-integration",
		BaseURL: baseURL + "/v1",
	}), httpClient
}

func testPrompt() ports.Prompt {
	return ports.Prompt{
		Model:      config.DefaultModelName,
		Input:      "Project: integration",
		SchemaName: config.DefaultModelSchemaName,
		Strict:     true,
	}
}

// TestModelClient_CircuitOpensOnServerErrors verifies that repeated 5xx
// responses open the breaker, fail readiness and stop reaching the server.
func TestModelClient_CircuitOpensOnServerErrors(t *testing.T) {
	var calls int32
	var healthy atomic.Bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		if !healthy.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"resp_1","object":"response","status":"completed","output":[{"type":"message","id":"m","role":"assistant","status":"completed","content":[{"type":"output_text","text":"{}","annotations":[]}]}]}`))
	}))
	defer server.Close()

	client, httpClient := newModelClient(t, server.URL, 2)
	ctx := context.Background()

	require.NoError(t, client.Check(ctx))

	for range 2 {
		_, err := client.Generate(ctx, testPrompt())
		require.Error(t, err)
		assert.True(t, acl.IsUpstream(err))
	}

	assert.Equal(t, clients.StateOpen, httpClient.CircuitState())

	err := client.Check(ctx)
	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))

	before := atomic.LoadInt32(&calls)
	_, err = client.Generate(ctx, testPrompt())
	require.Error(t, err)
	assert.Equal(t, before, atomic.LoadInt32(&calls), "no server call while the circuit is open")

	time.Sleep(60 * time.Millisecond)
	healthy.Store(true)

	out, err := client.Generate(ctx, testPrompt())
	require.NoError(t, err)
	assert.Equal(t, "{}", out)
	assert.Equal(t, clients.StateClosed, httpClient.CircuitState())
	require.NoError(t, client.Check(ctx))
}

// TestModelClient_ContextCancellation verifies a canceled caller stops the call.
func TestModelClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, _ := newModelClient(t, server.URL, 5)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := client.Generate(ctx, testPrompt())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
