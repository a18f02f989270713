package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func TestNew_DisabledIsNoop(t *testing.T) {
	p, err := New(context.Background(), &Config{Enabled: false, Endpoint: "not used"})
	require.NoError(t, err)

	assert.Nil(t, p.tracerProvider)
	assert.Nil(t, p.meterProvider)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewResource(t *testing.T) {
	t.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.region=eu-west-1,service.name=from-env")

	res, err := newResource(context.Background(), &Config{
		ServiceName: "neuroboss",
		Version:     "1.4.0",
		Environment: "prod",
		Model:       "gpt-5-mini",
	})
	require.NoError(t, err)

	set := res.Set()

	value := func(key string) string {
		v, ok := set.Value(attribute.Key(key))
		if !ok {
			return ""
		}
		return v.AsString()
	}

	assert.Equal(t, "neuroboss", value(string(semconv.ServiceNameKey)), "configured name beats the environment")
	assert.Equal(t, "1.4.0", value(string(semconv.ServiceVersionKey)))
	assert.Equal(t, "prod", value(string(semconv.DeploymentEnvironmentKey)))
	assert.Equal(t, "gpt-5-mini", value(string(AttrModelName)))
	assert.Equal(t, "openai", value(string(AttrModelSystem)))
	assert.Equal(t, "eu-west-1", value("deployment.region"))
}

func TestNewResource_WithoutModel(t *testing.T) {
	res, err := newResource(context.Background(), &Config{ServiceName: "neuroboss"})
	require.NoError(t, err)

	_, ok := res.Set().Value(AttrModelName)
	assert.False(t, ok)
}
