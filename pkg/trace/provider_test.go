package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestConf_SetDefaults(t *testing.T) {
	c := Conf{}
	c.SetDefaults()
	assert.Equal(t, "sniper", c.ServiceName)
	assert.Equal(t, "grpc", c.Protocol)
	assert.Equal(t, "localhost:4317", c.Endpoint)
	assert.Equal(t, 1.0, c.SampleRatio)

	h := Conf{Protocol: "http", SampleRatio: 3}
	h.SetDefaults()
	assert.Equal(t, "localhost:4318", h.Endpoint)
	assert.Equal(t, 1.0, h.SampleRatio)
}

func TestProvideTracerProvider_Disabled(t *testing.T) {
	tp, cleanup, err := ProvideTracerProvider(Conf{})
	require.NoError(t, err)
	defer cleanup()

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	assert.True(t, span.SpanContext().IsValid())
	assert.NotNil(t, tp)
}

func TestProvideTracerProvider_UnknownProtocol(t *testing.T) {
	_, _, err := ProvideTracerProvider(Conf{Enabled: true, Protocol: "udp", Endpoint: "x"})
	assert.Error(t, err)
}
