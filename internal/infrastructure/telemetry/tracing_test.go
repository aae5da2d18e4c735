package telemetry

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup_WithoutEndpoint(t *testing.T) {
	tr, err := Setup(context.Background(), Config{ServiceName: "lifelink-test", SamplingRatio: 1}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Shutdown(context.Background()) })

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	assert.True(t, span.SpanContext().IsValid(), "spans should be recorded by the installed provider")
	assert.True(t, span.SpanContext().IsSampled())
}

func TestExporterOptions(t *testing.T) {
	assert.Len(t, exporterOptions("localhost:4318"), 2)
	assert.Len(t, exporterOptions("http://collector:4318"), 2)
	assert.Len(t, exporterOptions("https://otlp.example.com"), 1)
}

func TestShutdown_Nil(t *testing.T) {
	var tr *Tracing
	assert.NoError(t, tr.Shutdown(context.Background()))
}
