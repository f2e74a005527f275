package tracing

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestInjectExtractRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "publish")
	defer span.End()

	headers := InjectTraceContext(ctx, []kafka.Header{{Key: "type", Value: []byte("ticket.created")}})
	require.Len(t, headers, 2)
	assert.Equal(t, "traceparent", headers[1].Key)

	extracted := trace.SpanContextFromContext(ExtractTraceContext(context.Background(), headers))
	assert.Equal(t, span.SpanContext().TraceID(), extracted.TraceID())
}
