package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/otec/backoffice/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// setupTestTracer installs an in-memory span recorder as the global provider.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})

	return sr
}

func attrMap(span sdktrace.ReadOnlySpan) map[string]interface{} {
	m := make(map[string]interface{})
	for _, attr := range span.Attributes() {
		m[string(attr.Key)] = attr.Value.AsInterface()
	}
	return m
}

func TestStartSpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "test.operation")
	require.NotNil(t, span)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "test.operation", spans[0].Name())
	assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind())
}

func TestStartSpan_WithOptions(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "registry.fetch",
		telemetry.WithAttribute(telemetry.SpanAttrDocType, "1"),
		telemetry.WithSpanKind(trace.SpanKindClient),
	)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind())
	assert.Equal(t, "1", attrMap(spans[0])[telemetry.SpanAttrDocType])
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "cost_ledger", "create_line")
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "cost_ledger.create_line", spans[0].Name())
}

func TestSetAttributes(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "test.operation")
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCourseID, int64(101),
		telemetry.SpanAttrRunID, "run-1",
		telemetry.SpanAttrUpserted, 3,
		"dry_run", false,
	)
	span.End()

	attrs := attrMap(sr.Ended()[0])
	assert.Equal(t, int64(101), attrs[telemetry.SpanAttrCourseID])
	assert.Equal(t, "run-1", attrs[telemetry.SpanAttrRunID])
	assert.Equal(t, int64(3), attrs[telemetry.SpanAttrUpserted])
	assert.Equal(t, false, attrs["dry_run"])
}

func TestSetAttributes_OddKeyValues(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "test.operation")
	telemetry.SetAttributes(span, "a", 1, "dangling")
	span.End()

	attrs := attrMap(sr.Ended()[0])
	assert.Equal(t, int64(1), attrs["a"])
	assert.NotContains(t, attrs, "dangling")
}

func TestRecordError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "test.operation")
	telemetry.RecordError(span, errors.New("registry unavailable"))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "registry unavailable", spans[0].Status().Description)
	require.NotEmpty(t, spans[0].Events())
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestRecordError_NilErrorAndSpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "test.operation")
	telemetry.RecordError(span, nil)
	span.End()

	assert.Equal(t, codes.Unset, sr.Ended()[0].Status().Code)
	assert.NotPanics(t, func() { telemetry.RecordError(nil, errors.New("x")) })
	assert.NotPanics(t, func() { telemetry.SetAttributes(nil, "k", "v") })
	assert.NotPanics(t, func() { telemetry.SetOK(nil) })
	assert.NotPanics(t, func() { telemetry.AddEvent(nil, "e") })
}

func TestSetOK(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "test.operation")
	telemetry.SetOK(span)
	span.End()

	assert.Equal(t, codes.Ok, sr.Ended()[0].Status().Code)
}

func TestAddEvent(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "test.operation")
	telemetry.AddEvent(span, "registry_responded", telemetry.SpanAttrRecords, 4)
	span.End()

	events := sr.Ended()[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "registry_responded", events[0].Name)
	require.Len(t, events[0].Attributes, 1)
	assert.Equal(t, int64(4), events[0].Attributes[0].Value.AsInt64())
}

func TestNestedSpans(t *testing.T) {
	sr := setupTestTracer(t)

	ctx, parent := telemetry.StartServiceSpan(context.Background(), "sworn_statement_sync", "run")
	_, child := telemetry.StartSpan(ctx, "registry.fetch")
	child.End()
	parent.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
	assert.Equal(t, spans[1].SpanContext().TraceID(), spans[0].SpanContext().TraceID())
}

func TestSpanFromContext(t *testing.T) {
	setupTestTracer(t)

	assert.False(t, telemetry.SpanFromContext(context.Background()).SpanContext().IsValid())

	ctx, span := telemetry.StartSpan(context.Background(), "test.operation")
	defer span.End()

	assert.Equal(t, span, telemetry.SpanFromContext(ctx))
}
