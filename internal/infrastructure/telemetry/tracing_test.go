package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

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

func attrMap(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)
	orderID := uuid.New()

	_, span := telemetry.StartServiceSpan(context.Background(), "fulfillment", "transition",
		telemetry.WithAttribute(telemetry.SpanAttrFulfillmentOrderID, orderID),
		telemetry.WithAttribute(telemetry.SpanAttrToStatus, "SHIPPED"),
		telemetry.WithSpanKind(trace.SpanKindServer),
	)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "fulfillment.transition", spans[0].Name())
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind())
	assert.Equal(t, telemetry.TracerName, spans[0].InstrumentationScope().Name)

	attrs := attrMap(spans[0])
	assert.Equal(t, orderID.String(), attrs[telemetry.SpanAttrFulfillmentOrderID].AsString())
	assert.Equal(t, "SHIPPED", attrs[telemetry.SpanAttrToStatus].AsString())
}

func TestStartSpan_DefaultsToInternal(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "fulfillment.attach_tracking")
	span.End()

	require.Len(t, sr.Ended(), 1)
	assert.Equal(t, trace.SpanKindInternal, sr.Ended()[0].SpanKind())
}

func TestSetAttributes(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "attrs")
	telemetry.SetAttributes(span,
		telemetry.SpanAttrFromStatus, "CONFIRMED",
		"item_count", 3,
		"total_cost", 12.5,
		"notify", true,
		42, "skipped",
		"dangling",
	)
	telemetry.SetAttribute(span, telemetry.SpanAttrCarrier, "UPS")
	span.End()

	attrs := attrMap(sr.Ended()[0])
	assert.Equal(t, "CONFIRMED", attrs[telemetry.SpanAttrFromStatus].AsString())
	assert.Equal(t, int64(3), attrs["item_count"].AsInt64())
	assert.Equal(t, 12.5, attrs["total_cost"].AsFloat64())
	assert.True(t, attrs["notify"].AsBool())
	assert.Equal(t, "UPS", attrs[telemetry.SpanAttrCarrier].AsString())
	assert.NotContains(t, attrs, attribute.Key("dangling"))
	assert.Len(t, attrs, 5)
}

func TestAttributeTypes(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "types")
	telemetry.SetAttributes(span,
		"int64", int64(7),
		"strings", []string{"SHIPPED", "ISSUE"},
		"ints", []int{1, 2},
		"floats", []float64{0.5},
		"bools", []bool{true},
		"int64s", []int64{9},
		"other", struct{ N int }{N: 1},
	)
	span.End()

	attrs := attrMap(sr.Ended()[0])
	assert.Equal(t, int64(7), attrs["int64"].AsInt64())
	assert.Equal(t, []string{"SHIPPED", "ISSUE"}, attrs["strings"].AsStringSlice())
	assert.Equal(t, []int64{1, 2}, attrs["ints"].AsInt64Slice())
	assert.Equal(t, []float64{0.5}, attrs["floats"].AsFloat64Slice())
	assert.Equal(t, []bool{true}, attrs["bools"].AsBoolSlice())
	assert.Equal(t, []int64{9}, attrs["int64s"].AsInt64Slice())
	assert.Equal(t, "{1}", attrs["other"].AsString())
}

func TestRecordError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "failing")
	telemetry.RecordError(span, errors.New("conflicting write"))
	span.End()

	ended := sr.Ended()[0]
	assert.Equal(t, codes.Error, ended.Status().Code)
	assert.Equal(t, "conflicting write", ended.Status().Description)
	require.Len(t, ended.Events(), 1)
	assert.Equal(t, "exception", ended.Events()[0].Name)
}

func TestRecordError_NilErrorLeavesStatus(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "ok")
	telemetry.RecordError(span, nil)
	telemetry.SetOK(span)
	span.End()

	assert.Equal(t, codes.Ok, sr.Ended()[0].Status().Code)
	assert.Empty(t, sr.Ended()[0].Events())
}

func TestAddEvent(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "events")
	telemetry.AddEvent(span, "notice_suppressed", telemetry.SpanAttrNotice, "delivery")
	span.End()

	events := sr.Ended()[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "notice_suppressed", events[0].Name)
	assert.Equal(t, attribute.String(telemetry.SpanAttrNotice, "delivery"), events[0].Attributes[0])
}

func TestNilSpanHelpersDoNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.SetAttributes(nil, "k", "v")
		telemetry.SetAttribute(nil, "k", "v")
		telemetry.RecordError(nil, errors.New("boom"))
		telemetry.SetOK(nil)
		telemetry.AddEvent(nil, "e")
	})
}

func TestTraceAndSpanIDs(t *testing.T) {
	setupTestTracer(t)

	assert.Empty(t, telemetry.GetTraceID(context.Background()))
	assert.Empty(t, telemetry.GetSpanID(context.Background()))

	ctx, parent := telemetry.StartSpan(context.Background(), "parent")
	defer parent.End()
	childCtx, child := telemetry.StartSpan(ctx, "child")
	defer child.End()

	assert.Equal(t, parent.SpanContext().TraceID().String(), telemetry.GetTraceID(childCtx))
	assert.Equal(t, child.SpanContext().SpanID().String(), telemetry.GetSpanID(childCtx))
	assert.Equal(t, child, telemetry.SpanFromContext(childCtx))

	moved := telemetry.ContextWithSpan(context.Background(), parent)
	assert.Equal(t, telemetry.GetSpanID(ctx), telemetry.GetSpanID(moved))
}
