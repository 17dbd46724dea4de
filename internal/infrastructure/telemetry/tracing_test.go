package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func TestStartServiceSpan(t *testing.T) {
	recorder := useSpanRecorder(t)

	ctx, span := StartServiceSpan(context.Background(), "payment", "record")
	assert.NotEmpty(t, GetTraceID(ctx))

	SetAttributes(span,
		SpanAttrCustomerID, "c-1",
		SpanAttrInvoiceCount, 3,
		42, "skipped",
	)
	AddEvent(span, "allocation_done", SpanAttrAmount, int64(150_000))
	RecordError(span, errors.New("stale version"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	got := spans[0]
	assert.Equal(t, "payment.record", got.Name())
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Contains(t, got.Attributes(), attribute.String(SpanAttrCustomerID, "c-1"))
	assert.Contains(t, got.Attributes(), attribute.Int(SpanAttrInvoiceCount, 3))
	assert.Len(t, got.Attributes(), 2)
	require.NotEmpty(t, got.Events())
	assert.Equal(t, "allocation_done", got.Events()[0].Name)
}

func TestTracingHelpers_NilSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		SetAttributes(nil, "k", "v")
		RecordError(nil, errors.New("x"))
		AddEvent(nil, "e")
	})
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestToAttribute(t *testing.T) {
	tests := []struct {
		value interface{}
		want  attribute.KeyValue
	}{
		{"v", attribute.String("k", "v")},
		{7, attribute.Int("k", 7)},
		{int64(7), attribute.Int64("k", 7)},
		{1.5, attribute.Float64("k", 1.5)},
		{true, attribute.Bool("k", true)},
		{[]string{"a"}, attribute.StringSlice("k", []string{"a"})},
		{struct{ A int }{1}, attribute.String("k", "{1}")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toAttribute("k", tt.value))
	}
}
