package tracing

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
)

// Ensure OTelTracer implements the interface.
var _ driven.Tracer = (*OTelTracer)(nil)

// InstrumentationName identifies this module's spans.
const InstrumentationName = "github.com/custodia-labs/intelligence-layer"

// Attribute keys set on exported spans.
const (
	attrTaskName   = "ilayer.task.name"
	attrTaskInput  = "ilayer.task.input"
	attrTaskOutput = "ilayer.task.output"
	attrLogValue   = "ilayer.log.value"
)

// maxAttributeLength caps JSON-encoded inputs and outputs on spans.
const maxAttributeLength = 4096

// OTelTracer exports spans through an OpenTelemetry tracer.
type OTelTracer struct {
	tracer trace.Tracer
}

// NewOTelTracer creates a tracer from provider. A nil provider uses the
// globally registered one.
func NewOTelTracer(provider trace.TracerProvider) *OTelTracer {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &OTelTracer{tracer: provider.Tracer(InstrumentationName)}
}

// Span starts an OpenTelemetry span.
func (t *OTelTracer) Span(ctx context.Context, name string) (context.Context, driven.Span) {
	ctx, span := t.tracer.Start(ctx, name)
	return ctx, &otelSpan{span: span}
}

// TaskSpan starts a span carrying the task name and input.
func (t *OTelTracer) TaskSpan(ctx context.Context, taskName string, input any) (context.Context, driven.TaskSpan) {
	ctx, span := t.tracer.Start(ctx, taskName, trace.WithAttributes(
		attribute.String(attrTaskName, taskName),
		attribute.String(attrTaskInput, encodeValue(input)),
	))
	return ctx, &otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) Log(message string, value any) {
	s.span.AddEvent(message, trace.WithAttributes(attribute.String(attrLogValue, encodeValue(value))))
}

func (s *otelSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *otelSpan) RecordOutput(output any) {
	s.span.SetAttributes(attribute.String(attrTaskOutput, encodeValue(output)))
}

func (s *otelSpan) End() {
	s.span.End()
}

// encodeValue renders a value as JSON, falling back to fmt for values that
// cannot be marshalled.
func encodeValue(value any) string {
	var text string
	if s, ok := value.(string); ok {
		text = s
	} else if data, err := json.Marshal(value); err == nil {
		text = string(data)
	} else {
		text = fmt.Sprintf("%v", value)
	}
	if len(text) > maxAttributeLength {
		text = text[:maxAttributeLength] + "..."
	}
	return text
}
