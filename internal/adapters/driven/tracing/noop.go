package tracing

import (
	"context"

	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
)

// Ensure NoOpTracer implements the interface.
var _ driven.Tracer = NoOpTracer{}

// NoOpTracer is a tracer that records nothing.
type NoOpTracer struct{}

// Span returns a span that records nothing.
func (NoOpTracer) Span(ctx context.Context, _ string) (context.Context, driven.Span) {
	return ctx, noOpSpan{}
}

// TaskSpan returns a task span that records nothing.
func (NoOpTracer) TaskSpan(ctx context.Context, _ string, _ any) (context.Context, driven.TaskSpan) {
	return ctx, noOpSpan{}
}

type noOpSpan struct{}

func (noOpSpan) Log(string, any)   {}
func (noOpSpan) RecordError(error) {}
func (noOpSpan) RecordOutput(any)  {}
func (noOpSpan) End()              {}
