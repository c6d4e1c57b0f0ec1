package driven

import "context"

// Tracer records the execution of tasks as a tree of spans.
// The parent of a new span is taken from ctx; the returned context carries
// the new span so nested calls attach below it.
type Tracer interface {
	// Span opens a generic span.
	Span(ctx context.Context, name string) (context.Context, Span)

	// TaskSpan opens a span for a task run and records its input.
	TaskSpan(ctx context.Context, taskName string, input any) (context.Context, TaskSpan)
}

// Span is a timed unit of work that collects log entries.
type Span interface {
	// Log attaches a named value to the span.
	Log(message string, value any)

	// RecordError marks the span as failed.
	RecordError(err error)

	// End closes the span. Further calls are ignored.
	End()
}

// TaskSpan is a Span for a task run that additionally records the output.
type TaskSpan interface {
	Span

	// RecordOutput stores the task output.
	RecordOutput(output any)
}
