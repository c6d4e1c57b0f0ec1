package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
)

// DefaultConcurrency is the number of inputs RunConcurrently processes at once.
const DefaultConcurrency = 20

// Task turns an input into an output. Implementations do the work in DoRun;
// callers execute tasks through Run so that every execution is traced.
type Task[I, O any] interface {
	DoRun(ctx context.Context, input I, span driven.TaskSpan) (O, error)
}

// TaskFunc adapts a function to the Task interface.
type TaskFunc[I, O any] func(ctx context.Context, input I, span driven.TaskSpan) (O, error)

// DoRun calls f.
func (f TaskFunc[I, O]) DoRun(ctx context.Context, input I, span driven.TaskSpan) (O, error) {
	return f(ctx, input, span)
}

type tracerKey struct{}

// ContextWithTracer returns a context whose nested task runs report to tracer.
func ContextWithTracer(ctx context.Context, tracer driven.Tracer) context.Context {
	return context.WithValue(ctx, tracerKey{}, tracer)
}

// TracerFromContext returns the tracer stored by ContextWithTracer, or nil.
func TracerFromContext(ctx context.Context) driven.Tracer {
	tracer, _ := ctx.Value(tracerKey{}).(driven.Tracer)
	return tracer
}

// Run executes task with input inside a task span named name.
// A nil tracer falls back to the tracer carried by ctx, and to no tracing
// when there is none. Tasks started from within DoRun attach to the same span tree.
func Run[I, O any](ctx context.Context, tracer driven.Tracer, name string, task Task[I, O], input I) (O, error) {
	if tracer == nil {
		tracer = TracerFromContext(ctx)
	}
	if tracer == nil {
		return task.DoRun(ctx, input, noopSpan{})
	}

	ctx = ContextWithTracer(ctx, tracer)
	ctx, span := tracer.TaskSpan(ctx, name, input)
	defer span.End()

	output, err := task.DoRun(ctx, input, span)
	if err != nil {
		span.RecordError(err)
		return output, err
	}
	span.RecordOutput(output)
	return output, nil
}

// RunConcurrently executes task for every input with at most concurrency
// runs in flight. Outputs keep the order of inputs. The first error cancels
// the remaining runs and is returned.
func RunConcurrently[I, O any](
	ctx context.Context,
	tracer driven.Tracer,
	name string,
	task Task[I, O],
	inputs []I,
	concurrency int,
) ([]O, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	outputs := make([]O, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range inputs {
		g.Go(func() error {
			out, err := Run(ctx, tracer, name, task, inputs[i])
			if err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
			outputs[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// noopSpan is used when no tracer is configured.
type noopSpan struct{}

func (noopSpan) Log(string, any)   {}
func (noopSpan) RecordError(error) {}
func (noopSpan) RecordOutput(any)  {}
func (noopSpan) End()              {}
