package tracing

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
)

// Ensure InMemoryTracer implements the interface.
var _ driven.Tracer = (*InMemoryTracer)(nil)

// LogEntry is a value logged on a span.
type LogEntry struct {
	Message   string
	Value     any
	Timestamp time.Time
}

// SpanRecord is a finished or running span with its children.
// Input and Output are only set for task spans.
type SpanRecord struct {
	Name      string
	StartTime time.Time
	EndTime   time.Time
	IsTask    bool
	Input     any
	Output    any
	Error     string
	Entries   []LogEntry
	Children  []*SpanRecord
}

// Ended reports whether End was called.
func (s *SpanRecord) Ended() bool {
	return !s.EndTime.IsZero()
}

// InMemoryTracer keeps every span in memory. It is safe for concurrent use;
// read Roots only after the traced work has finished.
type InMemoryTracer struct {
	mu    sync.Mutex
	roots []*SpanRecord
	now   func() time.Time
}

// NewInMemoryTracer creates an empty in-memory tracer.
func NewInMemoryTracer() *InMemoryTracer {
	return &InMemoryTracer{now: time.Now}
}

type spanKey struct{}

// Span opens a span below the span carried by ctx, or a new root.
func (t *InMemoryTracer) Span(ctx context.Context, name string) (context.Context, driven.Span) {
	span := t.open(ctx, name, false, nil)
	return context.WithValue(ctx, spanKey{}, span.record), span
}

// TaskSpan opens a task span and records its input.
func (t *InMemoryTracer) TaskSpan(ctx context.Context, taskName string, input any) (context.Context, driven.TaskSpan) {
	span := t.open(ctx, taskName, true, input)
	return context.WithValue(ctx, spanKey{}, span.record), span
}

// Roots returns the top-level spans in the order they were opened.
func (t *InMemoryTracer) Roots() []*SpanRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	roots := make([]*SpanRecord, len(t.roots))
	copy(roots, t.roots)
	return roots
}

// Reset discards all recorded spans.
func (t *InMemoryTracer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.roots = nil
}

func (t *InMemoryTracer) open(ctx context.Context, name string, isTask bool, input any) *memorySpan {
	record := &SpanRecord{Name: name, StartTime: t.now(), IsTask: isTask, Input: input}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Spans from another tracer's context are not ours; start a new root.
	if parent, ok := ctx.Value(spanKey{}).(*SpanRecord); ok && t.owns(parent) {
		parent.Children = append(parent.Children, record)
	} else {
		t.roots = append(t.roots, record)
	}
	return &memorySpan{tracer: t, record: record}
}

// owns reports whether record belongs to this tracer (caller must hold lock).
func (t *InMemoryTracer) owns(record *SpanRecord) bool {
	var walk func(spans []*SpanRecord) bool
	walk = func(spans []*SpanRecord) bool {
		for _, s := range spans {
			if s == record || walk(s.Children) {
				return true
			}
		}
		return false
	}
	return walk(t.roots)
}

type memorySpan struct {
	tracer *InMemoryTracer
	record *SpanRecord
}

func (s *memorySpan) Log(message string, value any) {
	s.tracer.mu.Lock()
	defer s.tracer.mu.Unlock()
	s.record.Entries = append(s.record.Entries, LogEntry{
		Message:   message,
		Value:     value,
		Timestamp: s.tracer.now(),
	})
}

func (s *memorySpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.tracer.mu.Lock()
	defer s.tracer.mu.Unlock()
	s.record.Error = err.Error()
}

func (s *memorySpan) RecordOutput(output any) {
	s.tracer.mu.Lock()
	defer s.tracer.mu.Unlock()
	s.record.Output = output
}

func (s *memorySpan) End() {
	s.tracer.mu.Lock()
	defer s.tracer.mu.Unlock()
	if s.record.EndTime.IsZero() {
		s.record.EndTime = s.tracer.now()
	}
}
