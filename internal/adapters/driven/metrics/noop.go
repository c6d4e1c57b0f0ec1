package metrics

import (
	"time"

	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
)

var _ driven.MetricsRecorder = NoOpRecorder{}

// NoOpRecorder discards all measurements.
type NoOpRecorder struct{}

func (NoOpRecorder) ObserveTaskRun(string, time.Duration, error)      {}
func (NoOpRecorder) ObserveModelRequest(string, time.Duration, error) {}
func (NoOpRecorder) ObserveExampleEvaluation(bool)                    {}
