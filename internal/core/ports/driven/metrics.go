package driven

import "time"

// MetricsRecorder receives operational measurements.
type MetricsRecorder interface {
	// ObserveTaskRun records a finished task run.
	ObserveTaskRun(task string, duration time.Duration, err error)

	// ObserveModelRequest records a request to the model API.
	ObserveModelRequest(operation string, duration time.Duration, err error)

	// ObserveExampleEvaluation records the outcome of evaluating one example.
	ObserveExampleEvaluation(failed bool)
}
