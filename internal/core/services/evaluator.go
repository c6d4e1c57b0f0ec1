package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
	"github.com/custodia-labs/intelligence-layer/internal/logger"
)

// SuccessfulExampleOutput is a decoded task output of one run for one example.
type SuccessfulExampleOutput[O any] struct {
	RunID     string
	ExampleID string
	Output    O
}

// EvaluationLogic grades the outputs of one or more runs for a single example.
// Outputs are passed in the order of the evaluated run IDs.
type EvaluationLogic[I, O, E, R any] interface {
	DoEvaluate(example domain.Example[I, E], outputs ...SuccessfulExampleOutput[O]) (R, error)
}

// Evaluator evaluates stored runs with an EvaluationLogic.
type Evaluator struct {
	datasets    driven.DatasetRepository
	runs        driven.RunRepository
	evaluations driven.EvaluationRepository
	metrics     driven.MetricsRecorder
	concurrency int
}

// NewEvaluator creates an evaluator.
func NewEvaluator(
	datasets driven.DatasetRepository,
	runs driven.RunRepository,
	evaluations driven.EvaluationRepository,
) *Evaluator {
	return &Evaluator{
		datasets:    datasets,
		runs:        runs,
		evaluations: evaluations,
		concurrency: DefaultConcurrency,
	}
}

// SetMetrics sets the recorder that observes every example evaluation.
func (e *Evaluator) SetMetrics(metrics driven.MetricsRecorder) {
	e.metrics = metrics
}

// evaluationInput pairs an example with the outputs of all evaluated runs.
// When one of the runs has no successful output, skipReason explains why.
type evaluationInput[I, O, E any] struct {
	example    domain.Example[I, E]
	outputs    []SuccessfulExampleOutput[O]
	skipReason string
}

// loadEvaluationInputs gathers every example of the runs' dataset together
// with the matching outputs. All runs must belong to the same dataset.
func loadEvaluationInputs[I, O, E any](
	ctx context.Context,
	datasets driven.DatasetRepository,
	runs driven.RunRepository,
	runIDs []string,
) ([]evaluationInput[I, O, E], error) {
	if len(runIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one run ID is required", domain.ErrInvalidInput)
	}

	var datasetID string
	outputsByRun := make([]map[string]domain.ExampleOutput, len(runIDs))
	for i, runID := range runIDs {
		overview, err := runs.RunOverview(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("load run %s: %w", runID, err)
		}
		if overview == nil {
			return nil, fmt.Errorf("run %s: %w", runID, domain.ErrNotFound)
		}
		if datasetID == "" {
			datasetID = overview.DatasetID
		} else if overview.DatasetID != datasetID {
			return nil, fmt.Errorf("%w: runs belong to different datasets (%s, %s)",
				domain.ErrInvalidInput, datasetID, overview.DatasetID)
		}

		outputs, err := runs.ExampleOutputs(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("load outputs of run %s: %w", runID, err)
		}
		outputsByRun[i] = make(map[string]domain.ExampleOutput, len(outputs))
		for _, out := range outputs {
			outputsByRun[i][out.ExampleID] = out
		}
	}

	stored, err := datasets.Examples(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("load examples of dataset %s: %w", datasetID, err)
	}

	inputs := make([]evaluationInput[I, O, E], 0, len(stored))
	for _, s := range stored {
		example, err := domain.DecodeExample[I, E](s)
		if err != nil {
			return nil, err
		}
		in := evaluationInput[I, O, E]{example: example}
		for i, runID := range runIDs {
			out, ok := outputsByRun[i][example.ID]
			if !ok {
				in.skipReason = fmt.Sprintf("run %s has no output for example %s", runID, example.ID)
				break
			}
			if out.Failed() {
				in.skipReason = fmt.Sprintf("run %s failed for example %s: %s", runID, example.ID, out.Error)
				break
			}
			var decoded O
			if err := json.Unmarshal(out.Output, &decoded); err != nil {
				return nil, fmt.Errorf("decode output of run %s for example %s: %w", runID, example.ID, err)
			}
			in.outputs = append(in.outputs, SuccessfulExampleOutput[O]{
				RunID:     runID,
				ExampleID: example.ID,
				Output:    decoded,
			})
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// Evaluate grades every example of the given runs and stores the results.
// Examples for which a run failed are stored as failed evaluations.
func Evaluate[I, O, E, R any](
	ctx context.Context,
	e *Evaluator,
	logic EvaluationLogic[I, O, E, R],
	description string,
	runIDs ...string,
) (*domain.EvaluationOverview, error) {
	logger.Section("Evaluation")

	inputs, err := loadEvaluationInputs[I, O, E](ctx, e.datasets, e.runs, runIDs)
	if err != nil {
		return nil, err
	}

	overview := domain.EvaluationOverview{
		ID:             uuid.NewString(),
		RunOverviewIDs: runIDs,
		StartDate:      time.Now().UTC(),
		Description:    description,
	}
	logger.Debug("Evaluation ID: %s, runs: %v, examples: %d", overview.ID, runIDs, len(inputs))

	var succeeded, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, in := range inputs {
		g.Go(func() error {
			evaluation := domain.ExampleEvaluation{EvaluationID: overview.ID, ExampleID: in.example.ID}
			if in.skipReason != "" {
				evaluation.Error = in.skipReason
			} else if result, err := logic.DoEvaluate(in.example, in.outputs...); err != nil {
				evaluation.Error = err.Error()
			} else if evaluation, err = domain.NewExampleEvaluation(overview.ID, in.example.ID, result); err != nil {
				return err
			}

			if evaluation.Failed() {
				logger.Warn("Evaluation of example %s failed: %s", in.example.ID, evaluation.Error)
				failed.Add(1)
			} else {
				succeeded.Add(1)
			}
			if e.metrics != nil {
				e.metrics.ObserveExampleEvaluation(evaluation.Failed())
			}
			return e.evaluations.StoreExampleEvaluation(gctx, evaluation)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	overview.EndDate = time.Now().UTC()
	overview.SuccessfulEvaluationCount = int(succeeded.Load())
	overview.FailedEvaluationCount = int(failed.Load())
	if err := e.evaluations.StoreEvaluationOverview(ctx, overview); err != nil {
		return nil, fmt.Errorf("store evaluation overview: %w", err)
	}

	logger.Info("Evaluation %s finished: %d successful, %d failed",
		overview.ID, overview.SuccessfulEvaluationCount, overview.FailedEvaluationCount)
	return &overview, nil
}
