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

// Runner executes tasks over every example of a dataset and stores the outputs.
type Runner struct {
	datasets    driven.DatasetRepository
	runs        driven.RunRepository
	tracer      driven.Tracer
	metrics     driven.MetricsRecorder
	concurrency int
}

// NewRunner creates a runner. The tracer may be nil.
func NewRunner(datasets driven.DatasetRepository, runs driven.RunRepository, tracer driven.Tracer) *Runner {
	return &Runner{
		datasets:    datasets,
		runs:        runs,
		tracer:      tracer,
		concurrency: DefaultConcurrency,
	}
}

// SetMetrics sets the recorder that observes every task run.
func (r *Runner) SetMetrics(metrics driven.MetricsRecorder) {
	r.metrics = metrics
}

// SetConcurrency sets how many examples run at once.
func (r *Runner) SetConcurrency(n int) {
	if n > 0 {
		r.concurrency = n
	}
}

// RunDataset runs task on the input of every example in the dataset.
// A failing example is stored with its error and does not stop the run;
// only repository errors abort it.
func RunDataset[I, O any](
	ctx context.Context,
	r *Runner,
	name string,
	task Task[I, O],
	datasetID string,
	description string,
) (*domain.RunOverview, error) {
	logger.Section("Run")
	logger.Debug("Task: %s, dataset: %s", name, datasetID)

	examples, err := r.datasets.Examples(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("load examples of dataset %s: %w", datasetID, err)
	}

	overview := domain.RunOverview{
		ID:          uuid.NewString(),
		DatasetID:   datasetID,
		StartDate:   time.Now().UTC(),
		Description: description,
	}
	logger.Debug("Run ID: %s, examples: %d, concurrency: %d", overview.ID, len(examples), r.concurrency)

	var succeeded, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, example := range examples {
		g.Go(func() error {
			var input I
			if err := json.Unmarshal(example.Input, &input); err != nil {
				return fmt.Errorf("decode input of example %s: %w", example.ID, err)
			}

			began := time.Now()
			output, runErr := Run(gctx, r.tracer, name, task, input)
			if r.metrics != nil {
				r.metrics.ObserveTaskRun(name, time.Since(began), runErr)
			}

			record := domain.ExampleOutput{RunID: overview.ID, ExampleID: example.ID}
			if runErr != nil {
				logger.Warn("Example %s failed: %v", example.ID, runErr)
				record.Error = runErr.Error()
				failed.Add(1)
			} else {
				raw, err := json.Marshal(output)
				if err != nil {
					return fmt.Errorf("encode output of example %s: %w", example.ID, err)
				}
				record.Output = raw
				succeeded.Add(1)
			}
			return r.runs.StoreExampleOutput(gctx, record)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	overview.EndDate = time.Now().UTC()
	overview.SuccessfulExampleCount = int(succeeded.Load())
	overview.FailedExampleCount = int(failed.Load())
	if err := r.runs.StoreRunOverview(ctx, overview); err != nil {
		return nil, fmt.Errorf("store run overview: %w", err)
	}

	logger.Info("Run %s finished: %d successful, %d failed",
		overview.ID, overview.SuccessfulExampleCount, overview.FailedExampleCount)
	return &overview, nil
}
