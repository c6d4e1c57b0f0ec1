package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
	"github.com/custodia-labs/intelligence-layer/internal/logger"
)

// ArgillaRecordReader turns a submitted human rating into an evaluation result.
type ArgillaRecordReader[R any] interface {
	FromRecord(evaluation domain.ArgillaEvaluation) (R, error)
}

// ArgillaEvaluationLogic describes how runs are presented to human raters
// and how their ratings are read back.
type ArgillaEvaluationLogic[I, O, E, R any] interface {
	ArgillaRecordReader[R]

	// Fields are the record fields shown to raters.
	Fields() []domain.Field

	// Questions are the rating questions asked for every record.
	Questions() []domain.Question

	// ToRecord builds the record for one example. The example ID is set
	// by the evaluator.
	ToRecord(example domain.Example[I, E], outputs ...SuccessfulExampleOutput[O]) (domain.RecordData, error)
}

// ArgillaEvaluator hands runs to Argilla for human rating and collects
// the ratings once they are submitted.
type ArgillaEvaluator struct {
	datasets    driven.DatasetRepository
	runs        driven.RunRepository
	evaluations driven.AsyncEvaluationRepository
	client      driven.ArgillaClient
	workspace   string
	metrics     driven.MetricsRecorder

	workspaceMu sync.Mutex
	workspaceID string
}

// NewArgillaEvaluator creates an evaluator that places its datasets in the
// named workspace. The workspace is created on the first submission, so
// constructing an evaluator never talks to Argilla.
func NewArgillaEvaluator(
	datasets driven.DatasetRepository,
	runs driven.RunRepository,
	evaluations driven.AsyncEvaluationRepository,
	client driven.ArgillaClient,
	workspace string,
) *ArgillaEvaluator {
	return &ArgillaEvaluator{
		datasets:    datasets,
		runs:        runs,
		evaluations: evaluations,
		client:      client,
		workspace:   workspace,
	}
}

// resolveWorkspace resolves the workspace ID once it is needed. A failed
// lookup is retried by the next caller.
func (a *ArgillaEvaluator) resolveWorkspace(ctx context.Context) (string, error) {
	a.workspaceMu.Lock()
	defer a.workspaceMu.Unlock()

	if a.workspaceID != "" {
		return a.workspaceID, nil
	}
	id, err := a.client.EnsureWorkspaceExists(ctx, a.workspace)
	if err != nil {
		return "", fmt.Errorf("ensure argilla workspace %s: %w", a.workspace, err)
	}
	a.workspaceID = id
	return id, nil
}

// SetMetrics sets the recorder that observes every retrieved evaluation.
func (a *ArgillaEvaluator) SetMetrics(metrics driven.MetricsRecorder) {
	a.metrics = metrics
}

// Client returns the Argilla client.
func (a *ArgillaEvaluator) Client() driven.ArgillaClient {
	return a.client
}

// SubmitToArgilla creates an Argilla dataset named after a new evaluation ID
// and adds one record per example. Examples for which a run failed are stored
// as failed evaluations right away and are not submitted.
func SubmitToArgilla[I, O, E, R any](
	ctx context.Context,
	a *ArgillaEvaluator,
	logic ArgillaEvaluationLogic[I, O, E, R],
	description string,
	runIDs ...string,
) (*domain.PartialEvaluationOverview, error) {
	logger.Section("Argilla Submission")

	inputs, err := loadEvaluationInputs[I, O, E](ctx, a.datasets, a.runs, runIDs)
	if err != nil {
		return nil, err
	}

	partial := domain.PartialEvaluationOverview{
		ID:             uuid.NewString(),
		RunOverviewIDs: runIDs,
		StartDate:      time.Now().UTC(),
		Description:    description,
	}

	workspaceID, err := a.resolveWorkspace(ctx)
	if err != nil {
		return nil, err
	}
	datasetID, err := a.client.EnsureDatasetExists(ctx, workspaceID, partial.ID, logic.Fields(), logic.Questions())
	if err != nil {
		return nil, fmt.Errorf("create argilla dataset: %w", err)
	}
	partial.ArgillaDatasetID = datasetID
	logger.Debug("Evaluation ID: %s, argilla dataset: %s", partial.ID, datasetID)

	// Stored first so that failed examples below have an evaluation to belong to.
	if err := a.evaluations.StorePartialEvaluationOverview(ctx, partial); err != nil {
		return nil, fmt.Errorf("store partial evaluation overview: %w", err)
	}

	for _, in := range inputs {
		if in.skipReason != "" {
			logger.Warn("Skipping example %s: %s", in.example.ID, in.skipReason)
			failed := domain.ExampleEvaluation{
				EvaluationID: partial.ID,
				ExampleID:    in.example.ID,
				Error:        in.skipReason,
			}
			if err := a.evaluations.StoreExampleEvaluation(ctx, failed); err != nil {
				return nil, err
			}
			continue
		}

		record, err := logic.ToRecord(in.example, in.outputs...)
		if err != nil {
			return nil, fmt.Errorf("build record for example %s: %w", in.example.ID, err)
		}
		record.ExampleID = in.example.ID
		if err := a.client.AddRecord(ctx, datasetID, record); err != nil {
			return nil, fmt.Errorf("add record for example %s: %w", in.example.ID, err)
		}
		partial.SubmittedEvaluationCount++
	}

	if err := a.evaluations.StorePartialEvaluationOverview(ctx, partial); err != nil {
		return nil, fmt.Errorf("store partial evaluation overview: %w", err)
	}

	logger.Info("Submitted %d records to argilla dataset %s", partial.SubmittedEvaluationCount, datasetID)
	return &partial, nil
}

// RetrieveFromArgilla reads the submitted ratings of a partial evaluation,
// stores one evaluation per rated example and returns the resulting overview.
// Retrieving again only adds ratings that were not stored before.
func RetrieveFromArgilla[R any](
	ctx context.Context,
	a *ArgillaEvaluator,
	reader ArgillaRecordReader[R],
	partialID string,
) (*domain.EvaluationOverview, error) {
	logger.Section("Argilla Retrieval")

	partial, err := a.evaluations.PartialEvaluationOverview(ctx, partialID)
	if err != nil {
		return nil, err
	}
	if partial == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrEvaluationNotFound, partialID)
	}

	rated, err := a.client.Evaluations(ctx, partial.ArgillaDatasetID)
	if err != nil {
		return nil, fmt.Errorf("load argilla evaluations: %w", err)
	}
	logger.Debug("Argilla dataset %s has %d submitted ratings", partial.ArgillaDatasetID, len(rated))

	for _, rating := range rated {
		existing, err := a.evaluations.ExampleEvaluation(ctx, partialID, rating.ExampleID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue
		}

		evaluation := domain.ExampleEvaluation{EvaluationID: partialID, ExampleID: rating.ExampleID}
		if result, err := reader.FromRecord(rating); err != nil {
			evaluation.Error = err.Error()
		} else if evaluation, err = domain.NewExampleEvaluation(partialID, rating.ExampleID, result); err != nil {
			return nil, err
		}
		if a.metrics != nil {
			a.metrics.ObserveExampleEvaluation(evaluation.Failed())
		}
		if err := a.evaluations.StoreExampleEvaluation(ctx, evaluation); err != nil {
			return nil, err
		}
	}

	evaluations, err := a.evaluations.ExampleEvaluations(ctx, partialID)
	if err != nil {
		return nil, err
	}
	overview := domain.EvaluationOverview{
		ID:             partial.ID,
		RunOverviewIDs: partial.RunOverviewIDs,
		StartDate:      partial.StartDate,
		EndDate:        time.Now().UTC(),
		Description:    partial.Description,
	}
	for _, evaluation := range evaluations {
		if evaluation.Failed() {
			overview.FailedEvaluationCount++
		} else {
			overview.SuccessfulEvaluationCount++
		}
	}
	if err := a.evaluations.StoreEvaluationOverview(ctx, overview); err != nil {
		return nil, fmt.Errorf("store evaluation overview: %w", err)
	}

	logger.Info("Evaluation %s: %d of %d submitted records rated, %d failed",
		overview.ID, overview.SuccessfulEvaluationCount, partial.SubmittedEvaluationCount,
		overview.FailedEvaluationCount)
	return &overview, nil
}

// SplitArgillaDataset assigns the records of a partial evaluation's Argilla
// dataset to nSplits splits so that several raters can share the work.
func SplitArgillaDataset(ctx context.Context, a *ArgillaEvaluator, partialID string, nSplits int) error {
	if nSplits < 1 {
		return fmt.Errorf("%w: number of splits must be positive", domain.ErrInvalidInput)
	}
	partial, err := a.evaluations.PartialEvaluationOverview(ctx, partialID)
	if err != nil {
		return err
	}
	if partial == nil {
		return fmt.Errorf("%w: %s", domain.ErrEvaluationNotFound, partialID)
	}
	return a.client.SplitDataset(ctx, partial.ArgillaDatasetID, nSplits)
}
