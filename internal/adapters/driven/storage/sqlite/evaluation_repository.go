package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
)

// evaluationRepository implements driven.AsyncEvaluationRepository.
type evaluationRepository struct {
	store *Store
}

var _ driven.AsyncEvaluationRepository = (*evaluationRepository)(nil)

// StoreEvaluationOverview stores or replaces an overview and makes sure an
// example evaluation list exists for it.
func (r *evaluationRepository) StoreEvaluationOverview(ctx context.Context, overview domain.EvaluationOverview) error {
	runIDs, err := json.Marshal(nonNil(overview.RunOverviewIDs))
	if err != nil {
		return fmt.Errorf("marshalling run ids: %w", err)
	}

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO evaluation_overviews (id, run_ids, start_date, end_date, successful_count, failed_count, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			run_ids = excluded.run_ids,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			successful_count = excluded.successful_count,
			failed_count = excluded.failed_count,
			description = excluded.description
	`, overview.ID, string(runIDs), formatTime(overview.StartDate), formatTime(overview.EndDate),
		overview.SuccessfulEvaluationCount, overview.FailedEvaluationCount, overview.Description)
	if err != nil {
		return fmt.Errorf("saving evaluation overview: %w", err)
	}
	if err := ensureEvaluation(ctx, tx, overview.ID); err != nil {
		return err
	}
	return tx.Commit()
}

// EvaluationOverview returns the overview or nil when it does not exist.
func (r *evaluationRepository) EvaluationOverview(ctx context.Context, id string) (*domain.EvaluationOverview, error) {
	var (
		overview           domain.EvaluationOverview
		runIDs, start, end string
	)
	err := r.store.db.QueryRowContext(ctx, `
		SELECT id, run_ids, start_date, end_date, successful_count, failed_count, description
		FROM evaluation_overviews WHERE id = ?
	`, id).Scan(&overview.ID, &runIDs, &start, &end,
		&overview.SuccessfulEvaluationCount, &overview.FailedEvaluationCount, &overview.Description)
	found, err := noRows(err)
	if err != nil {
		return nil, fmt.Errorf("querying evaluation overview: %w", err)
	}
	if !found {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(runIDs), &overview.RunOverviewIDs); err != nil {
		return nil, fmt.Errorf("unmarshalling run ids: %w", err)
	}
	if overview.StartDate, err = parseTime(start); err != nil {
		return nil, err
	}
	if overview.EndDate, err = parseTime(end); err != nil {
		return nil, err
	}
	return &overview, nil
}

// EvaluationOverviewIDs returns all evaluation IDs, sorted.
func (r *evaluationRepository) EvaluationOverviewIDs(ctx context.Context) ([]string, error) {
	return queryIDs(ctx, r.store, "SELECT id FROM evaluation_overviews ORDER BY id")
}

// StoreExampleEvaluation appends an example evaluation.
func (r *evaluationRepository) StoreExampleEvaluation(ctx context.Context, evaluation domain.ExampleEvaluation) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := ensureEvaluation(ctx, tx, evaluation.EvaluationID); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO example_evaluations (evaluation_id, example_id, result, error)
		VALUES (?, ?, ?, ?)
	`, evaluation.EvaluationID, evaluation.ExampleID, nullJSON(evaluation.Result), nullString(evaluation.Error))
	if err != nil {
		return fmt.Errorf("saving example evaluation: %w", err)
	}
	return tx.Commit()
}

// ExampleEvaluation returns the first evaluation of an example, or nil when
// the example was not evaluated. An unknown ID is ErrEvaluationNotFound.
func (r *evaluationRepository) ExampleEvaluation(
	ctx context.Context, evaluationID, exampleID string,
) (*domain.ExampleEvaluation, error) {
	var result, errText sql.NullString
	err := r.store.db.QueryRowContext(ctx, `
		SELECT result, error FROM example_evaluations
		WHERE evaluation_id = ? AND example_id = ?
		ORDER BY seq LIMIT 1
	`, evaluationID, exampleID).Scan(&result, &errText)
	found, err := noRows(err)
	if err != nil {
		return nil, fmt.Errorf("querying example evaluation: %w", err)
	}
	if !found {
		if err := r.requireEvaluation(ctx, evaluationID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	evaluation := &domain.ExampleEvaluation{EvaluationID: evaluationID, ExampleID: exampleID, Error: errText.String}
	if result.Valid {
		evaluation.Result = json.RawMessage(result.String)
	}
	return evaluation, nil
}

// ExampleEvaluations returns the evaluations of an evaluation sorted by
// example ID. An unknown ID is ErrEvaluationNotFound.
func (r *evaluationRepository) ExampleEvaluations(
	ctx context.Context, evaluationID string,
) ([]domain.ExampleEvaluation, error) {
	if err := r.requireEvaluation(ctx, evaluationID); err != nil {
		return nil, err
	}

	rows, err := r.store.db.QueryContext(ctx, `
		SELECT example_id, result, error FROM example_evaluations
		WHERE evaluation_id = ? ORDER BY example_id, seq
	`, evaluationID)
	if err != nil {
		return nil, fmt.Errorf("querying example evaluations: %w", err)
	}
	defer rows.Close()

	evaluations := []domain.ExampleEvaluation{}
	for rows.Next() {
		evaluation := domain.ExampleEvaluation{EvaluationID: evaluationID}
		var result, errText sql.NullString
		if err := rows.Scan(&evaluation.ExampleID, &result, &errText); err != nil {
			return nil, fmt.Errorf("scanning example evaluation: %w", err)
		}
		if result.Valid {
			evaluation.Result = json.RawMessage(result.String)
		}
		evaluation.Error = errText.String
		evaluations = append(evaluations, evaluation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating example evaluations: %w", err)
	}
	return evaluations, nil
}

// requireEvaluation is ErrEvaluationNotFound unless an overview or partial
// overview registered the ID.
func (r *evaluationRepository) requireEvaluation(ctx context.Context, evaluationID string) error {
	var exists bool
	err := r.store.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM evaluations WHERE id = ?)", evaluationID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking evaluation: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrEvaluationNotFound, evaluationID)
	}
	return nil
}

// StorePartialEvaluationOverview stores or replaces a partial overview and
// makes sure an example evaluation list exists for it.
func (r *evaluationRepository) StorePartialEvaluationOverview(
	ctx context.Context, overview domain.PartialEvaluationOverview,
) error {
	runIDs, err := json.Marshal(nonNil(overview.RunOverviewIDs))
	if err != nil {
		return fmt.Errorf("marshalling run ids: %w", err)
	}

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO partial_evaluation_overviews
			(id, run_ids, start_date, submitted_count, description, argilla_dataset_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			run_ids = excluded.run_ids,
			start_date = excluded.start_date,
			submitted_count = excluded.submitted_count,
			description = excluded.description,
			argilla_dataset_id = excluded.argilla_dataset_id
	`, overview.ID, string(runIDs), formatTime(overview.StartDate), overview.SubmittedEvaluationCount,
		overview.Description, overview.ArgillaDatasetID)
	if err != nil {
		return fmt.Errorf("saving partial evaluation overview: %w", err)
	}
	if err := ensureEvaluation(ctx, tx, overview.ID); err != nil {
		return err
	}
	return tx.Commit()
}

// PartialEvaluationOverview returns the partial overview or nil.
func (r *evaluationRepository) PartialEvaluationOverview(
	ctx context.Context, id string,
) (*domain.PartialEvaluationOverview, error) {
	var (
		overview      domain.PartialEvaluationOverview
		runIDs, start string
	)
	err := r.store.db.QueryRowContext(ctx, `
		SELECT id, run_ids, start_date, submitted_count, description, argilla_dataset_id
		FROM partial_evaluation_overviews WHERE id = ?
	`, id).Scan(&overview.ID, &runIDs, &start, &overview.SubmittedEvaluationCount,
		&overview.Description, &overview.ArgillaDatasetID)
	found, err := noRows(err)
	if err != nil {
		return nil, fmt.Errorf("querying partial evaluation overview: %w", err)
	}
	if !found {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(runIDs), &overview.RunOverviewIDs); err != nil {
		return nil, fmt.Errorf("unmarshalling run ids: %w", err)
	}
	if overview.StartDate, err = parseTime(start); err != nil {
		return nil, err
	}
	return &overview, nil
}

// PartialEvaluationOverviewIDs returns all partial evaluation IDs, sorted.
func (r *evaluationRepository) PartialEvaluationOverviewIDs(ctx context.Context) ([]string, error) {
	return queryIDs(ctx, r.store, "SELECT id FROM partial_evaluation_overviews ORDER BY id")
}

func ensureEvaluation(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO evaluations (id) VALUES (?)", id); err != nil {
		return fmt.Errorf("registering evaluation: %w", err)
	}
	return nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
