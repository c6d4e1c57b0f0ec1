package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
)

// runRepository implements driven.RunRepository.
type runRepository struct {
	store *Store
}

var _ driven.RunRepository = (*runRepository)(nil)

// StoreRunOverview stores or replaces a run overview.
func (r *runRepository) StoreRunOverview(ctx context.Context, overview domain.RunOverview) error {
	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO run_overviews (id, dataset_id, start_date, end_date, successful_count, failed_count, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			dataset_id = excluded.dataset_id,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			successful_count = excluded.successful_count,
			failed_count = excluded.failed_count,
			description = excluded.description
	`, overview.ID, overview.DatasetID, formatTime(overview.StartDate), formatTime(overview.EndDate),
		overview.SuccessfulExampleCount, overview.FailedExampleCount, overview.Description)
	if err != nil {
		return fmt.Errorf("saving run overview: %w", err)
	}
	return nil
}

// RunOverview returns the overview or nil when it does not exist.
func (r *runRepository) RunOverview(ctx context.Context, id string) (*domain.RunOverview, error) {
	var (
		overview   domain.RunOverview
		start, end string
	)
	err := r.store.db.QueryRowContext(ctx, `
		SELECT id, dataset_id, start_date, end_date, successful_count, failed_count, description
		FROM run_overviews WHERE id = ?
	`, id).Scan(&overview.ID, &overview.DatasetID, &start, &end,
		&overview.SuccessfulExampleCount, &overview.FailedExampleCount, &overview.Description)
	found, err := noRows(err)
	if err != nil {
		return nil, fmt.Errorf("querying run overview: %w", err)
	}
	if !found {
		return nil, nil
	}
	if overview.StartDate, err = parseTime(start); err != nil {
		return nil, err
	}
	if overview.EndDate, err = parseTime(end); err != nil {
		return nil, err
	}
	return &overview, nil
}

// RunOverviewIDs returns all run IDs, sorted.
func (r *runRepository) RunOverviewIDs(ctx context.Context) ([]string, error) {
	return queryIDs(ctx, r.store, "SELECT id FROM run_overviews ORDER BY id")
}

// StoreExampleOutput stores or replaces the output of one example.
func (r *runRepository) StoreExampleOutput(ctx context.Context, output domain.ExampleOutput) error {
	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO example_outputs (run_id, example_id, output, error)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, example_id) DO UPDATE SET
			output = excluded.output,
			error = excluded.error
	`, output.RunID, output.ExampleID, nullJSON(output.Output), nullString(output.Error))
	if err != nil {
		return fmt.Errorf("saving example output: %w", err)
	}
	return nil
}

// ExampleOutputs returns the outputs of a run sorted by example ID.
// A run is known once its overview or any of its outputs is stored.
func (r *runRepository) ExampleOutputs(ctx context.Context, runID string) ([]domain.ExampleOutput, error) {
	var exists bool
	err := r.store.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM run_overviews WHERE id = ?)
			OR EXISTS(SELECT 1 FROM example_outputs WHERE run_id = ?)
	`, runID, runID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking run: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("run %s: %w", runID, domain.ErrNotFound)
	}

	rows, err := r.store.db.QueryContext(ctx, `
		SELECT example_id, output, error FROM example_outputs
		WHERE run_id = ? ORDER BY example_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying example outputs: %w", err)
	}
	defer rows.Close()

	outputs := []domain.ExampleOutput{}
	for rows.Next() {
		output := domain.ExampleOutput{RunID: runID}
		var raw, errText sql.NullString
		if err := rows.Scan(&output.ExampleID, &raw, &errText); err != nil {
			return nil, fmt.Errorf("scanning example output: %w", err)
		}
		if raw.Valid {
			output.Output = json.RawMessage(raw.String)
		}
		output.Error = errText.String
		outputs = append(outputs, output)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating example outputs: %w", err)
	}
	return outputs, nil
}

// ExampleOutput returns one output or nil when it does not exist.
func (r *runRepository) ExampleOutput(ctx context.Context, runID, exampleID string) (*domain.ExampleOutput, error) {
	var raw, errText sql.NullString
	err := r.store.db.QueryRowContext(ctx, `
		SELECT output, error FROM example_outputs WHERE run_id = ? AND example_id = ?
	`, runID, exampleID).Scan(&raw, &errText)
	found, err := noRows(err)
	if err != nil {
		return nil, fmt.Errorf("querying example output: %w", err)
	}
	if !found {
		return nil, nil
	}
	output := &domain.ExampleOutput{RunID: runID, ExampleID: exampleID, Error: errText.String}
	if raw.Valid {
		output.Output = json.RawMessage(raw.String)
	}
	return output, nil
}
