package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
)

// datasetRepository implements driven.DatasetRepository.
type datasetRepository struct {
	store *Store
}

var _ driven.DatasetRepository = (*datasetRepository)(nil)

// CreateDataset stores a dataset with its examples in one transaction.
func (r *datasetRepository) CreateDataset(
	ctx context.Context, dataset domain.Dataset, examples []domain.StoredExample,
) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx,
		"INSERT INTO datasets (id, name, created_at) VALUES (?, ?, ?)",
		dataset.ID, dataset.Name, formatTime(time.Now()))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("dataset %s: %w", dataset.ID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("inserting dataset: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO examples (dataset_id, id, input, expected_output) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing example insert: %w", err)
	}
	defer stmt.Close()

	for _, example := range examples {
		if _, err := stmt.ExecContext(ctx, dataset.ID, example.ID,
			jsonText(example.Input), jsonText(example.ExpectedOutput)); err != nil {
			return fmt.Errorf("inserting example %s: %w", example.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing dataset: %w", err)
	}
	return nil
}

// Dataset returns the dataset or nil when it does not exist.
func (r *datasetRepository) Dataset(ctx context.Context, id string) (*domain.Dataset, error) {
	var dataset domain.Dataset
	err := r.store.db.QueryRowContext(ctx,
		"SELECT id, name FROM datasets WHERE id = ?", id).Scan(&dataset.ID, &dataset.Name)
	found, err := noRows(err)
	if err != nil {
		return nil, fmt.Errorf("querying dataset: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &dataset, nil
}

// DatasetIDs returns all dataset IDs, sorted.
func (r *datasetRepository) DatasetIDs(ctx context.Context) ([]string, error) {
	return queryIDs(ctx, r.store, "SELECT id FROM datasets ORDER BY id")
}

// Examples returns the examples of a dataset sorted by ID.
func (r *datasetRepository) Examples(ctx context.Context, datasetID string) ([]domain.StoredExample, error) {
	exists, err := r.exists(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("dataset %s: %w", datasetID, domain.ErrNotFound)
	}

	rows, err := r.store.db.QueryContext(ctx, `
		SELECT id, input, expected_output FROM examples
		WHERE dataset_id = ? ORDER BY id
	`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("querying examples: %w", err)
	}
	defer rows.Close()

	examples := []domain.StoredExample{}
	for rows.Next() {
		var (
			example         domain.StoredExample
			input, expected string
		)
		if err := rows.Scan(&example.ID, &input, &expected); err != nil {
			return nil, fmt.Errorf("scanning example: %w", err)
		}
		example.Input = json.RawMessage(input)
		example.ExpectedOutput = json.RawMessage(expected)
		examples = append(examples, example)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating examples: %w", err)
	}
	return examples, nil
}

// Example returns one example or nil when either ID is unknown.
func (r *datasetRepository) Example(
	ctx context.Context, datasetID, exampleID string,
) (*domain.StoredExample, error) {
	var input, expected string
	err := r.store.db.QueryRowContext(ctx, `
		SELECT input, expected_output FROM examples WHERE dataset_id = ? AND id = ?
	`, datasetID, exampleID).Scan(&input, &expected)
	found, err := noRows(err)
	if err != nil {
		return nil, fmt.Errorf("querying example: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &domain.StoredExample{
		ID:             exampleID,
		Input:          json.RawMessage(input),
		ExpectedOutput: json.RawMessage(expected),
	}, nil
}

// DeleteDataset removes a dataset; its examples are removed by cascade.
func (r *datasetRepository) DeleteDataset(ctx context.Context, id string) error {
	if _, err := r.store.db.ExecContext(ctx, "DELETE FROM datasets WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting dataset: %w", err)
	}
	return nil
}

func (r *datasetRepository) exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.store.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM datasets WHERE id = ?)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking dataset: %w", err)
	}
	return exists, nil
}

// jsonText stores absent JSON as null so that it decodes to the zero value.
func jsonText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return jsonNull
	}
	return string(raw)
}

// queryIDs runs a single-column ID query.
func queryIDs(ctx context.Context, store *Store, query string, args ...any) ([]string, error) {
	rows, err := store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ids: %w", err)
	}
	return ids, nil
}
