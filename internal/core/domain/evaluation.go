package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EvaluationOverview summarises a finished evaluation of one or more runs.
type EvaluationOverview struct {
	ID                        string    `json:"id"`
	RunOverviewIDs            []string  `json:"run_overview_ids"`
	StartDate                 time.Time `json:"start_date"`
	EndDate                   time.Time `json:"end_date"`
	SuccessfulEvaluationCount int       `json:"successful_evaluation_count"`
	FailedEvaluationCount     int       `json:"failed_evaluation_count"`
	Description               string    `json:"description"`
}

// String renders the overview for terminal output.
func (o EvaluationOverview) String() string {
	return fmt.Sprintf(
		"Evaluation Overview ID = %s\nRun IDs = %s\nStart time = %s\nEnd time = %s\n"+
			"Successful evaluations = %d\nFailed evaluations = %d\nDescription = %q\n",
		o.ID, strings.Join(o.RunOverviewIDs, ", "),
		o.StartDate.Format(time.RFC3339), o.EndDate.Format(time.RFC3339),
		o.SuccessfulEvaluationCount, o.FailedEvaluationCount, o.Description)
}

// PartialEvaluationOverview describes an evaluation that has been submitted
// for asynchronous (for example human) grading but not yet collected.
type PartialEvaluationOverview struct {
	ID                       string    `json:"id"`
	RunOverviewIDs           []string  `json:"run_overview_ids"`
	StartDate                time.Time `json:"start_date"`
	SubmittedEvaluationCount int       `json:"submitted_evaluation_count"`
	Description              string    `json:"description"`

	// ArgillaDatasetID is the remote dataset holding the submitted records.
	ArgillaDatasetID string `json:"argilla_dataset_id,omitempty"`
}

// ExampleEvaluation is the evaluation result for a single example.
// Exactly one of Result and Error is set.
type ExampleEvaluation struct {
	EvaluationID string          `json:"evaluation_id"`
	ExampleID    string          `json:"example_id"`
	Result       json.RawMessage `json:"result,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// Failed reports whether evaluating the example failed.
func (e ExampleEvaluation) Failed() bool {
	return e.Error != ""
}

// NewExampleEvaluation encodes a typed evaluation result.
func NewExampleEvaluation[E any](evaluationID, exampleID string, result E) (ExampleEvaluation, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return ExampleEvaluation{}, fmt.Errorf("marshal evaluation of example %s: %w", exampleID, err)
	}
	return ExampleEvaluation{EvaluationID: evaluationID, ExampleID: exampleID, Result: raw}, nil
}

// DecodeResult unmarshals the evaluation result into E.
// It fails for evaluations that carry an error instead of a result.
func DecodeResult[E any](evaluation ExampleEvaluation) (E, error) {
	var result E
	if evaluation.Failed() {
		return result, fmt.Errorf("example %s failed: %s", evaluation.ExampleID, evaluation.Error)
	}
	if err := json.Unmarshal(evaluation.Result, &result); err != nil {
		return result, fmt.Errorf("unmarshal evaluation of example %s: %w", evaluation.ExampleID, err)
	}
	return result, nil
}
