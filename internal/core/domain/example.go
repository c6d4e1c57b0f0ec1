package domain

import (
	"encoding/json"
	"fmt"
)

// Example is a single evaluation case.
//
// Input is passed to the task under evaluation and ExpectedOutput is what an
// evaluation logic compares the task's output against (traditionally called
// the label).
type Example[I, O any] struct {
	// ID identifies the example within its dataset.
	// The dataset service assigns a random UUID when it is empty.
	ID string `json:"id"`

	// Input is passed to the task under evaluation.
	Input I `json:"input"`

	// ExpectedOutput is what the task output is checked against.
	ExpectedOutput O `json:"expected_output"`
}

// String renders the example for terminal output.
func (e Example[I, O]) String() string {
	return fmt.Sprintf("Example ID = %s\nInput = %v\nExpected output = \"%v\"\n",
		e.ID, e.Input, e.ExpectedOutput)
}

// Encode converts the example into its persisted form.
func (e Example[I, O]) Encode() (StoredExample, error) {
	input, err := json.Marshal(e.Input)
	if err != nil {
		return StoredExample{}, fmt.Errorf("marshal input: %w", err)
	}
	expected, err := json.Marshal(e.ExpectedOutput)
	if err != nil {
		return StoredExample{}, fmt.Errorf("marshal expected output: %w", err)
	}
	return StoredExample{ID: e.ID, Input: input, ExpectedOutput: expected}, nil
}

// StoredExample is the JSON-encoded form of an Example as kept by repositories.
type StoredExample struct {
	ID             string          `json:"id"`
	Input          json.RawMessage `json:"input"`
	ExpectedOutput json.RawMessage `json:"expected_output"`
}

// DecodeExample converts a stored example back into its typed form.
func DecodeExample[I, O any](stored StoredExample) (Example[I, O], error) {
	example := Example[I, O]{ID: stored.ID}
	if err := json.Unmarshal(stored.Input, &example.Input); err != nil {
		return example, fmt.Errorf("unmarshal input of example %s: %w", stored.ID, err)
	}
	if err := json.Unmarshal(stored.ExpectedOutput, &example.ExpectedOutput); err != nil {
		return example, fmt.Errorf("unmarshal expected output of example %s: %w", stored.ID, err)
	}
	return example, nil
}

// Dataset represents a named collection of examples.
type Dataset struct {
	// ID is the dataset identifier.
	ID string `json:"id"`

	// Name is a short name of the dataset.
	Name string `json:"name"`
}

// String renders the dataset for terminal output.
func (d Dataset) String() string {
	return fmt.Sprintf("Dataset ID = %s\nName = %s\n", d.ID, d.Name)
}
