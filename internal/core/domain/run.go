package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// RunOverview summarises a single run of a task over a dataset.
type RunOverview struct {
	ID                     string    `json:"id"`
	DatasetID              string    `json:"dataset_id"`
	StartDate              time.Time `json:"start_date"`
	EndDate                time.Time `json:"end_date"`
	SuccessfulExampleCount int       `json:"successful_example_count"`
	FailedExampleCount     int       `json:"failed_example_count"`
	Description            string    `json:"description"`
}

// String renders the overview for terminal output.
func (o RunOverview) String() string {
	return fmt.Sprintf(
		"Run Overview ID = %s\nDataset ID = %s\nStart time = %s\nEnd time = %s\n"+
			"Failed example count = %d\nSuccessful example count = %d\nDescription = %q\n",
		o.ID, o.DatasetID, o.StartDate.Format(time.RFC3339), o.EndDate.Format(time.RFC3339),
		o.FailedExampleCount, o.SuccessfulExampleCount, o.Description)
}

// ExampleOutput is the output a task produced for one example of a run.
// Exactly one of Output and Error is set.
type ExampleOutput struct {
	RunID     string          `json:"run_id"`
	ExampleID string          `json:"example_id"`
	Output    json.RawMessage `json:"output,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Failed reports whether the task failed for this example.
func (o ExampleOutput) Failed() bool {
	return o.Error != ""
}
