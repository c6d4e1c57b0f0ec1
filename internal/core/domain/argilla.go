package domain

// Field is a text field shown to annotators for every record of an Argilla dataset.
type Field struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// Question is a rating question annotators answer for each record.
type Question struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Options     []int  `json:"options"`
}

// RecordData is the content submitted to Argilla for one example.
// ExampleID travels separately from Metadata.
type RecordData struct {
	Content   map[string]string `json:"content"`
	ExampleID string            `json:"example_id"`
	Metadata  map[string]string `json:"metadata"`
}

// Record is RecordData as stored by Argilla.
type Record struct {
	RecordData
	ID string `json:"id"`
}

// ArgillaEvaluation is an annotator's submitted response for one record.
type ArgillaEvaluation struct {
	ExampleID string            `json:"example_id"`
	RecordID  string            `json:"record_id"`
	Responses map[string]any    `json:"responses"`
	Metadata  map[string]string `json:"metadata"`
}
