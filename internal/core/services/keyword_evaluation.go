package services

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
)

// KeywordExample is a dataset example for keyword extraction; the expected
// output lists the keywords a good extraction should find.
type KeywordExample = domain.Example[KeywordExtractInput, []string]

// KeywordEvaluation compares extracted keywords with the expected ones.
// Keywords are matched case-insensitively.
type KeywordEvaluation struct {
	Precision  float64  `json:"precision"`
	Recall     float64  `json:"recall"`
	F1         float64  `json:"f1"`
	Missing    []string `json:"missing,omitempty"`
	Unexpected []string `json:"unexpected,omitempty"`
}

// KeywordEvaluationLogic grades a single keyword extraction run.
type KeywordEvaluationLogic struct{}

// DoEvaluate computes precision and recall of the extracted keywords.
func (KeywordEvaluationLogic) DoEvaluate(
	example KeywordExample,
	outputs ...SuccessfulExampleOutput[KeywordExtractOutput],
) (KeywordEvaluation, error) {
	if len(outputs) != 1 {
		return KeywordEvaluation{}, fmt.Errorf("%w: keyword evaluation expects one run, got %d",
			domain.ErrInvalidInput, len(outputs))
	}

	expected := normalizedSet(example.ExpectedOutput)
	extracted := normalizedSet(outputs[0].Output.Keywords)

	var eval KeywordEvaluation
	matched := 0
	for keyword := range extracted {
		if expected[keyword] {
			matched++
		}
	}
	eval.Unexpected = unmatched(outputs[0].Output.Keywords, expected)
	eval.Missing = unmatched(example.ExpectedOutput, extracted)

	if len(extracted) > 0 {
		eval.Precision = float64(matched) / float64(len(extracted))
	}
	if len(expected) > 0 {
		eval.Recall = float64(matched) / float64(len(expected))
	}
	if eval.Precision+eval.Recall > 0 {
		eval.F1 = 2 * eval.Precision * eval.Recall / (eval.Precision + eval.Recall)
	}
	return eval, nil
}

// unmatched returns the keywords not in set, each case-insensitive keyword
// once in its first spelling.
func unmatched(keywords []string, set map[string]bool) []string {
	var result []string
	seen := make(map[string]bool, len(keywords))
	for _, keyword := range keywords {
		key := strings.ToLower(keyword)
		if set[key] || seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, keyword)
	}
	return result
}

func normalizedSet(keywords []string) map[string]bool {
	set := make(map[string]bool, len(keywords))
	for _, keyword := range keywords {
		set[strings.ToLower(keyword)] = true
	}
	return set
}

// KeywordAggregation summarizes the keyword evaluations of one evaluation run.
type KeywordAggregation struct {
	Count         int     `json:"count"`
	MeanPrecision float64 `json:"mean_precision"`
	MeanRecall    float64 `json:"mean_recall"`
	MeanF1        float64 `json:"mean_f1"`
}

// AggregateKeywordEvaluations averages successful keyword evaluations.
func AggregateKeywordEvaluations(evaluations []domain.ExampleEvaluation) (KeywordAggregation, error) {
	var agg KeywordAggregation
	for _, evaluation := range evaluations {
		if evaluation.Failed() {
			continue
		}
		result, err := domain.DecodeResult[KeywordEvaluation](evaluation)
		if err != nil {
			return agg, err
		}
		agg.Count++
		agg.MeanPrecision += result.Precision
		agg.MeanRecall += result.Recall
		agg.MeanF1 += result.F1
	}
	if agg.Count > 0 {
		n := float64(agg.Count)
		agg.MeanPrecision /= n
		agg.MeanRecall /= n
		agg.MeanF1 /= n
	}
	return agg, nil
}

// Argilla field and question names used for keyword ratings.
const (
	KeywordRatingTextField     = "text"
	KeywordRatingKeywordsField = "keywords"
	KeywordRatingQuestion      = "rate-keywords"
)

// KeywordRating is a human rating of one keyword extraction, from 1 to 5.
type KeywordRating struct {
	Score int `json:"score"`
}

// KeywordRatingLogic presents a keyword extraction run to human raters.
type KeywordRatingLogic struct{}

// Fields returns the text and the extracted keywords.
func (KeywordRatingLogic) Fields() []domain.Field {
	return []domain.Field{
		{Name: KeywordRatingTextField, Title: "Text"},
		{Name: KeywordRatingKeywordsField, Title: "Keywords"},
	}
}

// Questions asks for a single rating from 1 to 5.
func (KeywordRatingLogic) Questions() []domain.Question {
	return []domain.Question{{
		Name:        KeywordRatingQuestion,
		Title:       "How well do the keywords describe the text?",
		Description: "1 means the keywords are unrelated, 5 means they capture the text perfectly.",
		Options:     []int{1, 2, 3, 4, 5},
	}}
}

// ToRecord builds the record shown to raters.
func (KeywordRatingLogic) ToRecord(
	example KeywordExample,
	outputs ...SuccessfulExampleOutput[KeywordExtractOutput],
) (domain.RecordData, error) {
	if len(outputs) != 1 {
		return domain.RecordData{}, fmt.Errorf("%w: keyword rating expects one run, got %d",
			domain.ErrInvalidInput, len(outputs))
	}
	return domain.RecordData{
		Content: map[string]string{
			KeywordRatingTextField:     string(example.Input.Chunk),
			KeywordRatingKeywordsField: strings.Join(outputs[0].Output.Keywords, ", "),
		},
		Metadata: map[string]string{
			"run_id":   outputs[0].RunID,
			"language": string(example.Input.Language),
		},
	}, nil
}

// FromRecord reads the rating of a submitted record.
func (KeywordRatingLogic) FromRecord(evaluation domain.ArgillaEvaluation) (KeywordRating, error) {
	value, ok := evaluation.Responses[KeywordRatingQuestion]
	if !ok {
		return KeywordRating{}, fmt.Errorf("record %s has no response to %s", evaluation.RecordID, KeywordRatingQuestion)
	}
	score, err := ratingScore(value)
	if err != nil {
		return KeywordRating{}, fmt.Errorf("record %s: %w", evaluation.RecordID, err)
	}
	if score < 1 || score > 5 {
		return KeywordRating{}, fmt.Errorf("record %s: rating %d out of range", evaluation.RecordID, score)
	}
	return KeywordRating{Score: score}, nil
}

var errNotARating = errors.New("response is not a rating")

// ratingScore accepts the numeric types JSON decoding and callers produce.
func ratingScore(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: %v", errNotARating, v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("%w: %v", errNotARating, value)
	}
}
