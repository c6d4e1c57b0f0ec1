package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driving"
)

const (
	defaultMaximumTokens = 64
	defaultLanguage      = "en"
)

// CompleteInput is the input schema for the complete tool.
type CompleteInput struct {
	Prompt        string   `json:"prompt" jsonschema:"the text the model continues"`
	Model         string   `json:"model,omitempty" jsonschema:"model name (default: the configured model)"`
	MaximumTokens int      `json:"maximum_tokens,omitempty" jsonschema:"maximum number of generated tokens (default 64)"`
	Temperature   float64  `json:"temperature,omitempty" jsonschema:"sampling temperature, 0 is greedy"`
	StopSequences []string `json:"stop_sequences,omitempty" jsonschema:"generation stops at any of these strings"`
}

// CompleteOutput is the output schema for the complete and instruct tools.
type CompleteOutput struct {
	Completion      string `json:"completion"`
	Model           string `json:"model"`
	GeneratedTokens int    `json:"generated_tokens"`
}

// InstructInput is the input schema for the instruct tool.
type InstructInput struct {
	Instruction   string `json:"instruction" jsonschema:"what the model should do"`
	Input         string `json:"input,omitempty" jsonschema:"text the instruction refers to"`
	Model         string `json:"model,omitempty" jsonschema:"control model name (default: the configured model)"`
	MaximumTokens int    `json:"maximum_tokens,omitempty" jsonschema:"maximum number of generated tokens (default 64)"`
}

// ExtractKeywordsInput is the input schema for the extract_keywords tool.
type ExtractKeywordsInput struct {
	Text     string `json:"text" jsonschema:"the text to extract keywords from"`
	Language string `json:"language,omitempty" jsonschema:"ISO 639-1 language code of the text (default en)"`
}

// ExtractKeywordsOutput is the output schema for the extract_keywords tool.
type ExtractKeywordsOutput struct {
	Keywords []string `json:"keywords"`
	Count    int      `json:"count"`
}

// ListDatasetsInput is the (empty) input schema for the list_datasets tool.
type ListDatasetsInput struct{}

// DatasetOutput represents a single dataset.
type DatasetOutput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListDatasetsOutput is the output schema for the list_datasets tool.
type ListDatasetsOutput struct {
	Datasets []DatasetOutput `json:"datasets"`
	Count    int             `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "complete",
		Description: "Continue a prompt with a language model",
	}, s.handleComplete)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "instruct",
		Description: "Follow an instruction with a control model",
	}, s.handleInstruct)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "extract_keywords",
		Description: "Extract the keywords of a text",
	}, s.handleExtractKeywords)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_datasets",
		Description: "List the evaluation datasets",
	}, s.handleListDatasets)
}

// handleComplete handles the complete tool invocation.
func (s *Server) handleComplete(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CompleteInput,
) (*mcp.CallToolResult, CompleteOutput, error) {
	maximumTokens := input.MaximumTokens
	if maximumTokens <= 0 {
		maximumTokens = defaultMaximumTokens
	}

	out, err := s.ports.Model.Complete(ctx, input.Model, domain.CompleteInput{
		Prompt:        input.Prompt,
		MaximumTokens: maximumTokens,
		Temperature:   input.Temperature,
		StopSequences: input.StopSequences,
	})
	if err != nil {
		return nil, CompleteOutput{}, err
	}
	return nil, completeOutput(out), nil
}

// handleInstruct handles the instruct tool invocation.
func (s *Server) handleInstruct(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input InstructInput,
) (*mcp.CallToolResult, CompleteOutput, error) {
	maximumTokens := input.MaximumTokens
	if maximumTokens <= 0 {
		maximumTokens = defaultMaximumTokens
	}

	out, err := s.ports.Model.Instruct(ctx, input.Model, driving.InstructRequest{
		Instruction:   input.Instruction,
		Input:         input.Input,
		MaximumTokens: maximumTokens,
	})
	if err != nil {
		return nil, CompleteOutput{}, err
	}
	return nil, completeOutput(out), nil
}

func completeOutput(out *domain.CompleteOutput) CompleteOutput {
	return CompleteOutput{
		Completion:      out.Completion(),
		Model:           out.ModelVersion,
		GeneratedTokens: out.GeneratedTokens(),
	}
}

// handleExtractKeywords handles the extract_keywords tool invocation.
func (s *Server) handleExtractKeywords(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExtractKeywordsInput,
) (*mcp.CallToolResult, ExtractKeywordsOutput, error) {
	language := input.Language
	if language == "" {
		language = defaultLanguage
	}

	keywords, err := s.ports.Keywords.Extract(ctx, domain.TextChunk(input.Text), domain.Language(language))
	if err != nil {
		return nil, ExtractKeywordsOutput{}, fmt.Errorf("extracting keywords: %w", err)
	}
	if keywords == nil {
		keywords = []string{}
	}

	return nil, ExtractKeywordsOutput{Keywords: keywords, Count: len(keywords)}, nil
}

// handleListDatasets handles the list_datasets tool invocation.
func (s *Server) handleListDatasets(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDatasetsInput,
) (*mcp.CallToolResult, ListDatasetsOutput, error) {
	output := ListDatasetsOutput{Datasets: []DatasetOutput{}}
	if s.ports.Datasets == nil {
		return nil, output, nil
	}

	datasets, err := s.ports.Datasets.List(ctx)
	if err != nil {
		return nil, ListDatasetsOutput{}, fmt.Errorf("listing datasets: %w", err)
	}

	for _, dataset := range datasets {
		output.Datasets = append(output.Datasets, DatasetOutput{ID: dataset.ID, Name: dataset.Name})
	}
	output.Count = len(output.Datasets)

	return nil, output, nil
}
