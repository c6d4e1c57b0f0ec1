package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for intelligence layer resources.
	uriScheme = "ilayer://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing datasets.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "datasets",
		Name:        "datasets",
		Description: "List of all evaluation datasets",
		MIMEType:    "application/json",
	}, s.handleDatasetsResource)

	// Template for dataset examples.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "datasets/{datasetId}/examples",
		Name:        "dataset-examples",
		Description: "Examples of a specific dataset",
		MIMEType:    "application/json",
	}, s.handleExamplesResource)

	// Template for evaluation results.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "evaluations/{evaluationId}",
		Name:        "evaluation",
		Description: "Overview and example results of a finished evaluation",
		MIMEType:    "application/json",
	}, s.handleEvaluationResource)
}

// handleDatasetsResource returns a list of all datasets.
func (s *Server) handleDatasetsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Datasets == nil {
		return jsonResource(req.Params.URI, []DatasetOutput{})
	}

	datasets, err := s.ports.Datasets.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing datasets: %w", err)
	}

	infos := make([]DatasetOutput, len(datasets))
	for i, dataset := range datasets {
		infos[i] = DatasetOutput{ID: dataset.ID, Name: dataset.Name}
	}
	return jsonResource(req.Params.URI, infos)
}

// handleExamplesResource returns the examples of a specific dataset.
func (s *Server) handleExamplesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Datasets == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract datasetId from URI: ilayer://datasets/{datasetId}/examples
	datasetID := extractDatasetID(req.Params.URI)
	if datasetID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	examples, err := s.ports.Datasets.Examples(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("listing examples: %w", err)
	}
	return jsonResource(req.Params.URI, examples)
}

// handleEvaluationResource returns an evaluation with its example results.
func (s *Server) handleEvaluationResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Evaluations == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract evaluationId from URI: ilayer://evaluations/{evaluationId}
	evaluationID := extractEvaluationID(req.Params.URI)
	if evaluationID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	overview, evaluations, err := s.ports.Evaluations.Evaluation(ctx, evaluationID)
	if err != nil {
		return nil, fmt.Errorf("getting evaluation: %w", err)
	}

	return jsonResource(req.Params.URI, map[string]any{
		"overview":    overview,
		"evaluations": evaluations,
	})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractDatasetID extracts the dataset ID from a URI like ilayer://datasets/{datasetId}/examples.
func extractDatasetID(uri string) string {
	const prefix = uriScheme + "datasets/"
	const suffix = "/examples"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}

// extractEvaluationID extracts the evaluation ID from a URI like ilayer://evaluations/{evaluationId}.
func extractEvaluationID(uri string) string {
	const prefix = uriScheme + "evaluations/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
