// Package mcp provides an MCP (Model Context Protocol) server adapter for the
// intelligence layer. It lets AI assistants run completions, extract keywords
// and browse evaluation datasets.
package mcp

import "errors"

// ErrMissingModelService is returned when the model service is not provided.
var ErrMissingModelService = errors.New("mcp: model service is required")

// ErrMissingKeywordService is returned when the keyword service is not provided.
var ErrMissingKeywordService = errors.New("mcp: keyword service is required")
