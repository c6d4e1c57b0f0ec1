// Package aleph provides a driven.ModelClient for the Aleph Alpha HTTP API.
package aleph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.ModelClient = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL = domain.DefaultModelBaseURL
	DefaultTimeout = 120 * time.Second

	// maxErrorBody caps how much of an error response is kept.
	maxErrorBody = 4096
)

// Config holds configuration for the Aleph Alpha client.
type Config struct {
	// Token is the API token (required).
	Token string

	// BaseURL is the API base URL.
	BaseURL string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// HTTPClient overrides the underlying HTTP client.
	HTTPClient *http.Client
}

// HTTPError is returned when the API answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("model api returned status %d: %s", e.StatusCode, e.Body)
}

// Busy reports whether the API rejected the request because it is overloaded.
func (e *HTTPError) Busy() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusServiceUnavailable
}

// Unwrap maps busy statuses to domain errors.
func (e *HTTPError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case http.StatusServiceUnavailable:
		return domain.ErrBusy
	case http.StatusNotFound:
		return domain.ErrNotFound
	}
	return nil
}

// Client talks to the Aleph Alpha API.
type Client struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewClient creates a new Aleph Alpha client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("aleph: %w: token is required", domain.ErrInvalidInput)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		client:  httpClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
	}, nil
}

// completeRequest is the /complete request format.
type completeRequest struct {
	Model string `json:"model"`
	domain.CompleteInput
}

// explainRequest is the /explain request format.
type explainRequest struct {
	Model             string             `json:"model"`
	Prompt            string             `json:"prompt"`
	Target            string             `json:"target"`
	PromptGranularity *granularityOption `json:"prompt_granularity,omitempty"`
	ControlFactor     float64            `json:"control_factor,omitempty"`
}

type granularityOption struct {
	Type domain.Granularity `json:"type"`
}

// tokenizeRequest is the /tokenize request format.
type tokenizeRequest struct {
	Model    string `json:"model"`
	Prompt   string `json:"prompt"`
	Tokens   bool   `json:"tokens"`
	TokenIDs bool   `json:"token_ids"`
}

// Complete generates a completion.
func (c *Client) Complete(ctx context.Context, model string, input domain.CompleteInput) (domain.CompleteOutput, error) {
	var out domain.CompleteOutput
	err := c.do(ctx, http.MethodPost, "/complete", completeRequest{Model: model, CompleteInput: input}, &out)
	if err != nil {
		return domain.CompleteOutput{}, fmt.Errorf("complete: %w", err)
	}
	return out, nil
}

// Explain attributes the target to parts of the prompt.
func (c *Client) Explain(ctx context.Context, model string, input domain.ExplainInput) (domain.ExplainOutput, error) {
	req := explainRequest{
		Model:         model,
		Prompt:        input.Prompt,
		Target:        input.Target,
		ControlFactor: input.ControlFactor,
	}
	if input.PromptGranularity != "" {
		req.PromptGranularity = &granularityOption{Type: input.PromptGranularity}
	}

	var out domain.ExplainOutput
	if err := c.do(ctx, http.MethodPost, "/explain", req, &out); err != nil {
		return domain.ExplainOutput{}, fmt.Errorf("explain: %w", err)
	}
	return out, nil
}

// Models lists the available models.
func (c *Client) Models(ctx context.Context) ([]domain.ModelInfo, error) {
	var out []domain.ModelInfo
	if err := c.do(ctx, http.MethodGet, "/models_available", nil, &out); err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return out, nil
}

// Tokenize encodes text with the model's tokenizer.
func (c *Client) Tokenize(ctx context.Context, model, text string) (domain.Encoding, error) {
	var out domain.Encoding
	req := tokenizeRequest{Model: model, Prompt: text, Tokens: true, TokenIDs: true}
	if err := c.do(ctx, http.MethodPost, "/tokenize", req, &out); err != nil {
		return domain.Encoding{}, fmt.Errorf("tokenize: %w", err)
	}
	return out, nil
}

// do sends a request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
