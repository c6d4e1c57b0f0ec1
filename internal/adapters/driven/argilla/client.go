// Package argilla provides a driven.ArgillaClient for the Argilla v1 REST API.
package argilla

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
	"github.com/custodia-labs/intelligence-layer/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.ArgillaClient = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL      = domain.DefaultArgillaURL
	DefaultTotalRetries = domain.DefaultArgillaRetries
	DefaultTimeout      = 60 * time.Second

	// SplitMetadataName is the metadata property SplitDataset writes.
	SplitMetadataName = "split"

	apiKeyHeader = "X-Argilla-Api-Key"
	pageSize     = 200
	patchSize    = 200
	maxErrorBody = 4096
)

// Config holds configuration for the Argilla client.
type Config struct {
	// APIKey authenticates against Argilla (required).
	APIKey string

	// BaseURL is the Argilla server URL.
	BaseURL string

	// TotalRetries is how often a request failing with a server error is retried.
	TotalRetries int

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// RetryInterval is the first backoff delay. Zero uses the library default.
	RetryInterval time.Duration

	// HTTPClient overrides the underlying HTTP client.
	HTTPClient *http.Client
}

// HTTPError is returned when Argilla answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("argilla returned status %d: %s", e.StatusCode, e.Body)
}

// Unwrap maps a missing resource to domain.ErrNotFound.
func (e *HTTPError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return nil
}

func hasStatus(err error, codes ...int) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	for _, code := range codes {
		if httpErr.StatusCode == code {
			return true
		}
	}
	return false
}

// Client talks to an Argilla server.
type Client struct {
	client        *http.Client
	baseURL       string
	apiKey        string
	totalRetries  int
	retryInterval time.Duration
}

// NewClient creates a new Argilla client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("argilla: %w: api key is required", domain.ErrInvalidInput)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.TotalRetries < 0 {
		cfg.TotalRetries = 0
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		client:        httpClient,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		totalRetries:  cfg.TotalRetries,
		retryInterval: cfg.RetryInterval,
	}, nil
}

// NewClientFromSettings creates a client from application settings.
func NewClientFromSettings(settings domain.ArgillaSettings) (*Client, error) {
	return NewClient(Config{
		APIKey:       settings.APIKey,
		BaseURL:      settings.URL,
		TotalRetries: settings.TotalRetries,
	})
}

// Wire types of the Argilla API.
type (
	idResponse struct {
		ID string `json:"id"`
	}

	workspace struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	dataset struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		WorkspaceID string `json:"workspace_id"`
	}

	datasetList struct {
		Items []dataset `json:"items"`
	}

	metadataProperty struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	metadataPropertyList struct {
		Items []metadataProperty `json:"items"`
	}

	responseValue struct {
		Value any `json:"value"`
	}

	recordResponse struct {
		Values map[string]responseValue `json:"values"`
		Status string                   `json:"status"`
	}

	record struct {
		ID         string            `json:"id"`
		Fields     map[string]string `json:"fields"`
		Metadata   map[string]any    `json:"metadata"`
		ExternalID string            `json:"external_id"`
		Responses  []recordResponse  `json:"responses,omitempty"`
	}

	recordList struct {
		Items []record `json:"items"`
		Total int      `json:"total"`
	}

	newRecord struct {
		Fields     map[string]string `json:"fields"`
		Metadata   map[string]string `json:"metadata"`
		ExternalID string            `json:"external_id"`
	}

	recordPatch struct {
		ID       string         `json:"id"`
		Metadata map[string]any `json:"metadata"`
	}
)

// EnsureWorkspaceExists creates the workspace or returns the ID of the
// existing one with that name.
func (c *Client) EnsureWorkspaceExists(ctx context.Context, name string) (string, error) {
	var created idResponse
	err := c.do(ctx, http.MethodPost, "/api/workspaces", map[string]string{"name": name}, &created)
	if err == nil {
		return created.ID, nil
	}
	if !hasStatus(err, http.StatusConflict) {
		return "", fmt.Errorf("create workspace %q: %w", name, err)
	}

	var workspaces []workspace
	if err := c.do(ctx, http.MethodGet, "/api/workspaces", nil, &workspaces); err != nil {
		return "", fmt.Errorf("list workspaces: %w", err)
	}
	for _, ws := range workspaces {
		if ws.Name == name {
			return ws.ID, nil
		}
	}
	return "", fmt.Errorf("workspace %q: %w", name, domain.ErrNotFound)
}

// DeleteWorkspace deletes all datasets of the workspace, then the workspace.
func (c *Client) DeleteWorkspace(ctx context.Context, workspaceID string) error {
	datasets, err := c.listDatasets(ctx)
	if err != nil {
		return err
	}
	for _, ds := range datasets {
		if ds.WorkspaceID != workspaceID {
			continue
		}
		if err := c.do(ctx, http.MethodDelete, "/api/v1/datasets/"+ds.ID, nil, nil); err != nil {
			return fmt.Errorf("delete dataset %s: %w", ds.ID, err)
		}
	}
	if err := c.do(ctx, http.MethodDelete, "/api/v1/workspaces/"+workspaceID, nil, nil); err != nil {
		return fmt.Errorf("delete workspace %s: %w", workspaceID, err)
	}
	return nil
}

// EnsureDatasetExists creates and publishes a dataset with the given fields and
// rating questions. Existing datasets, fields and questions are reused.
func (c *Client) EnsureDatasetExists(
	ctx context.Context, workspaceID, name string, fields []domain.Field, questions []domain.Question,
) (string, error) {
	datasetID, err := c.createDataset(ctx, workspaceID, name)
	if err != nil {
		return "", err
	}

	for _, f := range fields {
		body := map[string]any{
			"name":     f.Name,
			"title":    f.Title,
			"required": true,
			"settings": map[string]string{"type": "text"},
		}
		err := c.do(ctx, http.MethodPost, "/api/v1/datasets/"+datasetID+"/fields", body, nil)
		if err != nil && !hasStatus(err, http.StatusConflict, http.StatusUnprocessableEntity) {
			return "", fmt.Errorf("create field %q: %w", f.Name, err)
		}
	}

	for _, q := range questions {
		options := make([]map[string]int, len(q.Options))
		for i, o := range q.Options {
			options[i] = map[string]int{"value": o}
		}
		body := map[string]any{
			"name":        q.Name,
			"title":       q.Title,
			"description": q.Description,
			"required":    true,
			"settings":    map[string]any{"type": "rating", "options": options},
		}
		err := c.do(ctx, http.MethodPost, "/api/v1/datasets/"+datasetID+"/questions", body, nil)
		if err != nil && !hasStatus(err, http.StatusConflict, http.StatusUnprocessableEntity) {
			return "", fmt.Errorf("create question %q: %w", q.Name, err)
		}
	}

	// Publishing an already published dataset is rejected with 422.
	err = c.do(ctx, http.MethodPut, "/api/v1/datasets/"+datasetID+"/publish", nil, nil)
	if err != nil && !hasStatus(err, http.StatusUnprocessableEntity) {
		return "", fmt.Errorf("publish dataset: %w", err)
	}
	return datasetID, nil
}

func (c *Client) createDataset(ctx context.Context, workspaceID, name string) (string, error) {
	body := map[string]any{
		"name":                 name,
		"workspace_id":         workspaceID,
		"allow_extra_metadata": true,
	}
	var created idResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/datasets", body, &created)
	if err == nil {
		logger.Debug("argilla: created dataset %s in workspace %s", name, workspaceID)
		return created.ID, nil
	}
	if !hasStatus(err, http.StatusConflict) {
		return "", fmt.Errorf("create dataset %q: %w", name, err)
	}

	datasets, err := c.listDatasets(ctx)
	if err != nil {
		return "", err
	}
	for _, ds := range datasets {
		if ds.Name == name && ds.WorkspaceID == workspaceID {
			return ds.ID, nil
		}
	}
	return "", fmt.Errorf("dataset %q: %w", name, domain.ErrNotFound)
}

func (c *Client) listDatasets(ctx context.Context) ([]dataset, error) {
	var list datasetList
	if err := c.do(ctx, http.MethodGet, "/api/v1/me/datasets", nil, &list); err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	return list.Items, nil
}

// AddRecord adds a record. The example ID is sent as the record's external
// ID and never as metadata.
func (c *Client) AddRecord(ctx context.Context, datasetID string, data domain.RecordData) error {
	metadata := make(map[string]string, len(data.Metadata))
	for k, v := range data.Metadata {
		metadata[k] = v
	}
	body := map[string][]newRecord{
		"items": {{Fields: data.Content, Metadata: metadata, ExternalID: data.ExampleID}},
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/datasets/"+datasetID+"/records", body, nil); err != nil {
		return fmt.Errorf("add record: %w", err)
	}
	return nil
}

// Records returns all records of the dataset in listing order.
func (c *Client) Records(ctx context.Context, datasetID string) ([]domain.Record, error) {
	raw, err := c.listRecords(ctx, datasetID, nil)
	if err != nil {
		return nil, err
	}
	records := make([]domain.Record, len(raw))
	for i, r := range raw {
		records[i] = domain.Record{
			ID: r.ID,
			RecordData: domain.RecordData{
				Content:   r.Fields,
				ExampleID: r.ExternalID,
				Metadata:  stringMetadata(r.Metadata),
			},
		}
	}
	return records, nil
}

// CreateEvaluation submits a response for a record.
func (c *Client) CreateEvaluation(ctx context.Context, evaluation domain.ArgillaEvaluation) error {
	values := make(map[string]responseValue, len(evaluation.Responses))
	for name, v := range evaluation.Responses {
		values[name] = responseValue{Value: v}
	}
	body := recordResponse{Values: values, Status: "submitted"}
	if err := c.do(ctx, http.MethodPost, "/api/v1/records/"+evaluation.RecordID+"/responses", body, nil); err != nil {
		return fmt.Errorf("create evaluation for record %s: %w", evaluation.RecordID, err)
	}
	return nil
}

// Evaluations returns the submitted responses of the dataset. Records without
// a submitted response are left out.
func (c *Client) Evaluations(ctx context.Context, datasetID string) ([]domain.ArgillaEvaluation, error) {
	query := url.Values{}
	query.Set("include", "responses")
	query.Set("response_status", "submitted")

	raw, err := c.listRecords(ctx, datasetID, query)
	if err != nil {
		return nil, err
	}

	var evaluations []domain.ArgillaEvaluation
	for _, r := range raw {
		for _, resp := range r.Responses {
			if resp.Status != "" && resp.Status != "submitted" {
				continue
			}
			responses := make(map[string]any, len(resp.Values))
			for name, v := range resp.Values {
				responses[name] = v.Value
			}
			evaluations = append(evaluations, domain.ArgillaEvaluation{
				ExampleID: r.ExternalID,
				RecordID:  r.ID,
				Responses: responses,
				Metadata:  stringMetadata(r.Metadata),
			})
			break
		}
	}
	return evaluations, nil
}

// SplitDataset replaces the split metadata property with values "0".."n-1"
// and assigns record i to split i mod n. Other metadata is kept.
func (c *Client) SplitDataset(ctx context.Context, datasetID string, nSplits int) error {
	if nSplits < 1 {
		return fmt.Errorf("%w: number of splits must be positive, got %d", domain.ErrInvalidInput, nSplits)
	}

	if err := c.replaceSplitProperty(ctx, datasetID, nSplits); err != nil {
		return err
	}

	raw, err := c.listRecords(ctx, datasetID, nil)
	if err != nil {
		return err
	}

	patches := make([]recordPatch, len(raw))
	for i, r := range raw {
		metadata := make(map[string]any, len(r.Metadata)+1)
		for k, v := range r.Metadata {
			metadata[k] = v
		}
		metadata[SplitMetadataName] = strconv.Itoa(i % nSplits)
		patches[i] = recordPatch{ID: r.ID, Metadata: metadata}
	}

	for start := 0; start < len(patches); start += patchSize {
		end := min(start+patchSize, len(patches))
		body := map[string][]recordPatch{"items": patches[start:end]}
		if err := c.do(ctx, http.MethodPatch, "/api/v1/datasets/"+datasetID+"/records", body, nil); err != nil {
			return fmt.Errorf("update record metadata: %w", err)
		}
	}
	logger.Debug("argilla: split %d records of dataset %s into %d splits", len(patches), datasetID, nSplits)
	return nil
}

func (c *Client) replaceSplitProperty(ctx context.Context, datasetID string, nSplits int) error {
	var props metadataPropertyList
	if err := c.do(ctx, http.MethodGet, "/api/v1/me/datasets/"+datasetID+"/metadata-properties", nil, &props); err != nil {
		return fmt.Errorf("list metadata properties: %w", err)
	}
	for _, p := range props.Items {
		if p.Name != SplitMetadataName {
			continue
		}
		if err := c.do(ctx, http.MethodDelete, "/api/v1/metadata-properties/"+p.ID, nil, nil); err != nil {
			return fmt.Errorf("delete metadata property: %w", err)
		}
	}

	values := make([]string, nSplits)
	for i := range values {
		values[i] = strconv.Itoa(i)
	}
	body := map[string]any{
		"name":                   SplitMetadataName,
		"title":                  SplitMetadataName,
		"visible_for_annotators": true,
		"settings":               map[string]any{"type": "terms", "values": values},
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/datasets/"+datasetID+"/metadata-properties", body, nil); err != nil {
		return fmt.Errorf("create metadata property: %w", err)
	}
	return nil
}

// listRecords pages through all records of a dataset.
func (c *Client) listRecords(ctx context.Context, datasetID string, query url.Values) ([]record, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("limit", strconv.Itoa(pageSize))

	var records []record
	for offset := 0; ; offset += pageSize {
		query.Set("offset", strconv.Itoa(offset))
		var page recordList
		path := "/api/v1/datasets/" + datasetID + "/records?" + query.Encode()
		if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, fmt.Errorf("list records of dataset %s: %w", datasetID, err)
		}
		records = append(records, page.Items...)
		if len(page.Items) < pageSize {
			return records, nil
		}
	}
}

// do sends a request, retrying server errors and transport failures up to
// TotalRetries times, and decodes the JSON response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	exp := backoff.NewExponentialBackOff()
	if c.retryInterval > 0 {
		exp.InitialInterval = c.retryInterval
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := c.send(ctx, method, path, payload, out)
		if err == nil {
			return struct{}{}, nil
		}
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode < http.StatusInternalServerError {
			return struct{}{}, backoff.Permanent(err)
		}
		logger.Debug("argilla: %s %s failed, retrying: %v", method, path, err)
		return struct{}{}, err
	},
		backoff.WithBackOff(exp),
		backoff.WithMaxTries(uint(c.totalRetries)+1),
	)
	return err
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// stringMetadata converts record metadata to strings. Argilla may return
// numbers for numeric properties.
func stringMetadata(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
			out[k] = ""
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
