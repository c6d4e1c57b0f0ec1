package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
)

func TestServer_handleComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("returns completion", func(t *testing.T) {
		model := &mockModelService{completion: " world"}
		ports := validPorts()
		ports.Model = model
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := CompleteInput{Prompt: "hello", Model: "luminous-extended", Temperature: 0.5, StopSequences: []string{"\n"}}
		_, output, err := server.handleComplete(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, " world", output.Completion)
		assert.Equal(t, "luminous-extended", output.Model)
		assert.Equal(t, 3, output.GeneratedTokens)
		assert.Equal(t, "hello", model.lastInput.Prompt)
		assert.Equal(t, defaultMaximumTokens, model.lastInput.MaximumTokens)
		assert.Equal(t, []string{"\n"}, model.lastInput.StopSequences)
	})

	t.Run("keeps explicit maximum tokens", func(t *testing.T) {
		model := &mockModelService{}
		ports := validPorts()
		ports.Model = model
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleComplete(ctx, nil, CompleteInput{Prompt: "x", MaximumTokens: 5})
		require.NoError(t, err)
		assert.Equal(t, 5, model.lastInput.MaximumTokens)
	})

	t.Run("returns error on model failure", func(t *testing.T) {
		ports := validPorts()
		ports.Model = &mockModelService{err: domain.ErrBusy}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleComplete(ctx, nil, CompleteInput{Prompt: "x"})
		assert.ErrorIs(t, err, domain.ErrBusy)
	})
}

func TestServer_handleInstruct(t *testing.T) {
	model := &mockModelService{completion: "Paris"}
	ports := validPorts()
	ports.Model = model
	server, err := NewServer(ports)
	require.NoError(t, err)

	_, output, err := server.handleInstruct(context.Background(), nil, InstructInput{
		Instruction: "Name the capital.",
		Input:       "France",
	})
	require.NoError(t, err)
	assert.Equal(t, "Paris", output.Completion)
	assert.Equal(t, domain.DefaultModelName, output.Model)
	assert.Equal(t, "Name the capital.", model.lastRequest.Instruction)
	assert.Equal(t, "France", model.lastRequest.Input)
	assert.Equal(t, defaultMaximumTokens, model.lastRequest.MaximumTokens)
}

func TestServer_handleExtractKeywords(t *testing.T) {
	ctx := context.Background()

	t.Run("returns keywords", func(t *testing.T) {
		keywords := &mockKeywordService{keywords: []string{"cats", "pets"}}
		ports := validPorts()
		ports.Keywords = keywords
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleExtractKeywords(ctx, nil, ExtractKeywordsInput{Text: "I like cats", Language: "de"})
		require.NoError(t, err)
		assert.Equal(t, []string{"cats", "pets"}, output.Keywords)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, domain.Language("de"), keywords.lastLanguage)
	})

	t.Run("default language is english", func(t *testing.T) {
		keywords := &mockKeywordService{}
		ports := validPorts()
		ports.Keywords = keywords
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleExtractKeywords(ctx, nil, ExtractKeywordsInput{Text: "text"})
		require.NoError(t, err)
		assert.Equal(t, domain.Language("en"), keywords.lastLanguage)
		assert.NotNil(t, output.Keywords)
		assert.Equal(t, 0, output.Count)
	})

	t.Run("returns error for unsupported language", func(t *testing.T) {
		ports := validPorts()
		ports.Keywords = &mockKeywordService{err: domain.ErrLanguageNotSupported}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleExtractKeywords(ctx, nil, ExtractKeywordsInput{Text: "texto", Language: "pt"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrLanguageNotSupported)
		assert.Contains(t, err.Error(), "extracting keywords")
	})
}

func TestServer_handleListDatasets(t *testing.T) {
	ctx := context.Background()

	t.Run("returns datasets", func(t *testing.T) {
		ports := validPorts()
		ports.Datasets = &mockDatasetService{datasets: []domain.Dataset{
			{ID: "d1", Name: "keywords"},
			{ID: "d2", Name: "summaries"},
		}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleListDatasets(ctx, nil, ListDatasetsInput{})
		require.NoError(t, err)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, DatasetOutput{ID: "d1", Name: "keywords"}, output.Datasets[0])
	})

	t.Run("empty without dataset service", func(t *testing.T) {
		server, err := NewServer(validPorts())
		require.NoError(t, err)

		_, output, err := server.handleListDatasets(ctx, nil, ListDatasetsInput{})
		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.NotNil(t, output.Datasets)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		ports := validPorts()
		ports.Datasets = &mockDatasetService{err: errors.New("disk full")}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleListDatasets(ctx, nil, ListDatasetsInput{})
		assert.ErrorContains(t, err, "disk full")
	})
}
