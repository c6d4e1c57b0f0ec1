package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intelligence-layer/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
)

func TestSettingsService_GetDefaults(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore())

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAppSettings(), *settings)
	assert.Equal(t, domain.DefaultAppSettings(), svc.GetDefaults())
	assert.False(t, settings.Model.IsConfigured())
}

func TestSettingsService_SaveAndGet(t *testing.T) {
	store := memory.NewConfigStore()
	svc := NewSettingsService(store)

	settings := domain.DefaultAppSettings()
	settings.Model.Token = "secret"
	settings.Model.DefaultModel = "llama-3-8b-instruct"
	settings.Model.RequestsPerSecond = 2.5
	settings.Argilla.APIKey = "argilla.apikey"
	settings.Argilla.TotalRetries = 5
	settings.Storage.Backend = domain.StorageMemory
	settings.Storage.DataDir = "/tmp/ilayer"
	settings.Tracing.OTLPEndpoint = "http://localhost:4318"
	require.NoError(t, svc.Save(&settings))

	got, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, settings, *got)
	assert.True(t, got.Model.IsConfigured())
	assert.True(t, got.Argilla.IsConfigured())
	assert.True(t, got.Tracing.IsConfigured())
}

func TestSettingsService_SaveKeepsSecrets(t *testing.T) {
	store := memory.NewConfigStore()
	svc := NewSettingsService(store)

	settings := domain.DefaultAppSettings()
	settings.Model.Token = "secret"
	settings.Argilla.APIKey = "key"
	require.NoError(t, svc.Save(&settings))

	settings.Model.Token = ""
	settings.Argilla.APIKey = ""
	require.NoError(t, svc.Save(&settings))

	got, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, "secret", got.Model.Token)
	assert.Equal(t, "key", got.Argilla.APIKey)
}

func TestSettingsService_Set(t *testing.T) {
	store := memory.NewConfigStore()
	svc := NewSettingsService(store)

	require.NoError(t, svc.Set("model.max_concurrency", "4"))
	require.NoError(t, svc.Set("model.requests_per_second", "0.5"))
	require.NoError(t, svc.Set("argilla.total_retries", "7"))
	require.NoError(t, svc.Set("storage.backend", "memory"))
	require.NoError(t, svc.Set("model.base_url", "https://example.com"))
	require.NoError(t, svc.Set("model.default_model", "llama-2-70b-chat"))

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, 4, settings.Model.MaxConcurrency)
	assert.InDelta(t, 0.5, settings.Model.RequestsPerSecond, 1e-9)
	assert.Equal(t, 7, settings.Argilla.TotalRetries)
	assert.Equal(t, domain.StorageMemory, settings.Storage.Backend)
	assert.Equal(t, "https://example.com", settings.Model.BaseURL)
	assert.Equal(t, "llama-2-70b-chat", settings.Model.DefaultModel)
}

func TestSettingsService_RejectedModelIsNotStored(t *testing.T) {
	store := memory.NewConfigStore()
	svc := NewSettingsService(store)

	require.ErrorIs(t, svc.Set("model.default_model", "gpt-4"), domain.ErrInvalidInput)

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultModelName, settings.Model.DefaultModel)
	_, err = NewControlModel(settings.Model.DefaultModel, &mockModelClient{})
	assert.NoError(t, err)
}

func TestSettingsService_SaveRejectsUnknownModel(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore())

	settings := domain.DefaultAppSettings()
	settings.Model.DefaultModel = "gpt-4"

	assert.ErrorIs(t, svc.Save(&settings), domain.ErrInvalidInput)
}

func TestSettingsService_SetValidation(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore())

	tests := []struct {
		key   string
		value string
	}{
		{key: "model.max_concurrency", value: "many"},
		{key: "model.max_concurrency", value: "-1"},
		{key: "argilla.total_retries", value: "1.5"},
		{key: "model.requests_per_second", value: "-2"},
		{key: "model.requests_per_second", value: "fast"},
		{key: "storage.backend", value: "postgres"},
		{key: "model.default_model", value: "gpt-4"},
		{key: "model.default_model", value: "llama-3-unknown"},
		{key: "unknown.key", value: "x"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			assert.ErrorIs(t, svc.Set(tt.key, tt.value), domain.ErrInvalidInput)
		})
	}
}

func TestSettingsService_InvalidStoredBackendFallsBack(t *testing.T) {
	store := memory.NewConfigStore()
	require.NoError(t, store.Set("storage.backend", "postgres"))
	svc := NewSettingsService(store)

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.StorageSQLite, settings.Storage.Backend)
}

func TestSettingsService_Keys(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore())

	keys := svc.Keys()
	assert.Contains(t, keys, "model.token")
	assert.Contains(t, keys, "tracing.otlp_endpoint")

	// The returned slice is a copy.
	keys[0] = "changed"
	assert.NotEqual(t, "changed", svc.Keys()[0])
}
