package services

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyModelBaseURL        = "model.base_url"
	keyModelToken          = "model.token"
	keyModelDefault        = "model.default_model"
	keyModelConcurrency    = "model.max_concurrency"
	keyModelRequestsPerSec = "model.requests_per_second"
	keyArgillaURL          = "argilla.url"
	keyArgillaAPIKey       = "argilla.api_key"
	keyArgillaRetries      = "argilla.total_retries"
	keyArgillaWorkspace    = "argilla.workspace"
	keyStorageBackend      = "storage.backend"
	keyStorageDataDir      = "storage.data_dir"
	keyTracingEndpoint     = "tracing.otlp_endpoint"
	keyTracingServiceName  = "tracing.service_name"
)

var settingKeys = []string{
	keyModelBaseURL,
	keyModelToken,
	keyModelDefault,
	keyModelConcurrency,
	keyModelRequestsPerSec,
	keyArgillaURL,
	keyArgillaAPIKey,
	keyArgillaRetries,
	keyArgillaWorkspace,
	keyStorageBackend,
	keyStorageDataDir,
	keyTracingEndpoint,
	keyTracingServiceName,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Model: domain.ModelSettings{
			BaseURL:           s.getString(keyModelBaseURL, defaults.Model.BaseURL),
			Token:             s.configStore.GetString(keyModelToken),
			DefaultModel:      s.getString(keyModelDefault, defaults.Model.DefaultModel),
			MaxConcurrency:    s.getInt(keyModelConcurrency, defaults.Model.MaxConcurrency),
			RequestsPerSecond: s.configStore.GetFloat(keyModelRequestsPerSec),
		},
		Argilla: domain.ArgillaSettings{
			URL:          s.getString(keyArgillaURL, defaults.Argilla.URL),
			APIKey:       s.configStore.GetString(keyArgillaAPIKey),
			TotalRetries: s.getInt(keyArgillaRetries, defaults.Argilla.TotalRetries),
			Workspace:    s.getString(keyArgillaWorkspace, defaults.Argilla.Workspace),
		},
		Storage: domain.StorageSettings{
			Backend: s.getBackend(defaults.Storage.Backend),
			DataDir: s.configStore.GetString(keyStorageDataDir),
		},
		Tracing: domain.TracingSettings{
			OTLPEndpoint: s.configStore.GetString(keyTracingEndpoint),
			ServiceName:  s.getString(keyTracingServiceName, defaults.Tracing.ServiceName),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := ValidateControlModelName(settings.Model.DefaultModel); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyModelBaseURL, settings.Model.BaseURL},
		{keyModelDefault, settings.Model.DefaultModel},
		{keyModelConcurrency, settings.Model.MaxConcurrency},
		{keyModelRequestsPerSec, settings.Model.RequestsPerSecond},
		{keyArgillaURL, settings.Argilla.URL},
		{keyArgillaRetries, settings.Argilla.TotalRetries},
		{keyArgillaWorkspace, settings.Argilla.Workspace},
		{keyStorageBackend, settings.Storage.Backend.String()},
		{keyStorageDataDir, settings.Storage.DataDir},
		{keyTracingEndpoint, settings.Tracing.OTLPEndpoint},
		{keyTracingServiceName, settings.Tracing.ServiceName},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Secrets are only written when set so that saving never wipes a stored token.
	if settings.Model.Token != "" {
		if err := s.configStore.Set(keyModelToken, settings.Model.Token); err != nil {
			return fmt.Errorf("save %s: %w", keyModelToken, err)
		}
	}
	if settings.Argilla.APIKey != "" {
		if err := s.configStore.Set(keyArgillaAPIKey, settings.Argilla.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyArgillaAPIKey, err)
		}
	}

	return nil
}

// Set validates and stores a single setting given as text.
func (s *SettingsService) Set(key, value string) error {
	switch key {
	case keyModelConcurrency, keyArgillaRetries:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		return s.configStore.Set(key, n)
	case keyModelRequestsPerSec:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		return s.configStore.Set(key, f)
	case keyModelDefault:
		if err := ValidateControlModelName(value); err != nil {
			return err
		}
		return s.configStore.Set(key, value)
	case keyStorageBackend:
		if !domain.StorageBackend(value).IsValid() {
			return fmt.Errorf("%w: unknown storage backend %q", domain.ErrInvalidInput, value)
		}
		return s.configStore.Set(key, value)
	default:
		if !slices.Contains(settingKeys, key) {
			return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
		}
		return s.configStore.Set(key, value)
	}
}

// Keys returns every setting key Set accepts.
func (s *SettingsService) Keys() []string {
	return slices.Clone(settingKeys)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	val := s.configStore.GetString(keyStorageBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.StorageBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
