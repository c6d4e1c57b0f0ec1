package file

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
)

// EnvConfig holds settings that can be overridden from the environment.
// Empty values leave the stored settings untouched.
type EnvConfig struct {
	ModelURL       string  `env:"CLIENT_URL"`
	ModelToken     string  `env:"AA_TOKEN"`
	ModelName      string  `env:"ILAYER_MODEL"`
	RequestsPerSec float64 `env:"ILAYER_REQUESTS_PER_SECOND"`
	ArgillaURL     string  `env:"ARGILLA_API_URL"`
	ArgillaAPIKey  string  `env:"ARGILLA_API_KEY"`
	StorageBackend string  `env:"ILAYER_STORAGE"`
	DataDir        string  `env:"ILAYER_DATA_DIR"`
	OTLPEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// LoadEnv reads .env files into the process environment, without overriding
// variables that are already set, and parses the overrides. Missing files are
// ignored. With no files, ".env" in the working directory is tried.
func LoadEnv(files ...string) (EnvConfig, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return EnvConfig{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Apply overlays the non-empty overrides on settings.
func (c EnvConfig) Apply(settings *domain.AppSettings) error {
	if c.ModelURL != "" {
		settings.Model.BaseURL = c.ModelURL
	}
	if c.ModelToken != "" {
		settings.Model.Token = c.ModelToken
	}
	if c.ModelName != "" {
		settings.Model.DefaultModel = c.ModelName
	}
	if c.RequestsPerSec > 0 {
		settings.Model.RequestsPerSecond = c.RequestsPerSec
	}
	if c.ArgillaURL != "" {
		settings.Argilla.URL = c.ArgillaURL
	}
	if c.ArgillaAPIKey != "" {
		settings.Argilla.APIKey = c.ArgillaAPIKey
	}
	if c.StorageBackend != "" {
		backend := domain.StorageBackend(c.StorageBackend)
		if !backend.IsValid() {
			return fmt.Errorf("%w: ILAYER_STORAGE=%q", domain.ErrInvalidInput, c.StorageBackend)
		}
		settings.Storage.Backend = backend
	}
	if c.DataDir != "" {
		settings.Storage.DataDir = c.DataDir
	}
	if c.OTLPEndpoint != "" {
		settings.Tracing.OTLPEndpoint = c.OTLPEndpoint
	}
	return nil
}
