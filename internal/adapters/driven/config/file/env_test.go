package file

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
)

func TestLoadEnv_ReadsEnvironment(t *testing.T) {
	t.Setenv("CLIENT_URL", "https://models.example.com")
	t.Setenv("AA_TOKEN", "token")
	t.Setenv("ARGILLA_API_URL", "http://argilla:6900/")
	t.Setenv("ILAYER_REQUESTS_PER_SECOND", "1.5")

	cfg, err := LoadEnv(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.Equal(t, "https://models.example.com", cfg.ModelURL)
	assert.Equal(t, "token", cfg.ModelToken)
	assert.Equal(t, "http://argilla:6900/", cfg.ArgillaURL)
	assert.InDelta(t, 1.5, cfg.RequestsPerSec, 1e-9)
}

func TestLoadEnv_ReadsDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ARGILLA_API_KEY=from-file\n"), 0600))
	// Setenv restores the variable after the test; unset it so the file applies.
	t.Setenv("ARGILLA_API_KEY", "")
	require.NoError(t, os.Unsetenv("ARGILLA_API_KEY"))

	cfg, err := LoadEnv(path)

	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.ArgillaAPIKey)
}

func TestLoadEnv_EnvironmentWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("AA_TOKEN=from-file\n"), 0600))
	t.Setenv("AA_TOKEN", "from-env")

	cfg, err := LoadEnv(path)

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.ModelToken)
}

func TestLoadEnv_InvalidNumber(t *testing.T) {
	t.Setenv("ILAYER_REQUESTS_PER_SECOND", "fast")

	_, err := LoadEnv(filepath.Join(t.TempDir(), "missing.env"))

	assert.Error(t, err)
}

func TestEnvConfig_Apply(t *testing.T) {
	settings := domain.DefaultAppSettings()
	cfg := EnvConfig{
		ModelToken:     "token",
		ArgillaAPIKey:  "key",
		StorageBackend: "memory",
		OTLPEndpoint:   "http://collector:4318",
	}

	require.NoError(t, cfg.Apply(&settings))

	assert.Equal(t, domain.DefaultModelBaseURL, settings.Model.BaseURL)
	assert.Equal(t, "token", settings.Model.Token)
	assert.Equal(t, "key", settings.Argilla.APIKey)
	assert.Equal(t, domain.StorageMemory, settings.Storage.Backend)
	assert.Equal(t, "http://collector:4318", settings.Tracing.OTLPEndpoint)
}

func TestEnvConfig_Apply_InvalidBackend(t *testing.T) {
	settings := domain.DefaultAppSettings()

	err := EnvConfig{StorageBackend: "postgres"}.Apply(&settings)

	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Equal(t, domain.StorageSQLite, settings.Storage.Backend)
}
