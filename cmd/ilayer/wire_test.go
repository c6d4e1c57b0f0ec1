package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv points wiring at a fresh home directory with in-memory storage.
func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	for _, key := range []string{
		"CLIENT_URL", "AA_TOKEN", "ILAYER_MODEL", "ILAYER_REQUESTS_PER_SECOND",
		"ARGILLA_API_URL", "ARGILLA_API_KEY", "ILAYER_DATA_DIR", "OTEL_EXPORTER_OTLP_ENDPOINT",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("ILAYER_STORAGE", "memory")
}

func TestWire_WithoutToken(t *testing.T) {
	setupEnv(t)

	app, err := wire(context.Background())
	require.NoError(t, err)
	t.Cleanup(app.close)

	assert.NotNil(t, app.services.Settings)
	assert.NotNil(t, app.services.Datasets)
	assert.Nil(t, app.services.Model)
}

func TestWire_UnknownModelKeepsSettingsUsable(t *testing.T) {
	setupEnv(t)
	t.Setenv("AA_TOKEN", "secret")
	t.Setenv("ILAYER_MODEL", "gpt-4")

	app, err := wire(context.Background())
	require.NoError(t, err)
	t.Cleanup(app.close)

	assert.Nil(t, app.services.Model)
	assert.Nil(t, app.services.Keywords)
	assert.Nil(t, app.services.Evaluations)

	require.NotNil(t, app.services.Settings)
	require.NoError(t, app.services.Settings.Set("model.default_model", "luminous-base-control"))
}

func TestWire_DoesNotContactArgilla(t *testing.T) {
	setupEnv(t)
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	t.Setenv("AA_TOKEN", "secret")
	t.Setenv("ARGILLA_API_URL", server.URL)
	t.Setenv("ARGILLA_API_KEY", "argilla.apikey")

	app, err := wire(context.Background())
	require.NoError(t, err)
	t.Cleanup(app.close)

	assert.NotNil(t, app.services.Evaluations)
	assert.Zero(t, requests.Load())
}
