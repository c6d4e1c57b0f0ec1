package domain

const unknownDescription = "Unknown"

// Default settings values.
const (
	DefaultModelBaseURL     = "https://api.aleph-alpha.com"
	DefaultModelName        = "luminous-base-control"
	DefaultMaxConcurrency   = 20
	DefaultArgillaURL       = "http://localhost:6900/"
	DefaultArgillaRetries   = 3
	DefaultArgillaWorkspace = "intelligence-layer"
	DefaultServiceName      = "intelligence-layer"
)

// StorageBackend selects where datasets, runs and evaluations are kept.
type StorageBackend string

// Available storage backends.
const (
	// StorageMemory keeps everything in process memory. Nothing survives a restart.
	StorageMemory StorageBackend = "memory"

	// StorageSQLite persists to a SQLite database in the data directory.
	StorageSQLite StorageBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageMemory, StorageSQLite:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b StorageBackend) Description() string {
	switch b {
	case StorageMemory:
		return "In-memory (lost on exit)"
	case StorageSQLite:
		return "SQLite (persistent)"
	default:
		return unknownDescription
	}
}

// ModelSettings holds model API configuration.
type ModelSettings struct {
	// BaseURL is the model API endpoint.
	BaseURL string

	// Token is the API token (required).
	Token string

	// DefaultModel is used when a command does not name a model.
	DefaultModel string

	// MaxConcurrency caps in-flight requests to the API.
	MaxConcurrency int

	// RequestsPerSecond throttles requests. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the model API can be used.
func (m ModelSettings) IsConfigured() bool {
	return m.BaseURL != "" && m.Token != ""
}

// ArgillaSettings holds Argilla configuration for human evaluation.
type ArgillaSettings struct {
	// URL is the Argilla API base URL.
	URL string

	// APIKey authenticates against Argilla.
	APIKey string

	// TotalRetries is how often a failed request is retried.
	TotalRetries int

	// Workspace is the workspace new evaluation datasets are created in.
	Workspace string
}

// IsConfigured returns true if Argilla can be used.
func (a ArgillaSettings) IsConfigured() bool {
	return a.URL != "" && a.APIKey != ""
}

// StorageSettings holds repository configuration.
type StorageSettings struct {
	// Backend selects the repository implementation.
	Backend StorageBackend

	// DataDir is where the SQLite backend keeps its database.
	// Empty means ~/.ilayer/data.
	DataDir string
}

// TracingSettings holds trace export configuration.
type TracingSettings struct {
	// OTLPEndpoint is the OTLP/HTTP collector URL. Empty disables export.
	OTLPEndpoint string

	// ServiceName is reported as the service.name resource attribute.
	ServiceName string
}

// IsConfigured returns true if traces are exported.
func (t TracingSettings) IsConfigured() bool {
	return t.OTLPEndpoint != ""
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Model holds model API settings.
	Model ModelSettings

	// Argilla holds human evaluation settings.
	Argilla ArgillaSettings

	// Storage holds repository settings.
	Storage StorageSettings

	// Tracing holds trace export settings.
	Tracing TracingSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Tokens are left empty and must be configured by the user.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Model: ModelSettings{
			BaseURL:        DefaultModelBaseURL,
			DefaultModel:   DefaultModelName,
			MaxConcurrency: DefaultMaxConcurrency,
		},
		Argilla: ArgillaSettings{
			URL:          DefaultArgillaURL,
			TotalRetries: DefaultArgillaRetries,
			Workspace:    DefaultArgillaWorkspace,
		},
		Storage: StorageSettings{
			Backend: StorageSQLite,
		},
		Tracing: TracingSettings{
			ServiceName: DefaultServiceName,
		},
	}
}

// AllStorageBackends returns all available storage backends.
func AllStorageBackends() []StorageBackend {
	return []StorageBackend{StorageMemory, StorageSQLite}
}
