package memory

import (
	"maps"
	"slices"
	"sync"

	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in memory, for tests and throwaway sessions.
//
// Save snapshots the current values and Load restores the last snapshot,
// so callers exercising a save/reload cycle see the same behaviour as with
// the TOML store.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
	saved  map[string]any
}

// NewConfigStore creates a store, optionally seeded with values. The seed
// counts as the saved state.
func NewConfigStore(seed ...map[string]any) *ConfigStore {
	values := make(map[string]any)
	for _, m := range seed {
		maps.Copy(values, m)
	}
	return &ConfigStore{values: values, saved: maps.Clone(values)}
}

// Get returns the raw value stored under key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

// GetString returns the value as a string, or "" when it is not one.
func (s *ConfigStore) GetString(key string) string {
	val, _ := s.Get(key)
	str, _ := val.(string)
	return str
}

// GetInt returns the value as an int. Floats are truncated.
func (s *ConfigStore) GetInt(key string) int {
	val, _ := s.Get(key)
	n, _ := number[int](val)
	return n
}

// GetFloat returns the value as a float64.
func (s *ConfigStore) GetFloat(key string) float64 {
	val, _ := s.Get(key)
	f, _ := number[float64](val)
	return f
}

func number[T int | float64](val any) (T, bool) {
	switch v := val.(type) {
	case int:
		return T(v), true
	case int64:
		return T(v), true
	case float64:
		return T(v), true
	default:
		return 0, false
	}
}

// Set stores a value.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Keys returns all stored keys, sorted.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.values))
}

// Save snapshots the current values.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = maps.Clone(s.values)
	return nil
}

// Load discards unsaved changes.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = maps.Clone(s.saved)
	return nil
}

// Path identifies the store in messages.
func (s *ConfigStore) Path() string {
	return ":memory:"
}
