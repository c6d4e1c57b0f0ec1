package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("model.base_url", "https://api.example.com"))
	require.NoError(t, store.Set("model.base_url", "https://other.example.com"))

	val, ok := store.Get("model.base_url")
	assert.True(t, ok)
	assert.Equal(t, "https://other.example.com", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("string", "value"))
	require.NoError(t, store.Set("int", 7))
	require.NoError(t, store.Set("int64", int64(9)))
	require.NoError(t, store.Set("float", 2.5))

	tests := []struct {
		key        string
		wantString string
		wantInt    int
		wantFloat  float64
	}{
		{key: "string", wantString: "value"},
		{key: "int", wantInt: 7, wantFloat: 7},
		{key: "int64", wantInt: 9, wantFloat: 9},
		{key: "float", wantInt: 2, wantFloat: 2.5},
		{key: "missing"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.wantString, store.GetString(tt.key))
			assert.Equal(t, tt.wantInt, store.GetInt(tt.key))
			assert.InDelta(t, tt.wantFloat, store.GetFloat(tt.key), 1e-9)
		})
	}
}

func TestConfigStore_Keys(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("b", 1))
	require.NoError(t, store.Set("a", 2))

	assert.Equal(t, []string{"a", "b"}, store.Keys())
}

func TestConfigStore_Seed(t *testing.T) {
	store := NewConfigStore(
		map[string]any{"model.default_model": "luminous-base-control", "model.max_concurrency": 20},
		map[string]any{"model.max_concurrency": 5},
	)

	assert.Equal(t, "luminous-base-control", store.GetString("model.default_model"))
	assert.Equal(t, 5, store.GetInt("model.max_concurrency"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_LoadDiscardsUnsavedChanges(t *testing.T) {
	store := NewConfigStore(map[string]any{"storage.backend": "sqlite"})

	require.NoError(t, store.Set("storage.backend", "memory"))
	require.NoError(t, store.Load())
	assert.Equal(t, "sqlite", store.GetString("storage.backend"))

	require.NoError(t, store.Set("storage.backend", "memory"))
	require.NoError(t, store.Save())
	require.NoError(t, store.Set("storage.data_dir", "/tmp/ilayer"))
	require.NoError(t, store.Load())
	assert.Equal(t, "memory", store.GetString("storage.backend"))
	assert.Equal(t, []string{"storage.backend"}, store.Keys())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i%10)
			_ = store.Set(key, i)
			_ = store.GetInt(key)
			_ = store.Keys()
		}()
	}
	wg.Wait()

	assert.Len(t, store.Keys(), 10)
}
