package file

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driven"
)

var _ driven.PromptStore = (*PromptStore)(nil)

const promptExt = ".txt"

// PromptStore reads instruction prompts from <name>.txt files in a
// directory, falling back to the defaults it was created with.
//
// The directory is populated on first use, not by the constructor: missing
// default files and a README are written then. Files are read once and
// cached until Reload.
type PromptStore struct {
	dir      string
	defaults map[string]string

	initOnce sync.Once
	initErr  error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore creates a prompt store over dir, or ~/.ilayer/prompts when
// dir is empty.
func NewPromptStore(dir string, defaults map[string]string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".ilayer", "prompts")
	}

	return &PromptStore{
		dir:      dir,
		defaults: maps.Clone(defaults),
		cache:    make(map[string]string),
	}, nil
}

// Load returns the prompt called name. An empty or missing file yields the
// default; a name with neither is an error.
func (s *PromptStore) Load(name string) (string, error) {
	if err := s.init(); err != nil {
		if prompt, ok := s.defaults[name]; ok {
			return prompt, nil
		}
		return "", err
	}

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	prompt, err := s.read(name)
	switch {
	case err == nil && prompt != "":
	case s.hasDefault(name):
		prompt = s.defaults[name]
	case err == nil:
		return "", fmt.Errorf("load prompt %q: %w", name, fs.ErrNotExist)
	default:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cache[name]; ok {
		return cached, nil
	}
	s.cache[name] = prompt
	return prompt, nil
}

// Names returns the defaults plus every prompt file in the directory, sorted.
func (s *PromptStore) Names() ([]string, error) {
	names := slices.Collect(maps.Keys(s.defaults))
	if err := s.init(); err != nil {
		slices.Sort(names)
		return names, nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), promptExt)
		if !ok || entry.IsDir() || name == "" || s.hasDefault(name) {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Reload drops cached prompts so the next Load reads the files again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	clear(s.cache)
	s.mu.Unlock()
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

func (s *PromptStore) hasDefault(name string) bool {
	_, ok := s.defaults[name]
	return ok
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+promptExt)
}

func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *PromptStore) init() error {
	s.initOnce.Do(func() {
		s.initErr = s.populate()
	})
	if s.initErr != nil {
		return fmt.Errorf("prompt store init failed: %w", s.initErr)
	}
	return nil
}

func (s *PromptStore) populate() error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	for _, name := range slices.Sorted(maps.Keys(s.defaults)) {
		if err := writeIfMissing(s.path(name), s.defaults[name]+"\n"); err != nil {
			return fmt.Errorf("create default prompt %q: %w", name, err)
		}
	}
	return writeIfMissing(filepath.Join(s.dir, "README.md"), s.readme())
}

func (s *PromptStore) readme() string {
	var b strings.Builder
	b.WriteString("# Intelligence Layer Prompts\n\n")
	b.WriteString("Instructions sent to the model, one file per prompt.\n\n## Files\n\n")
	for _, name := range slices.Sorted(maps.Keys(s.defaults)) {
		fmt.Fprintf(&b, "- `%s%s`\n", name, promptExt)
	}
	b.WriteString(`
## Customisation

Edit a file to change its instruction. Running commands pick up the change
immediately. Delete a file to restore its default.

Add ` + "`" + driven.KeywordPromptPrefix + "<lang>" + promptExt + "`" + ` (a two-letter language code) to extract
keywords in another language.
`)
	return b.String()
}

func writeIfMissing(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close() //nolint:errcheck,gosec
		return err
	}
	return f.Close()
}
