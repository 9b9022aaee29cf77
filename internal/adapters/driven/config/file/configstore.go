package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigFileName is the name of the settings file inside the config directory.
const ConfigFileName = "config.toml"

// ConfigStore keeps config.toml as a tree of TOML tables. Dotted keys walk
// the tree, so "chunking.size" is the size entry of the [chunking] table.
type ConfigStore struct {
	mu   sync.RWMutex
	path string
	tree map[string]any
}

// NewConfigStore opens the store in configDir, creating the directory when
// needed. An empty configDir means ~/.sercha.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating home directory: %w", err)
		}
		configDir = filepath.Join(home, ".sercha")
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	s := &ConfigStore{path: filepath.Join(configDir, ConfigFileName)}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the value at key. Tables are not values.
func (s *ConfigStore) Get(key string) (any, bool) {
	parts, err := splitKey(key)
	if err != nil {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	node := s.tree
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part].(map[string]any)
		if !ok {
			return nil, false
		}
		node = child
	}
	val, ok := node[parts[len(parts)-1]]
	if _, table := val.(map[string]any); table {
		return nil, false
	}
	return val, ok
}

// GetString returns the string at key, or "" when absent or not a string.
func (s *ConfigStore) GetString(key string) string {
	return valueAs[string](s, key)
}

// GetBool returns the bool at key, or false.
func (s *ConfigStore) GetBool(key string) bool {
	return valueAs[bool](s, key)
}

// GetInt returns the integer at key, or 0. Decoded TOML integers are int64;
// values set in-process may be int.
func (s *ConfigStore) GetInt(key string) int {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// GetStringSlice returns the string list at key, or nil. Non-string
// elements of a decoded TOML array are skipped.
func (s *ConfigStore) GetStringSlice(key string) []string {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func valueAs[T any](s *ConfigStore, key string) T {
	val, _ := s.Get(key)
	t, _ := val.(T)
	return t
}

// Set stores value at key, creating intermediate tables, and writes the
// file. A scalar in the way of a table is replaced.
func (s *ConfigStore) Set(key string, value any) error {
	parts, err := splitKey(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node := s.tree
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[part] = child
		}
		node = child
	}
	node[parts[len(parts)-1]] = value
	return s.save()
}

// Save writes the current tree to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save replaces the file through a temp file in the same directory so a
// crash never leaves it half written. Caller holds mu.
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(s.tree)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", s.path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ConfigFileName+".*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	// CreateTemp already uses 0600.
	return os.Rename(tmp.Name(), s.path)
}

// Load replaces the in-memory tree with the file contents. A missing file
// loads as empty.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tree := make(map[string]any)
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("reading %s: %w", s.path, err)
	default:
		if err := toml.Unmarshal(data, &tree); err != nil {
			return fmt.Errorf("parsing %s: %w", s.path, err)
		}
		if tree == nil {
			tree = make(map[string]any)
		}
	}
	s.tree = tree
	return nil
}

// Keys returns the dotted key of every value, sorted.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	var walk func(prefix string, node map[string]any)
	walk = func(prefix string, node map[string]any) {
		for k, v := range node {
			if child, ok := v.(map[string]any); ok {
				walk(prefix+k+".", child)
				continue
			}
			keys = append(keys, prefix+k)
		}
	}
	walk("", s.tree)
	sort.Strings(keys)
	return keys
}

// Path returns the location of config.toml.
func (s *ConfigStore) Path() string {
	return s.path
}

func splitKey(key string) ([]string, error) {
	parts := strings.Split(key, ".")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("invalid config key %q", key)
		}
	}
	return parts, nil
}
