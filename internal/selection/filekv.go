package selection

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileKV is a durable key-value store backed by one JSON file.
type FileKV struct {
	mu   sync.Mutex
	path string
}

// DefaultKVPath is where selection state lives for the signed-in user.
func DefaultKVPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "loft", "selection.json"), nil
}

// OpenFileKV creates a file-backed store at path.
func OpenFileKV(path string) *FileKV {
	return &FileKV{path: path}
}

// Get returns the value for key, with ok=false when absent.
func (f *FileKV) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries, err := f.read()
	if err != nil {
		return "", false
	}
	value, ok := entries[key]
	return value, ok
}

// Set writes a key.
func (f *FileKV) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries, err := f.read()
	if err != nil {
		return err
	}
	entries[key] = value
	return f.writeAll(entries)
}

// Remove deletes a key. Removing an absent key is a no-op.
func (f *FileKV) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	return f.writeAll(entries)
}

// ListKeys returns the keys matching a prefix, sorted.
func (f *FileKV) ListKeys(prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries, err := f.read()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(entries))
	for key := range entries {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *FileKV) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.path, err)
	}
	if entries == nil {
		entries = map[string]string{}
	}
	return entries, nil
}

func (f *FileKV) writeAll(entries map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(f.path, data, 0o644)
}
