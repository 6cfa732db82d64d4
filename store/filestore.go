package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists keys as a single JSON document on disk. It is the
// client-side analog of browser localStorage: one owning process, flat string
// keys, small values. Writes go through a temp file and rename so a crash
// never leaves a half-written state file.
type FileStore struct {
	path string
	lock sync.Mutex
	data map[string]string
}

var _ Store = (*FileStore)(nil)

// NewFileStore loads (or creates) the state file at dir/state.json.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("store.NewFileStore mkdir: %w", err)
	}
	fs := &FileStore{
		path: filepath.Join(dir, "state.json"),
		data: make(map[string]string),
	}
	raw, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, fmt.Errorf("store.NewFileStore read: %w", err)
	}
	if err := json.Unmarshal(raw, &fs.data); err != nil {
		return nil, fmt.Errorf("store.NewFileStore parse %s: %w", fs.path, err)
	}
	return fs, nil
}

func (fs *FileStore) Get(key string) (string, bool, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	value, ok := fs.data[key]
	return value, ok, nil
}

func (fs *FileStore) Set(key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.data[key] = value
	return fs.save()
}

func (fs *FileStore) Delete(key string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	if _, ok := fs.data[key]; !ok {
		return nil
	}
	delete(fs.data, key)
	return fs.save()
}

func (fs *FileStore) save() error {
	raw, err := json.MarshalIndent(fs.data, "", "  ")
	if err != nil {
		return fmt.Errorf("store.FileStore save: %w", err)
	}
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("store.FileStore write: %w", err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return fmt.Errorf("store.FileStore rename: %w", err)
	}
	return nil
}
