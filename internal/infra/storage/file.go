package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	repo "rocketcart/internal/repository"

	"github.com/pkg/errors"
)

// FileStore は1つのJSONファイルに全キーを保存する（localStorage相当）。
// Setのたびにtempファイルへ書いてからrenameする。
type FileStore struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

func NewFileStore(path string) (*FileStore, error) {
	values, err := readValues(path)
	if err != nil {
		return nil, err
	}
	return &FileStore{path: path, values: values}, nil
}

func (f *FileStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.values[key]
	if !ok {
		return "", repo.ErrNotFound
	}
	return v, nil
}

func (f *FileStore) Set(ctx context.Context, key string, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := make(map[string]string, len(f.values)+1)
	for k, v := range f.values {
		next[k] = v
	}
	next[key] = value

	if err := writeValues(f.path, next); err != nil {
		return err
	}
	f.values = next
	return nil
}

func (f *FileStore) Path() string {
	return f.path
}

func readValues(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read storage file %s", path)
	}
	if len(data) == 0 {
		return map[string]string{}, nil
	}

	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, errors.Wrapf(err, "decode storage file %s", path)
	}
	return values, nil
}

func writeValues(path string, values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create storage dir")
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode storage")
	}

	temp := path + ".tmp"
	if err := os.WriteFile(temp, data, 0o644); err != nil {
		return errors.Wrap(err, "write storage temp file")
	}
	return errors.Wrap(os.Rename(temp, path), "replace storage file")
}
