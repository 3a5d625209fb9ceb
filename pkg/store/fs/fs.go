// Package fs implements an ObjectStore on the local filesystem. Objects are
// stored as plain files under a base directory, using the ObjectID as the
// relative path.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dopd-io/dopd/pkg/store"
)

type FSObjectStore struct {
	basePath string
}

// New creates a filesystem store rooted at basePath. The directory is
// created by Init.
func New(basePath string) *FSObjectStore {
	return &FSObjectStore{basePath: basePath}
}

func (s *FSObjectStore) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.basePath, 0755); err != nil {
		return fmt.Errorf("create base directory: %w", err)
	}
	return nil
}

func (s *FSObjectStore) Close() error {
	return nil
}

// objectPath resolves id under the base directory. IDs are validated by
// CleanID at the handler boundary, but the containment check here keeps a
// misused store from escaping its root.
func (s *FSObjectStore) objectPath(id store.ObjectID) (string, error) {
	full := filepath.Join(s.basePath, filepath.FromSlash(string(id)))
	if !strings.HasPrefix(full, filepath.Clean(s.basePath)+string(filepath.Separator)) {
		return "", fmt.Errorf("object path %q escapes store root", id)
	}
	return full, nil
}

func (s *FSObjectStore) Create(ctx context.Context, id store.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := s.objectPath(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("create %s: %w", id, err)
	}
	return f.Close()
}

func (s *FSObjectStore) Read(ctx context.Context, id store.ObjectID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	full, err := s.objectPath(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", id, err)
	}
	return data, nil
}

func (s *FSObjectStore) Write(ctx context.Context, id store.ObjectID, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := s.objectPath(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", id, err)
	}
	return nil
}

func (s *FSObjectStore) Truncate(ctx context.Context, id store.ObjectID, size uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := s.objectPath(id)
	if err != nil {
		return err
	}

	err = os.Truncate(full, int64(size))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("truncate %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("truncate %s: %w", id, err)
	}
	return nil
}

func (s *FSObjectStore) Remove(ctx context.Context, id store.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := s.objectPath(id)
	if err != nil {
		return err
	}

	err = os.Remove(full)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	return nil
}

func (s *FSObjectStore) Exists(ctx context.Context, id store.ObjectID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	full, err := s.objectPath(id)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", id, err)
	}
	return true, nil
}
