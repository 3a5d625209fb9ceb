// Package memory implements an in-process ObjectStore backed by a map. It
// is the default backend and the one tests use; contents do not survive a
// restart.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dopd-io/dopd/pkg/store"
)

type MemoryObjectStore struct {
	mu      sync.RWMutex
	objects map[store.ObjectID][]byte
}

// New creates an empty in-memory store.
func New() *MemoryObjectStore {
	return &MemoryObjectStore{
		objects: make(map[store.ObjectID][]byte),
	}
}

func (s *MemoryObjectStore) Init(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryObjectStore) Close() error {
	return nil
}

func (s *MemoryObjectStore) Create(ctx context.Context, id store.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[id]; !ok {
		s.objects[id] = []byte{}
	}
	return nil
}

func (s *MemoryObjectStore) Read(ctx context.Context, id store.ObjectID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.objects[id]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", id, store.ErrNotFound)
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemoryObjectStore) Write(ctx context.Context, id store.ObjectID, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	s.objects[id] = stored
	return nil
}

func (s *MemoryObjectStore) Truncate(ctx context.Context, id store.ObjectID, size uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.objects[id]
	if !ok {
		return fmt.Errorf("truncate %s: %w", id, store.ErrNotFound)
	}

	s.objects[id] = store.Truncated(data, size)
	return nil
}

func (s *MemoryObjectStore) Remove(ctx context.Context, id store.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[id]; !ok {
		return fmt.Errorf("remove %s: %w", id, store.ErrNotFound)
	}

	delete(s.objects, id)
	return nil
}

func (s *MemoryObjectStore) Exists(ctx context.Context, id store.ObjectID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.objects[id]
	return ok, nil
}
