package store

import (
	"context"
	"time"

	"github.com/dopd-io/dopd/pkg/metrics"
)

// MeasuredObjectStore wraps an ObjectStore and records every call through a
// StoreMetrics instance.
type MeasuredObjectStore struct {
	inner ObjectStore
	m     metrics.StoreMetrics
}

// Measured wraps s with metrics collection. A nil m returns s unchanged.
func Measured(s ObjectStore, m metrics.StoreMetrics) ObjectStore {
	if m == nil {
		return s
	}
	return &MeasuredObjectStore{inner: s, m: m}
}

func (s *MeasuredObjectStore) Init(ctx context.Context) error {
	start := time.Now()
	err := s.inner.Init(ctx)
	s.m.RecordOperation("init", time.Since(start), err)
	return err
}

func (s *MeasuredObjectStore) Close() error {
	start := time.Now()
	err := s.inner.Close()
	s.m.RecordOperation("close", time.Since(start), err)
	return err
}

func (s *MeasuredObjectStore) Create(ctx context.Context, id ObjectID) error {
	start := time.Now()
	err := s.inner.Create(ctx, id)
	s.m.RecordOperation("create", time.Since(start), err)
	return err
}

func (s *MeasuredObjectStore) Read(ctx context.Context, id ObjectID) ([]byte, error) {
	start := time.Now()
	data, err := s.inner.Read(ctx, id)
	s.m.RecordOperation("read", time.Since(start), err)
	if err == nil {
		s.m.RecordBytes("read", len(data))
	}
	return data, err
}

func (s *MeasuredObjectStore) Write(ctx context.Context, id ObjectID, data []byte) error {
	start := time.Now()
	err := s.inner.Write(ctx, id, data)
	s.m.RecordOperation("write", time.Since(start), err)
	if err == nil {
		s.m.RecordBytes("write", len(data))
	}
	return err
}

func (s *MeasuredObjectStore) Truncate(ctx context.Context, id ObjectID, size uint64) error {
	start := time.Now()
	err := s.inner.Truncate(ctx, id, size)
	s.m.RecordOperation("truncate", time.Since(start), err)
	return err
}

func (s *MeasuredObjectStore) Remove(ctx context.Context, id ObjectID) error {
	start := time.Now()
	err := s.inner.Remove(ctx, id)
	s.m.RecordOperation("remove", time.Since(start), err)
	return err
}

func (s *MeasuredObjectStore) Exists(ctx context.Context, id ObjectID) (bool, error) {
	start := time.Now()
	ok, err := s.inner.Exists(ctx, id)
	s.m.RecordOperation("exists", time.Since(start), err)
	return ok, err
}
