// Package badger implements an ObjectStore on an embedded BadgerDB
// key-value store. Objects survive restarts without requiring an external
// service; each ObjectID maps to one key.
package badger

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/dopd-io/dopd/pkg/store"
)

type BadgerObjectStore struct {
	path string
	db   *badger.DB
}

// New creates a Badger store persisting under path. The database is opened
// by Init.
func New(path string) *BadgerObjectStore {
	return &BadgerObjectStore{path: path}
}

func (s *BadgerObjectStore) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Badger's default logger writes straight to stderr; the daemon has its
	// own logging, so silence it.
	opts := badger.DefaultOptions(s.path).WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("open badger database at %s: %w", s.path, err)
	}

	s.db = db
	return nil
}

func (s *BadgerObjectStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BadgerObjectStore) Create(ctx context.Context, id store.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return txn.Set([]byte(id), []byte{})
		}
		return err
	})
}

func (s *BadgerObjectStore) Read(ctx context.Context, id store.ObjectID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("read %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", id, err)
	}
	return data, nil
}

func (s *BadgerObjectStore) Write(ctx context.Context, id store.ObjectID, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(id), data)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", id, err)
	}
	return nil
}

func (s *BadgerObjectStore) Truncate(ctx context.Context, id store.ObjectID, size uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(id))
		if err != nil {
			return err
		}
		data, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return txn.Set([]byte(id), store.Truncated(data, size))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("truncate %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("truncate %s: %w", id, err)
	}
	return nil
}

func (s *BadgerObjectStore) Remove(ctx context.Context, id store.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(id)); err != nil {
			return err
		}
		return txn.Delete([]byte(id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("remove %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	return nil
}

func (s *BadgerObjectStore) Exists(ctx context.Context, id store.ObjectID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(id))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", id, err)
	}
	return true, nil
}
