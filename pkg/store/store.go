// Package store defines the pluggable object store behind the reference
// data-object handler. An ObjectStore holds opaque byte objects addressed by
// filesystem-safe relative paths.
//
// Implementations live in the subpackages:
//   - memory: in-process map, the default and the one tests use
//   - fs: local filesystem directory
//   - badger: embedded BadgerDB key-value store
//   - s3: Amazon S3 or any S3-compatible endpoint
package store

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ObjectID addresses one object. IDs are slash-separated relative paths,
// e.g. "tmp/data.obj".
type ObjectID string

// ErrNotFound is returned for operations on objects that do not exist.
var ErrNotFound = errors.New("store: object not found")

// ObjectStore is the contract every backend implements.
//
// Operations must be safe for concurrent use. Write replaces the object's
// contents wholesale; Truncate shrinks or zero-extends to size; Create
// ensures the object exists, leaving existing contents untouched.
type ObjectStore interface {
	// Init prepares the backend (creates directories, opens databases).
	// Called once before any other operation.
	Init(ctx context.Context) error

	// Close releases backend resources.
	Close() error

	Create(ctx context.Context, id ObjectID) error
	Read(ctx context.Context, id ObjectID) ([]byte, error)
	Write(ctx context.Context, id ObjectID, data []byte) error
	Truncate(ctx context.Context, id ObjectID, size uint64) error
	Remove(ctx context.Context, id ObjectID) error
	Exists(ctx context.Context, id ObjectID) (bool, error)
}

// CleanID normalizes a raw client-supplied path into an ObjectID. Leading
// slashes are dropped so "/tmp/data.obj" and "tmp/data.obj" address the same
// object. IDs that are empty after cleaning, or that escape upward, are
// rejected.
func CleanID(raw string) (ObjectID, error) {
	normalized := strings.TrimLeft(strings.ReplaceAll(raw, "\\", "/"), "/")
	cleaned := path.Clean(normalized)

	if cleaned == "" || cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("invalid object path %q", raw)
	}

	return ObjectID(cleaned), nil
}

// Truncated derives the new contents of an object truncated to size,
// shrinking or zero-extending as needed. Shared by backends that store whole
// objects and therefore implement Truncate as read-modify-write.
func Truncated(data []byte, size uint64) []byte {
	if uint64(len(data)) >= size {
		return data[:size]
	}
	grown := make([]byte, size)
	copy(grown, data)
	return grown
}
