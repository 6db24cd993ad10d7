package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by BlobStore.Get for a blob that does not exist.
// First-run reads and missing portrait sidecars are expected states, so
// callers map this to a default value instead of failing.
var ErrNotFound = errors.New("blob not found")

// BlobStore abstracts reading, writing and deleting a single named blob
// against the backing medium. The medium is selected once at startup; the
// rest of the code holds one instance and never branches on which one it is.
//
// The message parameter is the human-readable change description recorded by
// version-controlled mediums. The local medium ignores it.
type BlobStore interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Put(ctx context.Context, path string, data []byte, message string) error
	Delete(ctx context.Context, path string, message string) error
}
