// Package storage defines the BlobStore interface the media gallery uses to
// persist generated images and videos. It abstracts the backing store so the
// gallery can keep media on local disk or in an S3-compatible object store
// without changing application code.
package storage

import (
	"context"
	"io"
)

// BlobStore is a minimal interface for media blob storage.
//
// Paths are forward-slash separated and relative to the store root.
// Implementations must be safe for concurrent use.
type BlobStore interface {
	// Read opens the named blob for reading.
	// The caller must close the returned ReadCloser when done.
	// If the blob does not exist, an error wrapping os.ErrNotExist is returned.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write opens the named blob for writing.
	// If the blob already exists it is truncated.
	// Parent directories are created automatically.
	// The caller must close the returned WriteCloser to flush data.
	Write(ctx context.Context, path string) (io.WriteCloser, error)

	// Delete removes the named blob.
	// If the blob does not exist, Delete returns nil (idempotent).
	Delete(ctx context.Context, path string) error

	// Exists reports whether the named blob exists.
	Exists(ctx context.Context, path string) (bool, error)

	// List returns the paths of all blobs under prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}
