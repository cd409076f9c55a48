package storage

import (
	"context"
	"io"
)

// BlobStore is one of the two content backends behind the storage selector.
// ref is the backend-specific location written into the file metadata
// record: a filesystem path or a GridFS file id.
type BlobStore interface {
	Put(ctx context.Context, name string, contentType string, r io.Reader) (ref string, size int64, err error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error

	// Ping reports backend reachability; the selector checks it up front
	// instead of letting a failed write pick the fallback.
	Ping(ctx context.Context) error
	Kind() string
}
