package storage

import (
	"context"
	"io"
)

// UploadStorage holds uploaded batch files between submission and the end of
// background processing. Each key is written once by the upload handler and
// read then deleted once by the job controller.
type UploadStorage interface {
	// Save stores the upload under key. It fails if the key already exists.
	Save(ctx context.Context, key string, reader io.Reader, size int64) error

	// Open returns the stored upload for reading.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the stored upload. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
