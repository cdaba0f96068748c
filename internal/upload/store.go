// Package upload stores uploaded images on disk or in S3.
package upload

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Open when no file has the given name.
var ErrNotFound = errors.New("upload not found")

// ErrExists is returned by Save when the name is already taken.
var ErrExists = errors.New("upload already exists")

// Store persists uploaded files under generated names.
type Store interface {
	// Save writes r under name and returns the number of bytes written.
	Save(ctx context.Context, name string, r io.Reader) (int64, error)

	// Open returns the content stored under name.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}
