package storage

import (
	"context"
	"errors"
	"io"
)

var ErrObjectNotFound = errors.New("object not found")

// Object describes a stored blob.
type Object struct {
	Key         string
	ContentType string
	Size        int64
}

// BlobStore keeps the binary payload of session images outside the session rows.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, Object, error)
	Delete(ctx context.Context, key string) error
}
