// Package media stores catalogue images in S3 or on the local file system.
package media

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when deleting a key that does not exist.
var ErrNotFound = errors.New("media object not found")

// Store persists image objects under slash-separated keys.
type Store interface {
	// Put writes the object and returns its public URL.
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)

	// Delete removes the object. Returns ErrNotFound when nothing is stored under key.
	Delete(ctx context.Context, key string) error
}
