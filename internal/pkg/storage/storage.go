// Package storage stores opaque objects (profile images) by key in a single
// bucket or directory chosen at startup.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	// ErrInvalidKey is returned for empty keys or keys that escape the bucket.
	ErrInvalidKey = errors.New("storage: invalid object key")
	// ErrBucketRequired is returned when a cloud driver has no bucket.
	ErrBucketRequired = errors.New("storage: bucket is required")
)

// Storage writes and removes objects. Delete of a missing key is not an
// error.
type Storage interface {
	io.Closer

	// Put stores the content of r under key. size may be -1 when unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Delete removes key.
	Delete(ctx context.Context, key string) error
}

// CleanKey validates key and returns its canonical form. Keys are slash
// separated and must stay inside the bucket.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}

	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") {
		return "", ErrInvalidKey
	}

	return cleaned, nil
}
