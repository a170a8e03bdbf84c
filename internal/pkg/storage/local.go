package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalOptions configures the filesystem backend.
type LocalOptions struct {
	// Dir is the root directory. It is created when missing.
	Dir string
}

// Local stores objects as files under a root directory.
type Local struct {
	dir string
}

// NewLocal prepares dir and returns a Local storage.
func NewLocal(opts LocalOptions) (*Local, error) {
	if opts.Dir == "" {
		return nil, ErrBucketRequired
	}

	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve local dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("storage: create local dir: %w", err)
	}

	return &Local{dir: dir}, nil
}

// Dir returns the absolute root directory, for serving files over HTTP.
func (l *Local) Dir() string {
	return l.dir
}

// Put writes r to a temporary file and renames it into place so readers
// never observe a partial object.
func (l *Local) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("storage: create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("storage: create temp object: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close object: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("storage: chmod object: %w", err)
	}

	return os.Rename(tmp.Name(), target)
}

// Delete removes the file for key.
func (l *Local) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete object: %w", err)
	}

	return nil
}

// Close implements io.Closer.
func (l *Local) Close() error {
	return nil
}

func (l *Local) path(key string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.dir, filepath.FromSlash(cleaned)), nil
}
