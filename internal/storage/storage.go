// Package storage persists chat attachment blobs. The filesystem is accessed
// through afero so handlers and tests can run against an in-memory fs.
package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Store is the blob storage contract used by the upload handler.
type Store interface {
	Save(ctx context.Context, path string, reader io.Reader) (int64, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}

// FileStore stores blobs on an afero filesystem.
type FileStore struct {
	fs afero.Fs
}

// NewFileStore wraps an existing afero filesystem.
func NewFileStore(fs afero.Fs) *FileStore {
	return &FileStore{fs: fs}
}

// NewDiskStore stores blobs under root on the real filesystem. Paths passed
// to the store are relative to root and cannot escape it.
func NewDiskStore(root string) *FileStore {
	return &FileStore{fs: afero.NewBasePathFs(afero.NewOsFs(), root)}
}

// Save writes the reader's content to path, creating parent directories as
// needed, and returns the number of bytes written.
func (s *FileStore) Save(ctx context.Context, path string, reader io.Reader) (int64, error) {
	if err := s.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, err
	}
	f, err := s.fs.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(f, reader)
}

// Open returns a reader over the blob at path.
func (s *FileStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return s.fs.OpenFile(path, os.O_RDONLY, 0)
}

// Delete removes the blob at path.
func (s *FileStore) Delete(ctx context.Context, path string) error {
	return s.fs.Remove(path)
}
