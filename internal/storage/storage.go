// Package storage retains raw testcase archives in object storage under
// content-addressed keys. Retention is optional; parsed test cases live in
// Postgres and the judge never reads from here.
package storage

import (
	"context"
	"io"
)

// ObjectStorage is the backend surface the archive store needs. Archives
// are written once and never overwritten: keys embed the content hash.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Bucket() string
}

// Storage wraps a configured backend.
type Storage struct {
	backend ObjectStorage
}

func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend}
}

// EnsureBucket ensures the archive bucket exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Put stores an archive under the given key.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return s.backend.Put(ctx, key, r, size, contentType)
}

// Get opens a stored archive for reading.
func (s *Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.backend.Get(ctx, key)
}

// Bucket returns the backend's bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}
