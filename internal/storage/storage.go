// Package storage keeps archived report snapshots in an object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/expensely/ledger/config"
)

// ErrObjectNotFound is returned by Get when the key does not exist.
var ErrObjectNotFound = errors.New("storage: object not found")

// ObjectStorage is implemented by each object store backend. All keys live
// in one bucket chosen at construction.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Open builds the backend selected by cfg and makes sure its bucket exists.
// It returns nil, nil when archiving is disabled.
func Open(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch cfg.Backend {
	case config.BackendNone, "":
		return nil, nil
	case config.BackendMemory:
		backend = NewMemory("ledger-reports")
	case config.BackendMinio:
		var m *Minio
		if m, err = NewMinio(cfg.Minio); err == nil {
			backend = m
		}
	case config.BackendGCS:
		var g *GCS
		if g, err = NewGCS(ctx, cfg.GCS); err == nil {
			backend = g
		}
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
	}
	return backend, nil
}
