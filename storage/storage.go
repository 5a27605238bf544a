package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("artifact not found")

// Store holds the transient blobs of the pipeline: staged inputs under
// staging/<task-id>/ and results under results/. Keys use forward slashes.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
