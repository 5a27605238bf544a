package queue

import (
	"context"
	"errors"
)

var ErrQueueFull = errors.New("task queue is full")

// Queue hands admitted task IDs from the admission gate to the executor.
// Enqueue must return quickly so admission stays synchronous; Consume blocks
// until the context is canceled.
type Queue interface {
	Enqueue(ctx context.Context, taskID string) error
	Consume(ctx context.Context, handler func(ctx context.Context, taskID string)) error
	Close() error
}
