package queue

import (
	"context"
)

// Channel is the in-process Queue backing the single-instance deployment.
type Channel struct {
	ch chan string
}

func NewChannel(size int) *Channel {
	return &Channel{ch: make(chan string, size)}
}

func (c *Channel) Enqueue(ctx context.Context, taskID string) error {
	select {
	case c.ch <- taskID:
		return nil
	default:
		return ErrQueueFull
	}
}

func (c *Channel) Consume(ctx context.Context, handler func(ctx context.Context, taskID string)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case taskID := <-c.ch:
			handler(ctx, taskID)
		}
	}
}

func (c *Channel) Close() error {
	return nil
}
