package queue

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestChannel_EnqueueConsume(t *testing.T) {
	q := NewChannel(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := q.Enqueue(ctx, "t1"); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := q.Enqueue(ctx, "t2"); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	got := make(chan string, 2)
	go q.Consume(ctx, func(ctx context.Context, taskID string) {
		got <- taskID
	})

	for _, want := range []string{"t1", "t2"} {
		select {
		case id := <-got:
			if id != want {
				t.Errorf("expected %s, got %s", want, id)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for task")
		}
	}
}

func TestChannel_FullQueue(t *testing.T) {
	q := NewChannel(1)
	ctx := context.Background()

	if err := q.Enqueue(ctx, "t1"); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := q.Enqueue(ctx, "t2"); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestChannel_ConsumeStopsOnCancel(t *testing.T) {
	q := NewChannel(1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- q.Consume(ctx, func(ctx context.Context, taskID string) {})
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Consume did not stop on cancel")
	}
}
