package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestLocal_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	local, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	data := []byte("hello")
	if err := local.Put(ctx, "staging/t1/000_a.pdf", data); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := local.Get(ctx, "staging/t1/000_a.pdf")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("unexpected data: %q", got)
	}

	if err := local.Delete(ctx, "staging/t1/000_a.pdf"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := local.Get(ctx, "staging/t1/000_a.pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// deleting a missing key is not an error
	if err := local.Delete(ctx, "staging/t1/000_a.pdf"); err != nil {
		t.Fatalf("repeat Delete failed: %v", err)
	}
}

func TestLocal_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	local, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	if err := local.Put(ctx, "../escape", []byte("x")); err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
	if _, err := local.Get(ctx, "a/../../escape"); err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
}
