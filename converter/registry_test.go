package converter

import (
	"context"
	"strings"
	"testing"

	"docConverter/formats"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	r.Register("pdf", "docx", func(ctx context.Context, inputs []Input, target string) ([]byte, error) {
		return []byte("ok"), nil
	})

	fn, ok := r.Lookup("pdf", "docx")
	if !ok {
		t.Fatal("expected converter to be registered")
	}
	out, err := fn(context.Background(), nil, "docx")
	if err != nil || string(out) != "ok" {
		t.Fatalf("unexpected result: %q, %v", out, err)
	}

	if _, ok := r.Lookup("docx", "pdf"); ok {
		t.Fatal("expected unregistered pair to miss")
	}
}

func TestRegistry_Validate(t *testing.T) {
	r := NewRegistry()
	r.Register("pdf", "docx", func(ctx context.Context, inputs []Input, target string) ([]byte, error) {
		return nil, nil
	})

	pairs := [][2]string{{"pdf", "docx"}}
	if err := r.Validate(pairs); err != nil {
		t.Fatalf("expected validation to pass: %v", err)
	}

	pairs = append(pairs, [2]string{"docx", "pdf"})
	err := r.Validate(pairs)
	if err == nil {
		t.Fatal("expected validation to fail for missing pair")
	}
	if !strings.Contains(err.Error(), "docx to pdf") {
		t.Errorf("error should name the missing pair, got: %v", err)
	}
}

func TestNewDefaultRegistry_CoversTable(t *testing.T) {
	r := NewDefaultRegistry(NewEngine("http://engine.invalid"))
	if err := r.Validate(formats.Pairs()); err != nil {
		t.Fatalf("default registry must cover the compatibility table: %v", err)
	}
}

func TestConversionError_PreservesCause(t *testing.T) {
	cause := context.DeadlineExceeded
	err := &ConversionError{Source: "pdf", Target: "docx", Cause: cause}

	if !strings.Contains(err.Error(), "pdf to docx") {
		t.Errorf("error should name the pair: %v", err)
	}
	if !strings.Contains(err.Error(), cause.Error()) {
		t.Errorf("error should carry the cause verbatim: %v", err)
	}
}
