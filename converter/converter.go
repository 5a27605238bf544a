package converter

import (
	"context"
	"fmt"

	"docConverter/formats"
)

// Input is one source blob handed to a converter. Kind is the normalized
// extension of the original upload.
type Input struct {
	Name string
	Kind string
	Data []byte
}

// Func transforms one or more input blobs into a single output blob of the
// target format. Converters are stateless and reentrant; concurrent calls
// for different tasks share nothing.
type Func func(ctx context.Context, inputs []Input, target string) ([]byte, error)

// ConversionError wraps a converter failure with the attempted pair. The
// cause is preserved verbatim for the task's error payload.
type ConversionError struct {
	Source string
	Target string
	Cause  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %s to %s: %v", e.Source, e.Target, e.Cause)
}

func (e *ConversionError) Unwrap() error {
	return e.Cause
}

type pair struct {
	source string
	target string
}

// Registry maps (source kind, target format) pairs to converters. It is
// populated once at startup and read-only afterwards.
type Registry struct {
	converters map[pair]Func
}

func NewRegistry() *Registry {
	return &Registry{converters: make(map[pair]Func)}
}

func (r *Registry) Register(source, target string, fn Func) {
	r.converters[pair{source: source, target: target}] = fn
}

func (r *Registry) Lookup(source, target string) (Func, bool) {
	fn, ok := r.converters[pair{source: source, target: target}]
	return fn, ok
}

// Validate checks that every pair has a registered converter. The server
// calls this at startup so a table/registry mismatch fails fast instead of
// surfacing as an executor-time surprise.
func (r *Registry) Validate(pairs [][2]string) error {
	for _, p := range pairs {
		if _, ok := r.Lookup(p[0], p[1]); !ok {
			return fmt.Errorf("no converter registered for %s to %s", p[0], p[1])
		}
	}
	return nil
}

// NewDefaultRegistry wires a converter for every pair in the compatibility
// table: image-to-image pairs run in process, everything else goes through
// the render engine.
func NewDefaultRegistry(engine *Engine) *Registry {
	r := NewRegistry()
	for _, p := range formats.Pairs() {
		source, target := p[0], p[1]
		switch {
		case source == formats.MergeKind:
			r.Register(source, target, MergePDF(engine))
		case IsImageKind(source) && IsImageKind(target):
			r.Register(source, target, ConvertImage)
		case target == "pdf":
			r.Register(source, target, engine.RenderPDF)
		default:
			r.Register(source, target, engine.Transform)
		}
	}
	return r
}
