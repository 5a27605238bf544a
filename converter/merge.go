package converter

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// MergePDF returns the converter for multi-file submissions. Every input is
// first normalized into a PDF: PDF inputs pass through, anything else is
// rendered by the engine, which fits one image per page. The normalized
// parts then merge in submission order. The engine merges by filename, so
// each part carries a zero-padded index prefix to pin the page order.
func MergePDF(engine *Engine) Func {
	return func(ctx context.Context, inputs []Input, target string) ([]byte, error) {
		parts := make([]Input, 0, len(inputs))
		for i, in := range inputs {
			data := in.Data
			if in.Kind != "pdf" {
				rendered, err := engine.RenderPDF(ctx, []Input{in}, "pdf")
				if err != nil {
					return nil, fmt.Errorf("normalize %s: %w", in.Name, err)
				}
				data = rendered
			}
			stem := strings.TrimSuffix(in.Name, filepath.Ext(in.Name))
			parts = append(parts, Input{
				Name: fmt.Sprintf("%03d_%s.pdf", i, stem),
				Kind: "pdf",
				Data: data,
			})
		}
		return engine.Merge(ctx, parts)
	}
}
