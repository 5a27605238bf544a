package converter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

const (
	routeRenderPDF = "/forms/libreoffice/convert"
	routeTransform = "/forms/pdfengines/convert"
	routeMerge     = "/forms/pdfengines/merge"
)

// Engine is the client for the remote render engine that owns the document
// codecs. Requests are multipart forms; the response body is the converted
// document.
type Engine struct {
	baseURL string
	client  *http.Client
}

func NewEngine(baseURL string) *Engine {
	return &Engine{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 0, // the executor's per-task context bounds the call
		},
	}
}

// RenderPDF converts any supported document or image into a PDF.
func (e *Engine) RenderPDF(ctx context.Context, inputs []Input, target string) ([]byte, error) {
	return e.post(ctx, routeRenderPDF, inputs, nil)
}

// Transform converts a PDF into the target format, or an image into a
// presentation. The engine picks the codec from the targetFormat field.
func (e *Engine) Transform(ctx context.Context, inputs []Input, target string) ([]byte, error) {
	return e.post(ctx, routeTransform, inputs, map[string]string{"targetFormat": target})
}

// Merge concatenates PDF inputs into one document. The engine orders pages
// by filename, so callers control page order through the names they pass.
func (e *Engine) Merge(ctx context.Context, inputs []Input) ([]byte, error) {
	return e.post(ctx, routeMerge, inputs, nil)
}

func (e *Engine) post(ctx context.Context, route string, inputs []Input, fields map[string]string) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, in := range inputs {
		part, err := writer.CreateFormFile("files", in.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := part.Write(in.Data); err != nil {
			return nil, fmt.Errorf("failed to write form file: %w", err)
		}
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("failed to write form field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+route, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render engine request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("render engine returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read engine response: %w", err)
	}
	return out, nil
}
