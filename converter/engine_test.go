package converter

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func partNames(t *testing.T, r *http.Request) []string {
	t.Helper()

	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("expected multipart/form-data, got %q (err=%v)", mediaType, err)
	}

	reader := multipart.NewReader(r.Body, params["boundary"])
	var names []string
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read multipart part: %v", err)
		}
		if part.FileName() != "" {
			names = append(names, part.FileName())
		}
		_, _ = io.Copy(io.Discard, part)
		_ = part.Close()
	}
	return names
}

func TestEngine_RenderPDF(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forms/libreoffice/convert" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		names := partNames(t, r)
		if len(names) != 1 || names[0] != "report.docx" {
			t.Errorf("unexpected part names: %v", names)
		}
		w.Write([]byte("%PDF-1.4\n%EOF\n"))
	}))
	defer server.Close()

	engine := NewEngine(server.URL)
	out, err := engine.RenderPDF(context.Background(), []Input{
		{Name: "report.docx", Kind: "docx", Data: []byte("dummy")},
	}, "pdf")
	if err != nil {
		t.Fatalf("RenderPDF failed: %v", err)
	}
	if !strings.HasPrefix(string(out), "%PDF") {
		t.Errorf("expected PDF output, got %q", out)
	}
}

func TestEngine_TransformSendsTargetFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forms/pdfengines/convert" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		if got := r.FormValue("targetFormat"); got != "docx" {
			t.Errorf("expected targetFormat=docx, got %q", got)
		}
		w.Write([]byte("converted"))
	}))
	defer server.Close()

	engine := NewEngine(server.URL)
	out, err := engine.Transform(context.Background(), []Input{
		{Name: "in.pdf", Kind: "pdf", Data: []byte("%PDF-1.4")},
	}, "docx")
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if string(out) != "converted" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestEngine_ErrorIncludesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "codec exploded", http.StatusInternalServerError)
	}))
	defer server.Close()

	engine := NewEngine(server.URL)
	_, err := engine.RenderPDF(context.Background(), []Input{
		{Name: "in.docx", Kind: "docx", Data: []byte("dummy")},
	}, "pdf")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "codec exploded") {
		t.Errorf("error should carry the engine's response: %v", err)
	}
}

func TestMergePDF_NormalizesAndPreservesOrder(t *testing.T) {
	var renderCount int
	var mergeNames []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/forms/libreoffice/convert":
			renderCount++
			io.Copy(io.Discard, r.Body)
			w.Write([]byte("%PDF-rendered"))
		case "/forms/pdfengines/merge":
			mergeNames = partNames(t, r)
			w.Write([]byte("%PDF-merged"))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	merge := MergePDF(NewEngine(server.URL))
	inputs := []Input{
		{Name: "a.png", Kind: "png", Data: []byte("png-bytes")},
		{Name: "b.jpg", Kind: "jpg", Data: []byte("jpg-bytes")},
		{Name: "c.pdf", Kind: "pdf", Data: []byte("%PDF-c")},
	}

	out, err := merge(context.Background(), inputs, "pdf")
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if string(out) != "%PDF-merged" {
		t.Errorf("unexpected output: %q", out)
	}

	// only the two non-PDF inputs need normalization
	if renderCount != 2 {
		t.Errorf("expected 2 render calls, got %d", renderCount)
	}

	want := []string{"000_a.pdf", "001_b.pdf", "002_c.pdf"}
	if len(mergeNames) != len(want) {
		t.Fatalf("expected %d merge parts, got %v", len(want), mergeNames)
	}
	for i, name := range want {
		if mergeNames[i] != name {
			t.Errorf("part %d: expected %s, got %s", i, name, mergeNames[i])
		}
	}
}

func TestMergePDF_NormalizationFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad image", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	merge := MergePDF(NewEngine(server.URL))
	_, err := merge(context.Background(), []Input{
		{Name: "a.png", Kind: "png", Data: []byte("junk")},
		{Name: "c.pdf", Kind: "pdf", Data: []byte("%PDF-c")},
	}, "pdf")
	if err == nil {
		t.Fatal("expected error when normalization fails")
	}
	if !strings.Contains(err.Error(), "a.png") {
		t.Errorf("error should name the failing input: %v", err)
	}
}
