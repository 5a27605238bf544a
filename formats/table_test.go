package formats

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		".PDF":  "pdf",
		"pdf":   "pdf",
		".jpeg": "jpg",
		"JPEG":  "jpg",
		".docx": "docx",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestKindFromFilename(t *testing.T) {
	kind, ok := KindFromFilename("report.PDF")
	if !ok || kind != "pdf" {
		t.Errorf("expected (pdf, true), got (%s, %v)", kind, ok)
	}

	kind, ok = KindFromFilename("photo.jpeg")
	if !ok || kind != "jpg" {
		t.Errorf("expected (jpg, true), got (%s, %v)", kind, ok)
	}

	if _, ok := KindFromFilename("archive.zip"); ok {
		t.Error("expected zip to be unknown")
	}
	if _, ok := KindFromFilename("noextension"); ok {
		t.Error("expected extension-less name to be unknown")
	}
}

func TestAllowed(t *testing.T) {
	if !Allowed("pdf", "docx") {
		t.Error("pdf to docx should be allowed")
	}
	if Allowed("pptx", "docx") {
		t.Error("pptx to docx should not be allowed")
	}
	if !Allowed("png", "pdf") {
		t.Error("png to pdf should be allowed")
	}
	if Allowed("docx", "pptx") {
		t.Error("docx to pptx should not be allowed")
	}
}

func TestPairsIncludesMerge(t *testing.T) {
	found := false
	for _, p := range Pairs() {
		if p[0] == MergeKind && p[1] == MergeTarget {
			found = true
		}
	}
	if !found {
		t.Error("Pairs() should include the merge pair")
	}
}

func TestContentType(t *testing.T) {
	if got := ContentType("pdf"); got != "application/pdf" {
		t.Errorf("unexpected content type for pdf: %s", got)
	}
	if got := ContentType("unknown"); got != "application/octet-stream" {
		t.Errorf("unexpected fallback content type: %s", got)
	}
}
