package formats

import (
	"path/filepath"
	"strings"
)

// MergeKind is the synthetic source kind for multi-file submissions. A merge
// always renders to MergeTarget regardless of the input mix.
const (
	MergeKind   = "merge"
	MergeTarget = "pdf"
)

// singleTargets is the format compatibility table for single-file
// conversions, keyed by normalized source kind.
var singleTargets = map[string][]string{
	"pdf":  {"docx", "pptx", "png", "jpg"},
	"docx": {"pdf"},
	"pptx": {"pdf"},
	"ppt":  {"pdf"},
	"png":  {"pdf", "pptx", "jpg", "gif"},
	"jpg":  {"pdf", "pptx", "png", "gif"},
	"gif":  {"pdf", "png", "jpg"},
}

var contentTypes = map[string]string{
	"pdf":  "application/pdf",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"ppt":  "application/vnd.ms-powerpoint",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"gif":  "image/gif",
}

// Normalize lowercases an extension or format name, strips a leading dot
// and folds jpeg into jpg.
func Normalize(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "jpeg" {
		return "jpg"
	}
	return ext
}

// KindFromFilename determines the source kind from a filename's extension.
// The second return value is false when the extension is not a known source.
func KindFromFilename(name string) (string, bool) {
	kind := Normalize(filepath.Ext(name))
	_, ok := singleTargets[kind]
	return kind, ok
}

// Allowed reports whether kind may be converted to target. Both arguments
// must already be normalized.
func Allowed(kind, target string) bool {
	for _, t := range singleTargets[kind] {
		if t == target {
			return true
		}
	}
	return false
}

// Pairs returns every (source, target) pair of the compatibility table,
// including the merge pair. Used to validate the converter registry at
// startup.
func Pairs() [][2]string {
	var pairs [][2]string
	for kind, targets := range singleTargets {
		for _, t := range targets {
			pairs = append(pairs, [2]string{kind, t})
		}
	}
	pairs = append(pairs, [2]string{MergeKind, MergeTarget})
	return pairs
}

// ContentType returns the MIME type for a normalized target format.
func ContentType(target string) string {
	if ct, ok := contentTypes[target]; ok {
		return ct
	}
	return "application/octet-stream"
}
