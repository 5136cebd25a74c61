package mediatypes

import (
	"path/filepath"
	"sort"
	"strings"
)

// ThumbnailMimeType is the content type of every generated thumbnail.
const ThumbnailMimeType = "image/png"

// MimeTypes maps lowercase extensions (with leading dot) to MIME types.
// It is the single source of truth for the supported image allow-list.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// ImageExtensions reports whether an extension is a supported image format.
var ImageExtensions = func() map[string]bool {
	exts := make(map[string]bool, len(MimeTypes))
	for ext := range MimeTypes {
		exts[ext] = true
	}
	return exts
}()

// Extension returns the lowercase extension of path, including the dot.
// Returns "" when the path has no extension.
func Extension(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// IsSupported returns true if the path has an allow-listed image extension.
func IsSupported(path string) bool {
	return ImageExtensions[Extension(path)]
}

// ContentTypeFor returns the canonical MIME type for the path's extension.
// The second return value is false for unsupported or missing extensions.
func ContentTypeFor(path string) (string, bool) {
	mime, ok := MimeTypes[Extension(path)]
	return mime, ok
}

// SupportedExtensions returns the allow-list sorted, for display purposes.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(MimeTypes))
	for ext := range MimeTypes {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
