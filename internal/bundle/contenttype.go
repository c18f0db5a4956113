package bundle

import (
	"mime"
	"path/filepath"
	"strings"
)

const (
	// ContentTypeManifest is the content type for the release manifest.
	ContentTypeManifest = "application/json"

	// ContentTypeDefault is used when the extension is unknown.
	ContentTypeDefault = "application/octet-stream"
)

// extensionMap maps lowercase file extensions of common web build output to
// their MIME content types. Entries here win over the platform mime table,
// which differs between operating systems.
var extensionMap = map[string]string{
	".html":        "text/html",
	".htm":         "text/html",
	".css":         "text/css",
	".js":          "application/javascript",
	".mjs":         "application/javascript",
	".map":         "application/json",
	".json":        "application/json",
	".webmanifest": "application/manifest+json",
	".txt":         "text/plain",
	".xml":         "application/xml",
	".svg":         "image/svg+xml",
	".png":         "image/png",
	".jpg":         "image/jpeg",
	".jpeg":        "image/jpeg",
	".gif":         "image/gif",
	".webp":        "image/webp",
	".avif":        "image/avif",
	".ico":         "image/x-icon",
	".woff":        "font/woff",
	".woff2":       "font/woff2",
	".ttf":         "font/ttf",
	".otf":         "font/otf",
	".eot":         "application/vnd.ms-fontobject",
	".pdf":         "application/pdf",
	".wasm":        "application/wasm",
	".md":          "text/markdown",
	".yaml":        "application/x-yaml",
	".yml":         "application/x-yaml",
}

// ContentTypeForFile returns the content type for a file based on its
// extension. Unknown extensions fall back to the platform mime table and
// then to "application/octet-stream".
func ContentTypeForFile(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return ContentTypeDefault
	}
	if ct, ok := extensionMap[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return ContentTypeDefault
}
