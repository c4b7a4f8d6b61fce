package pipeline

import (
	"mime"
	"path"
	"strings"
)

const (
	MIMEJavaScript = "application/javascript"
	MIMECSS        = "text/css"
	MIMEOctet      = "application/octet-stream"
)

// Extension lookups are pinned for the types the stages key off, so the
// result does not depend on the host's mime.types.
var knownTypes = map[string]string{
	".js":   MIMEJavaScript,
	".mjs":  MIMEJavaScript,
	".css":  MIMECSS,
	".html": "text/html",
	".htm":  "text/html",
	".json": "application/json",
	".svg":  "image/svg+xml",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".avif": "image/avif",
	".ico":  "image/x-icon",
	".wasm": "application/wasm",
}

// TypeByExtension returns the bare MIME type (no parameters) for the
// extension of p, or MIMEOctet when unknown.
func TypeByExtension(p string) string {
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return MIMEOctet
	}
	if t, ok := knownTypes[ext]; ok {
		return t
	}
	t := mime.TypeByExtension(ext)
	if t == "" {
		return MIMEOctet
	}
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return t
}

// IsImage reports whether t is an image MIME type.
func IsImage(t string) bool {
	return strings.HasPrefix(t, "image/")
}

// ContentTypeHeader renders t for the Content-Type header, adding a UTF-8
// charset to textual types.
func ContentTypeHeader(t string) string {
	if t == "" {
		return MIMEOctet
	}
	if strings.HasPrefix(t, "text/") || t == MIMEJavaScript || t == "application/json" || t == "image/svg+xml" {
		return t + "; charset=utf-8"
	}
	return t
}
