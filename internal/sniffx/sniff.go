// Package sniffx determines the true MIME type of a payload from its
// leading bytes. The client-declared file extension is never trusted for
// admission decisions; it is only a fallback label for display.
package sniffx

import (
	"net/http"
	"path/filepath"
	"strings"
)

// sniffLen matches the window http.DetectContentType inspects.
const sniffLen = 512

// Detect returns the MIME type found by magic-number inspection, without
// parameters ("text/plain", not "text/plain; charset=utf-8"). It returns
// an empty string when no signature matches.
func Detect(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}
	t := http.DetectContentType(data)
	if t == "application/octet-stream" {
		// DetectContentType's catch-all, i.e. nothing matched.
		return ""
	}
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}

// MatchesPrefix reports whether mimeType starts with any of the allowed
// prefixes. Prefixes are compared case-insensitively and may be full types
// ("application/pdf") or families ("image/").
func MatchesPrefix(mimeType string, prefixes []string) bool {
	mt := strings.ToLower(mimeType)
	for _, p := range prefixes {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if strings.HasPrefix(mt, p) {
			return true
		}
	}
	return false
}

// extensions maps detected MIME types to the canonical extension used in
// resolved file names and storage object keys.
var extensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"image/bmp":       ".bmp",
	"image/x-icon":    ".ico",
	"application/pdf": ".pdf",
	"application/zip": ".zip",
	"audio/mpeg":      ".mp3",
	"audio/wave":      ".wav",
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
	"text/plain":      ".txt",
	"text/html":       ".html",
	"text/xml":        ".xml",
}

// Extension returns the canonical extension for a detected MIME type,
// falling back to the declared file name's extension when the type is
// unknown or unmapped. The result is lower-case and either empty or
// dot-prefixed.
func Extension(mimeType, declaredName string) string {
	if ext, ok := extensions[strings.ToLower(mimeType)]; ok {
		return ext
	}
	return strings.ToLower(filepath.Ext(declaredName))
}
