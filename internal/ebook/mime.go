package ebook

import (
	"path"
	"strings"
)

// contentTypes is the fixed extension to MIME mapping for archive entries.
// EPUB-specific types come first; the rest cover the assets real books ship.
var contentTypes = map[string]string{
	".xml":   "application/xml",
	".opf":   "application/oebps-package+xml",
	".ncx":   "application/x-dtbncx+xml",
	".xhtml": "application/xhtml+xml",
	".html":  "text/html",
	".htm":   "text/html",
	".css":   "text/css",
	".js":    "application/javascript",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".webp":  "image/webp",
	".ttf":   "font/ttf",
	".otf":   "font/otf",
	".woff":  "font/woff",
	".woff2": "font/woff2",
}

// ContentTypeFor maps an internal path to its response content type.
// Unrecognized extensions fall back to application/octet-stream.
func ContentTypeFor(internalPath string) string {
	ext := strings.ToLower(path.Ext(internalPath))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
