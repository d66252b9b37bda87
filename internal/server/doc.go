// Package server exposes the HTTP surface of the daemon: the JSON catalog
// API under /api/ and the EPUB resource route under /ebook-library/.
package server
