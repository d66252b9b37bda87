package server

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/Nick-McCarthy/M-Stash-sub001/internal/ebook"
)

// refererEbookID extracts an ebook id from a reader page URL. Some reader
// frontends request book resources without the ebookId query parameter and
// the only hint left is the page that linked them. Fragile by nature; the
// query parameter always wins when present.
var refererEbookID = regexp.MustCompile(`/ebook-library/(\d+)`)

// handleEbookResource serves one internal EPUB resource:
// GET /ebook-library/{path}?ebookId={id}.
func (s *Server) handleEbookResource(w http.ResponseWriter, r *http.Request) {
	writeCORSHeaders(w)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodGet:
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	requested := strings.TrimPrefix(r.URL.Path, "/ebook-library/")
	if requested == "" {
		s.writeError(w, http.StatusBadRequest, "missing resource path", "request a file inside the book archive")
		return
	}

	id, ok := s.ebookIDFromRequest(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "missing or invalid ebookId",
			"provide a numeric ebookId query parameter")
		return
	}

	resource, err := s.ebooks.Resource(r.Context(), id, requested)
	if err != nil {
		s.writeServiceError(w, r, "ebook resource", err)
		return
	}

	switch resource.Resolution {
	case ebook.ResolutionFound:
		w.Header().Set("Content-Type", resource.ContentType)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(resource.Data)
	case ebook.ResolutionOptionalMissing:
		w.Header().Set("Content-Type", "application/xml")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(ebook.OptionalStubXML))
	default:
		s.writeError(w, http.StatusNotFound, "resource not found",
			fmt.Sprintf("no entry %q in the book archive", requested))
	}
}

// ebookIDFromRequest reads the ebookId query parameter, falling back to the
// Referer header when the parameter is absent or blank.
func (s *Server) ebookIDFromRequest(r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("ebookId"))
	if raw == "" {
		if m := refererEbookID.FindStringSubmatch(r.Header.Get("Referer")); m != nil {
			raw = m[1]
		}
	}
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeCORSHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Range")
}
