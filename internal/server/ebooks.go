package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/Nick-McCarthy/M-Stash-sub001/internal/ebook"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/logging"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/storage"
)

// maxUploadBytes bounds multipart EPUB uploads.
const maxUploadBytes = 512 * 1024 * 1024

type createEbookRequest struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	RemoteAddress string `json:"remote_address"`
}

func (s *Server) handleEbooks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		opts := listOptionsFromQuery(r)
		ebooks, total, err := s.store.ListEbooks(r.Context(), opts)
		if err != nil {
			s.writeServiceError(w, r, "list ebooks", err)
			return
		}
		s.writeJSON(w, http.StatusOK, mapPage(ebooks, total, opts.Limit, opts.Offset, toEbookJSON))
	case http.MethodPost:
		contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if contentType == "multipart/form-data" {
			s.handleEbookUpload(w, r)
			return
		}
		s.handleEbookCreate(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
	}
}

// handleEbookCreate registers an ebook whose archive already lives at a
// remote address.
func (s *Server) handleEbookCreate(w http.ResponseWriter, r *http.Request) {
	var req createEbookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	record, err := s.store.AddEbook(r.Context(), req.Title, req.Author, req.RemoteAddress)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid ebook", err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, toEbookJSON(record))
}

// handleEbookUpload receives an EPUB file, stores it on the object host, and
// registers the record. Title and author fall back to the archive's own
// metadata when the form omits them.
func (s *Server) handleEbookUpload(w http.ResponseWriter, r *http.Request) {
	if s.objects == nil {
		s.writeError(w, http.StatusInternalServerError, "uploads unavailable", "no object storage configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid upload", "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid upload", err.Error())
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	author := strings.TrimSpace(r.FormValue("author"))
	if title == "" || author == "" {
		if idx, err := ebook.NewIndex(data); err == nil {
			if meta, err := ebook.ExtractMetadata(idx); err == nil {
				if title == "" {
					title = meta.Title
				}
				if author == "" {
					author = meta.Author
				}
			}
		}
	}
	if title == "" {
		title = strings.TrimSuffix(header.Filename, ".epub")
	}

	key := storage.NewObjectKey(header.Filename)
	address, err := s.objects.Upload(r.Context(), key, "application/epub+zip", data)
	if err != nil {
		s.writeServiceError(w, r, "upload ebook", err)
		return
	}

	record, err := s.store.AddEbook(r.Context(), title, author, address)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid ebook", err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, toEbookJSON(record))
}

func (s *Server) handleEbookItem(w http.ResponseWriter, r *http.Request) {
	id, sub, err := itemPath(r, "/api/ebooks/")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid ebook id", err.Error())
		return
	}

	switch sub {
	case "":
		s.handleEbookRecord(w, r, id)
	case "toc":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
			return
		}
		entries, err := s.ebooks.TableOfContents(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, r, "ebook toc", err)
			return
		}
		s.writeJSON(w, http.StatusOK, toTOCJSON(entries))
	default:
		s.writeError(w, http.StatusNotFound, "not found", "")
	}
}

// handleEbookUpdate rewrites an ebook record. Fields omitted from the body
// keep their stored values. The cached archive is dropped so the next
// resource request refetches from the new address.
func (s *Server) handleEbookUpdate(w http.ResponseWriter, r *http.Request, id int64) {
	var req createEbookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	record, err := s.store.GetEbookByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, "update ebook", err)
		return
	}
	if record == nil {
		s.writeError(w, http.StatusNotFound, "ebook not found", fmt.Sprintf("no ebook with id %d", id))
		return
	}

	if strings.TrimSpace(req.Title) != "" {
		record.Title = strings.TrimSpace(req.Title)
	}
	if strings.TrimSpace(req.Author) != "" {
		record.Author = strings.TrimSpace(req.Author)
	}
	if strings.TrimSpace(req.RemoteAddress) != "" {
		record.RemoteAddress = strings.TrimSpace(req.RemoteAddress)
	}

	if err := s.store.UpdateEbook(r.Context(), record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, http.StatusNotFound, "ebook not found", fmt.Sprintf("no ebook with id %d", id))
			return
		}
		s.writeServiceError(w, r, "update ebook", err)
		return
	}
	s.ebooks.Invalidate(id)

	updated, err := s.store.GetEbookByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, "update ebook", err)
		return
	}
	if updated == nil {
		s.writeError(w, http.StatusNotFound, "ebook not found", fmt.Sprintf("no ebook with id %d", id))
		return
	}
	s.writeJSON(w, http.StatusOK, toEbookJSON(updated))
}

func (s *Server) handleEbookRecord(w http.ResponseWriter, r *http.Request, id int64) {
	switch r.Method {
	case http.MethodGet:
		record, err := s.store.GetEbookByID(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, r, "get ebook", err)
			return
		}
		if record == nil {
			s.writeError(w, http.StatusNotFound, "ebook not found", fmt.Sprintf("no ebook with id %d", id))
			return
		}
		s.writeJSON(w, http.StatusOK, toEbookJSON(record))
	case http.MethodPut:
		s.handleEbookUpdate(w, r, id)
	case http.MethodDelete:
		record, err := s.store.GetEbookByID(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, r, "delete ebook", err)
			return
		}
		if record == nil {
			s.writeError(w, http.StatusNotFound, "ebook not found", fmt.Sprintf("no ebook with id %d", id))
			return
		}

		if _, err := s.store.DeleteEbook(r.Context(), id); err != nil {
			s.writeServiceError(w, r, "delete ebook", err)
			return
		}
		s.ebooks.Invalidate(id)

		// Object removal is best effort; the record is already gone.
		if s.objects != nil {
			if err := s.objects.Delete(r.Context(), record.RemoteAddress); err != nil {
				s.logger.Warn("object delete failed",
					logging.Int64(logging.FieldEbookID, id),
					logging.Error(err))
			}
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
	}
}
