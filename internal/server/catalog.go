package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Nick-McCarthy/M-Stash-sub001/internal/covers"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/library"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/services"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/storage"
)

// maxCoverBytes bounds multipart cover image uploads.
const maxCoverBytes = 32 * 1024 * 1024

type createMovieRequest struct {
	Title         string `json:"title"`
	Year          int    `json:"year"`
	RemoteAddress string `json:"remote_address"`
	CoverAddress  string `json:"cover_address"`
}

type createShowRequest struct {
	Title        string `json:"title"`
	Year         int    `json:"year"`
	CoverAddress string `json:"cover_address"`
}

type createComicRequest struct {
	Title        string `json:"title"`
	Author       string `json:"author"`
	CoverAddress string `json:"cover_address"`
}

type ingestRequest struct {
	// Directory is relative to the configured staging directory.
	Directory string `json:"directory"`
}

func (s *Server) handleMovies(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		opts := listOptionsFromQuery(r)
		movies, total, err := s.store.ListMovies(r.Context(), opts)
		if err != nil {
			s.writeServiceError(w, r, "list movies", err)
			return
		}
		s.writeJSON(w, http.StatusOK, mapPage(movies, total, opts.Limit, opts.Offset, toMovieJSON))
	case http.MethodPost:
		var req createMovieRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
		movie, err := s.store.AddMovie(r.Context(), library.Movie{
			Title:         req.Title,
			Year:          req.Year,
			RemoteAddress: req.RemoteAddress,
			CoverAddress:  req.CoverAddress,
		})
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid movie", err.Error())
			return
		}
		s.writeJSON(w, http.StatusCreated, toMovieJSON(movie))
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
	}
}

func (s *Server) handleMovieItem(w http.ResponseWriter, r *http.Request) {
	id, sub, err := itemPath(r, "/api/movies/")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid movie id", err.Error())
		return
	}
	switch sub {
	case "":
	case "cover":
		s.handleCoverUpload(w, r, "movie", func(ctx context.Context, address string) (bool, error) {
			return s.store.SetMovieCover(ctx, id, address)
		})
		return
	default:
		s.writeError(w, http.StatusNotFound, "not found", "")
		return
	}

	switch r.Method {
	case http.MethodGet:
		movie, err := s.store.GetMovieByID(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, r, "get movie", err)
			return
		}
		if movie == nil {
			s.writeError(w, http.StatusNotFound, "movie not found", fmt.Sprintf("no movie with id %d", id))
			return
		}
		s.writeJSON(w, http.StatusOK, toMovieJSON(movie))
	case http.MethodDelete:
		deleted, err := s.store.DeleteMovie(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, r, "delete movie", err)
			return
		}
		if !deleted {
			s.writeError(w, http.StatusNotFound, "movie not found", fmt.Sprintf("no movie with id %d", id))
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
	}
}

func (s *Server) handleShows(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		opts := listOptionsFromQuery(r)
		shows, total, err := s.store.ListShows(r.Context(), opts)
		if err != nil {
			s.writeServiceError(w, r, "list shows", err)
			return
		}
		s.writeJSON(w, http.StatusOK, mapPage(shows, total, opts.Limit, opts.Offset, toShowJSON))
	case http.MethodPost:
		var req createShowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
		show, err := s.store.AddShow(r.Context(), library.Show{
			Title:        req.Title,
			Year:         req.Year,
			CoverAddress: req.CoverAddress,
		})
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid show", err.Error())
			return
		}
		s.writeJSON(w, http.StatusCreated, toShowJSON(show))
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
	}
}

func (s *Server) handleShowItem(w http.ResponseWriter, r *http.Request) {
	id, sub, err := itemPath(r, "/api/shows/")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid show id", err.Error())
		return
	}

	switch sub {
	case "":
		s.handleShowRecord(w, r, id)
	case "episodes":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
			return
		}
		if exists, done := s.requireShow(w, r, id); !exists || done {
			return
		}
		episodes, err := s.store.ListEpisodes(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, r, "list episodes", err)
			return
		}
		s.writeJSON(w, http.StatusOK, mapSlice(episodes, toEpisodeJSON))
	case "ingest":
		s.handleShowIngest(w, r, id)
	default:
		s.writeError(w, http.StatusNotFound, "not found", "")
	}
}

func (s *Server) handleShowRecord(w http.ResponseWriter, r *http.Request, id int64) {
	switch r.Method {
	case http.MethodGet:
		show, err := s.store.GetShowByID(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, r, "get show", err)
			return
		}
		if show == nil {
			s.writeError(w, http.StatusNotFound, "show not found", fmt.Sprintf("no show with id %d", id))
			return
		}
		s.writeJSON(w, http.StatusOK, toShowJSON(show))
	case http.MethodDelete:
		deleted, err := s.store.DeleteShow(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, r, "delete show", err)
			return
		}
		if !deleted {
			s.writeError(w, http.StatusNotFound, "show not found", fmt.Sprintf("no show with id %d", id))
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
	}
}

func (s *Server) handleShowIngest(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	if s.ingest == nil {
		s.writeError(w, http.StatusInternalServerError, "ingestion unavailable", "no ingest service configured")
		return
	}
	dir, err := s.stagedDirectory(r)
	if err != nil {
		s.writeServiceError(w, r, "ingest show", err)
		return
	}
	episodes, err := s.ingest.IngestShow(r.Context(), id, dir)
	if err != nil {
		s.writeServiceError(w, r, "ingest show", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, mapSlice(episodes, toEpisodeJSON))
}

func (s *Server) handleComics(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		opts := listOptionsFromQuery(r)
		comics, total, err := s.store.ListComics(r.Context(), opts)
		if err != nil {
			s.writeServiceError(w, r, "list comics", err)
			return
		}
		s.writeJSON(w, http.StatusOK, mapPage(comics, total, opts.Limit, opts.Offset, toComicJSON))
	case http.MethodPost:
		var req createComicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
		comic, err := s.store.AddComic(r.Context(), library.Comic{
			Title:        req.Title,
			Author:       req.Author,
			CoverAddress: req.CoverAddress,
		})
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid comic", err.Error())
			return
		}
		s.writeJSON(w, http.StatusCreated, toComicJSON(comic))
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
	}
}

func (s *Server) handleComicItem(w http.ResponseWriter, r *http.Request) {
	id, sub, err := itemPath(r, "/api/comics/")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid comic id", err.Error())
		return
	}

	switch sub {
	case "":
		s.handleComicRecord(w, r, id)
	case "chapters":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
			return
		}
		if exists, done := s.requireComic(w, r, id); !exists || done {
			return
		}
		chapters, err := s.store.ListChapters(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, r, "list chapters", err)
			return
		}
		s.writeJSON(w, http.StatusOK, mapSlice(chapters, toChapterJSON))
	case "ingest":
		s.handleComicIngest(w, r, id)
	case "cover":
		s.handleCoverUpload(w, r, "comic", func(ctx context.Context, address string) (bool, error) {
			return s.store.SetComicCover(ctx, id, address)
		})
	default:
		s.writeError(w, http.StatusNotFound, "not found", "")
	}
}

// handleCoverUpload receives a cover image (multipart "cover" field),
// generates a display thumbnail, stores it on the object host, and records
// the resulting address on the target record.
func (s *Server) handleCoverUpload(w http.ResponseWriter, r *http.Request, name string, set func(context.Context, string) (bool, error)) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	if s.objects == nil {
		s.writeError(w, http.StatusInternalServerError, "uploads unavailable", "no object storage configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCoverBytes)
	file, _, err := r.FormFile("cover")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid upload", "missing cover field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid upload", err.Error())
		return
	}

	thumb, err := covers.Thumbnail(data, covers.DefaultWidth, covers.DefaultHeight)
	if err != nil {
		s.writeServiceError(w, r, "cover thumbnail", err)
		return
	}

	address, err := s.objects.Upload(r.Context(), storage.NewObjectKey("cover.jpg"), "image/jpeg", thumb)
	if err != nil {
		s.writeServiceError(w, r, "upload cover", err)
		return
	}

	ok, err := set(r.Context(), address)
	if err != nil {
		s.writeServiceError(w, r, "set cover", err)
		return
	}
	if !ok {
		s.writeError(w, http.StatusNotFound, name+" not found", "")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"cover_address": address})
}

func (s *Server) handleComicRecord(w http.ResponseWriter, r *http.Request, id int64) {
	switch r.Method {
	case http.MethodGet:
		comic, err := s.store.GetComicByID(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, r, "get comic", err)
			return
		}
		if comic == nil {
			s.writeError(w, http.StatusNotFound, "comic not found", fmt.Sprintf("no comic with id %d", id))
			return
		}
		s.writeJSON(w, http.StatusOK, toComicJSON(comic))
	case http.MethodDelete:
		deleted, err := s.store.DeleteComic(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, r, "delete comic", err)
			return
		}
		if !deleted {
			s.writeError(w, http.StatusNotFound, "comic not found", fmt.Sprintf("no comic with id %d", id))
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
	}
}

func (s *Server) handleComicIngest(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	if s.ingest == nil {
		s.writeError(w, http.StatusInternalServerError, "ingestion unavailable", "no ingest service configured")
		return
	}
	dir, err := s.stagedDirectory(r)
	if err != nil {
		s.writeServiceError(w, r, "ingest comic", err)
		return
	}
	chapters, err := s.ingest.IngestComic(r.Context(), id, dir)
	if err != nil {
		s.writeServiceError(w, r, "ingest comic", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, mapSlice(chapters, toChapterJSON))
}

func (s *Server) requireShow(w http.ResponseWriter, r *http.Request, id int64) (bool, bool) {
	show, err := s.store.GetShowByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, "get show", err)
		return false, true
	}
	if show == nil {
		s.writeError(w, http.StatusNotFound, "show not found", fmt.Sprintf("no show with id %d", id))
		return false, true
	}
	return true, false
}

func (s *Server) requireComic(w http.ResponseWriter, r *http.Request, id int64) (bool, bool) {
	comic, err := s.store.GetComicByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, "get comic", err)
		return false, true
	}
	if comic == nil {
		s.writeError(w, http.StatusNotFound, "comic not found", fmt.Sprintf("no comic with id %d", id))
		return false, true
	}
	return true, false
}

// stagedDirectory resolves the request's directory against the staging root,
// rejecting paths that escape it.
func (s *Server) stagedDirectory(r *http.Request) (string, error) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", services.Wrap(services.ErrValidation, "server", "ingest", "invalid request body", err)
	}
	name := strings.TrimSpace(req.Directory)
	if name == "" {
		return "", services.Wrap(services.ErrValidation, "server", "ingest", "directory is required", nil)
	}
	if filepath.IsAbs(name) {
		return "", services.Wrap(services.ErrValidation, "server", "ingest", "directory must be relative to the staging area", nil)
	}
	cleaned := filepath.Clean(name)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", services.Wrap(services.ErrValidation, "server", "ingest", "directory escapes the staging area", nil)
	}
	return filepath.Join(s.stagingDir, cleaned), nil
}

func mapSlice[S, T any](items []S, convert func(S) T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, convert(item))
	}
	return out
}
