package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Nick-McCarthy/M-Stash-sub001/internal/config"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/ebook"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/ingest"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/library"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/logging"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/services"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/storage"
)

// StatusProvider reports daemon state for the /api/status route.
type StatusProvider interface {
	Status(ctx context.Context) Status
}

// Status is the payload served by /api/status.
type Status struct {
	Running      bool   `json:"running"`
	PID          int    `json:"pid"`
	DatabasePath string `json:"database_path"`
	LockFilePath string `json:"lock_file_path"`
}

// Server hosts the HTTP API. Construct with New, then Start/Stop around the
// daemon lifecycle.
type Server struct {
	bind       string
	stagingDir string
	logger     *slog.Logger
	store      *library.Store
	ebooks     *ebook.Service
	ingest     *ingest.Service
	objects    *storage.Client
	status     StatusProvider

	listener net.Listener
	server   *http.Server
}

// Options carries the collaborators the server routes to. Objects and Status
// may be nil; the corresponding routes degrade gracefully.
type Options struct {
	Store   *library.Store
	Ebooks  *ebook.Service
	Ingest  *ingest.Service
	Objects *storage.Client
	Status  StatusProvider
}

// New builds the server. The bind address comes from configuration.
func New(cfg *config.Config, opts Options, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "server", "new", "configuration is required", nil)
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, services.Wrap(services.ErrConfiguration, "server", "new", "paths.api_bind is not set", nil)
	}
	if opts.Store == nil || opts.Ebooks == nil {
		return nil, services.Wrap(services.ErrConfiguration, "server", "new", "store and ebook service are required", nil)
	}

	srv := &Server{
		bind:       bind,
		stagingDir: cfg.Paths.StagingDir,
		logger:     logging.NewComponentLogger(logger, "api-server"),
		store:      opts.Store,
		ebooks:     opts.Ebooks,
		ingest:     opts.Ingest,
		objects:    opts.Objects,
		status:     opts.Status,
	}
	srv.server = &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Handler returns the full route tree. Exposed for httptest-based tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ebook-library/", s.handleEbookResource)

	mux.HandleFunc("/api/status", s.handleStatus)

	mux.HandleFunc("/api/movies", s.handleMovies)
	mux.HandleFunc("/api/movies/", s.handleMovieItem)
	mux.HandleFunc("/api/shows", s.handleShows)
	mux.HandleFunc("/api/shows/", s.handleShowItem)
	mux.HandleFunc("/api/comics", s.handleComics)
	mux.HandleFunc("/api/comics/", s.handleComicItem)
	mux.HandleFunc("/api/ebooks", s.handleEbooks)
	mux.HandleFunc("/api/ebooks/", s.handleEbookItem)

	return s.withRequestID(mux)
}

// Start binds the listener and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// withRequestID stamps every request with a correlation id, available to
// handlers via the request context and echoed in the X-Request-ID header.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	if s.status == nil {
		s.writeJSON(w, http.StatusOK, Status{Running: true, DatabasePath: s.store.Path()})
		return
	}
	s.writeJSON(w, http.StatusOK, s.status.Status(r.Context()))
}
