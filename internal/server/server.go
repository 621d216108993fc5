// Package server implements the relmap HTTP preview server.
//
// The server exposes the entry store and the visualization pipeline over a
// small JSON/image API, so external tools (and the occasional browser tab)
// can read the same maps the CLI exports. It shares the pipeline Runner with
// the CLI, so caching behavior is identical across both entry points.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/rwyengine/relmap/pkg/errors"
	"github.com/rwyengine/relmap/pkg/pipeline"
	"github.com/rwyengine/relmap/pkg/store"
)

// Server serves relationship maps over HTTP.
type Server struct {
	store  store.Store
	runner *pipeline.Runner
	logger *log.Logger
	dbPath string

	httpServer *http.Server
}

// Config holds server construction parameters.
type Config struct {
	Addr   string
	DBPath string
	Store  store.Store
	Runner *pipeline.Runner
	Logger *log.Logger
}

// New creates a server. The store and runner are required; the logger
// defaults to the package-level default.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	s := &Server{
		store:  cfg.Store,
		runner: cfg.Runner,
		logger: cfg.Logger,
		dbPath: cfg.DBPath,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// routes builds the chi router with all endpoints registered.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/entries", func(r chi.Router) {
			r.Get("/", s.handleListEntries)
			r.Post("/", s.handleCreateEntry)
			r.Get("/{id}", s.handleGetEntry)
			r.Delete("/{id}", s.handleDeleteEntry)
		})
		r.Route("/relationships", func(r chi.Router) {
			r.Get("/", s.handleListRelationships)
			r.Post("/", s.handleCreateRelationship)
			r.Delete("/{id}", s.handleDeleteRelationship)
		})

		r.Get("/graph", s.handleGraph)
		r.Get("/layout", s.handleLayout)
		r.Get("/map.png", s.handleMap(pipeline.FormatPNG, "image/png"))
		r.Get("/map.svg", s.handleMap(pipeline.FormatSVG, "image/svg+xml"))
		r.Get("/map.dot", s.handleMap(pipeline.FormatDOT, "text/vnd.graphviz"))
	})

	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// logRequests logs each request with method, path, status, and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusForCode maps application error codes to HTTP status codes.
func statusForCode(code apperrors.Code) int {
	switch code {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidReference,
		apperrors.ErrCodeInvalidMode, apperrors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound, apperrors.ErrCodeEntryNotFound,
		apperrors.ErrCodeNodeNotFound, apperrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeExportEmpty:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
