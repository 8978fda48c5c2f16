package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/booksplit/internal/config"
	"github.com/dgallion1/booksplit/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for booksplit.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.BooksplitAPIKey, s.log))

		r.Post("/api/split", s.handleSplit)
		r.Post("/api/split/batch", s.handleBatchSplit)
		r.Get("/api/split/batch/{batchID}", s.handleBatchStatus)
		r.Get("/api/split/{jobID}/status", s.handleSplitStatus)
		r.Get("/api/split/{jobID}/result", s.handleSplitResult)
		r.Get("/api/split/{jobID}/files", s.handleSplitFiles)
		r.Get("/api/split/{jobID}/links", s.handleSplitLinks)
		r.Get("/api/stats", s.handleStats)

		r.Get("/api/books", s.handleListBooks)
		r.Get("/api/books/{bookID}", s.handleGetBook)
		r.Delete("/api/books/{bookID}", s.handleDeleteBook)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
