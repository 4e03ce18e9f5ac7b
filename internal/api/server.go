package api

import (
	"log/slog"
	"net/http"

	"github.com/dmorhan/filingsift/internal/config"
	"github.com/dmorhan/filingsift/internal/pipeline"
	"github.com/dmorhan/filingsift/internal/report"
	"github.com/dmorhan/filingsift/internal/summarize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server is the HTTP API server for filingsift.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	reports      *report.Builder
	stats        *summarize.Stats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. stats may be nil when
// summaries are disabled.
func NewServer(orch *pipeline.Orchestrator, reports *report.Builder, stats *summarize.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		reports:      reports,
		stats:        stats,
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
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// API endpoints. Bearer auth applies only when a key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/filings", s.handleUpload)
		r.Get("/api/filings", s.handleListFilings)
		r.Get("/api/filings/{id}/status", s.handleStatus)
		r.Get("/api/filings/{id}/result", s.handleResult)
		r.Get("/api/filings/{id}/report", s.handleReport)
		r.Get("/api/filings/{id}/export", s.handleExport)
		r.Delete("/api/filings/{id}", s.handleDeleteFiling)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
