package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/docchunk/internal/config"
	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/nlp"
	"github.com/dgallion1/docchunk/internal/stats"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Server is the HTTP API server for docchunk.
type Server struct {
	router chi.Router
	an     nlp.Analyzer
	cache  *lru.Cache[string, []doctree.Chunk] // nil when caching is disabled
	stats  *stats.Recorder
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(an nlp.Analyzer, rec *stats.Recorder, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		an:    an,
		stats: rec,
		log:   log,
		cfg:   cfg,
	}
	if s.stats == nil {
		s.stats = stats.NewRecorder(cfg.StatsWindow)
	}
	if cfg.CacheSize > 0 {
		s.cache, _ = lru.New[string, []doctree.Chunk](cfg.CacheSize)
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

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/chunking", s.handleChunk)
		r.Post("/api/chunking/batch", s.handleBatchChunk)
		r.Post("/api/chunking/file", s.handleChunkFile)
		r.Get("/api/chunking/strategies", s.handleStrategies)
		r.Get("/api/stats/chunking", s.handleChunkStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
