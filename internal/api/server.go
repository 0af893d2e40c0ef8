package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tmarden/textbookd/internal/assistant"
	"github.com/tmarden/textbookd/internal/chapters"
	"github.com/tmarden/textbookd/internal/config"
	"github.com/tmarden/textbookd/internal/kvstore"
	"github.com/tmarden/textbookd/internal/session"
)

// Server is the HTTP API server for textbookd.
type Server struct {
	router   chi.Router
	sessions *session.Store
	state    *kvstore.Store
	remote   *assistant.GeminiClient
	local    *assistant.LocalBackend
	stats    *assistant.LLMStats
	vocab    map[string]string
	table    []chapters.TableEntry
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server. local may be nil when no
// local model is configured.
func NewServer(
	sessions *session.Store,
	state *kvstore.Store,
	remote *assistant.GeminiClient,
	local *assistant.LocalBackend,
	stats *assistant.LLMStats,
	vocab map[string]string,
	table []chapters.TableEntry,
	log *slog.Logger,
	cfg config.Config,
) *Server {
	s := &Server{
		sessions: sessions,
		state:    state,
		remote:   remote,
		local:    local,
		stats:    stats,
		vocab:    vocab,
		table:    table,
		log:      log,
		cfg:      cfg,
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
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/books", s.handleUploadBook)

		r.Route("/api/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Post("/goto", s.handleGoToPage)
			r.Get("/page", s.handleGetPage)
			r.Get("/chapters", s.handleGetChapters)
			r.Put("/bookmark", s.handleSetBookmark)
			r.Delete("/bookmark", s.handleClearBookmark)
			r.Post("/ask", s.handleAsk)
		})

		r.Put("/api/credentials/gemini", s.handleSetCredential)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
