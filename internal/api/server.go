package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/dgallion1/llmdesk/internal/config"
	"github.com/dgallion1/llmdesk/internal/httplog"
	"github.com/dgallion1/llmdesk/internal/provider"
)

// Mode keys for the two chat routes.
const (
	ModeCloud = "cloud"
	ModeLocal = "local"
)

// Server is the HTTP API that forwards questions to model providers.
type Server struct {
	router    chi.Router
	providers map[string]provider.Provider
	defaults  map[string]string
	stats     *provider.Stats
	validate  *validator.Validate
	log       *slog.Logger
	cfg       config.Server
}

// NewServer wires the cloud and local providers behind the chat routes.
// Every provider call is timed into stats.
func NewServer(cfg config.Server, cloud, local provider.Provider, stats *provider.Stats, log *slog.Logger) *Server {
	if stats == nil {
		stats = provider.NewStats(cfg.StatsWindow)
	}
	s := &Server{
		providers: map[string]provider.Provider{
			ModeCloud: provider.Timed(cloud, ModeCloud, stats),
			ModeLocal: provider.Timed(local, ModeLocal, stats),
		},
		defaults: map[string]string{
			ModeCloud: cfg.DefaultCloudModel,
			ModeLocal: cfg.DefaultLocalModel,
		},
		stats:    stats,
		validate: newValidator(),
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
	r.Use(httplog.RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Get("/models", s.handleModels)
	r.Get("/stats/llm", s.handleLLMStats)

	r.Group(func(r chi.Router) {
		if s.cfg.ChatRateLimit > 0 {
			r.Use(RateLimit(s.cfg.ChatRateLimit, s.cfg.ChatRateBurst, s.log))
		}
		r.Post("/chat/invoke", s.handleChat(ModeCloud))
		r.Post("/local_chat/invoke", s.handleChat(ModeLocal))
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type modelsResponse struct {
	CloudModels []string `json:"cloud_models"`
	LocalModels []string `json:"local_models"`
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, modelsResponse{
		CloudModels: nonNil(s.cfg.CloudModels),
		LocalModels: nonNil(s.cfg.LocalModels),
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
