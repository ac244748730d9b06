// Package web serves the browser front end.
package web

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/llmdesk/internal/apiclient"
	"github.com/dgallion1/llmdesk/internal/export"
	"github.com/dgallion1/llmdesk/internal/httplog"
	"github.com/dgallion1/llmdesk/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

const sessionCookie = "llmdesk_session"

// Backend is the subset of the API client the pages use.
type Backend interface {
	CheckHealth(ctx context.Context) bool
	ListModels(ctx context.Context) apiclient.Models
	Ask(ctx context.Context, question, model string, mode apiclient.Mode) (string, error)
}

type Options struct {
	Title      string
	Footer     string
	SessionTTL time.Duration
}

// Server renders the question page and serves exports.
type Server struct {
	router   chi.Router
	backend  Backend
	sessions *session.Store
	tmpl     *template.Template
	opts     Options
	log      *slog.Logger

	// newExporter is swapped in tests.
	newExporter func(export.Format) (export.Exporter, error)
	now         func() time.Time
}

func NewServer(backend Backend, sessions *session.Store, opts Options, log *slog.Logger) (*Server, error) {
	if opts.Title == "" {
		opts.Title = "AI Assistant"
	}
	if opts.Footer == "" {
		opts.Footer = opts.Title + " • llmdesk"
	}
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		backend:  backend,
		sessions: sessions,
		tmpl:     tmpl,
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
	s.newExporter = s.defaultExporter
	s.setupRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(httplog.RequestLogger(s.log))

	r.Get("/", s.handleIndex)
	r.Post("/ask", s.handleAsk)
	r.Post("/clear", s.handleClear)
	r.Get("/export/{format}", s.handleExport)
	r.Get("/health", s.handleHealth)

	s.router = r
}

func (s *Server) defaultExporter(f export.Format) (export.Exporter, error) {
	e, err := export.New(f)
	if err != nil {
		return nil, err
	}
	if p, ok := e.(*export.PDF); ok {
		p.Logger = s.log
	}
	return e, nil
}

// conversation returns the caller's conversation, issuing a cookie for a
// new one.
func (s *Server) conversation(w http.ResponseWriter, r *http.Request) *session.Conversation {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}
	conv, created := s.sessions.Acquire(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    conv.View().ID,
			Path:     "/",
			MaxAge:   int(s.opts.SessionTTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return conv
}

// existing returns the caller's conversation without creating one.
func (s *Server) existing(r *http.Request) *session.Conversation {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil
	}
	return s.sessions.Get(c.Value)
}
