// Package api exposes the HTTP surface: health and readiness probes, the
// Prometheus scrape endpoint, alignment queries, transcript injection for
// recognizer-less deployments, and a websocket event stream for caption
// clients.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banilabs/banitrack/internal/app"
	"github.com/banilabs/banitrack/internal/health"
	"github.com/banilabs/banitrack/internal/observe"
)

// Server is the HTTP API server.
type Server struct {
	app    *app.App
	health *health.Handler
	log    *slog.Logger
	router chi.Router
}

// NewServer creates and configures the HTTP server around a running app.
func NewServer(a *app.App, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		app: a,
		log: log.With(slog.String("component", "api")),
	}
	s.health = health.New(health.Checker{
		Name: "corpus",
		Check: func(context.Context) error {
			if a.Library().Len() == 0 {
				return errors.New("corpus library is empty")
			}
			return nil
		},
	})
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(observe.Middleware(s.app.Metrics()))
	r.Use(RequestLogger(s.log))

	r.Get("/healthz", s.health.Healthz)
	r.Get("/readyz", s.health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/alignment", s.handleAlignment)
		r.Get("/speech", s.handleSpeech)
		r.Post("/transcribe", s.handleTranscribe)
		r.Post("/reset", s.handleReset)
		r.Get("/events", s.handleEvents)
	})

	s.router = r
}
