package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/transcribepro/transcribepro/internal/config"
	"github.com/transcribepro/transcribepro/internal/metrics"
	"github.com/transcribepro/transcribepro/internal/storage"
)

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

// ServerOptions are the collaborators wired into the HTTP API.
type ServerOptions struct {
	Config      *config.Config
	Transcriber Transcriber
	Store       storage.TranscriptStore
	Version     string
	StartTime   time.Time
	InboxDir    string // empty when the inbox watcher is disabled
	Log         zerolog.Logger
}

// NewRouter builds the API routes. Split from NewServer so tests can serve it
// through httptest.
func NewRouter(opts ServerOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logger(opts.Log))
	r.Use(Recoverer)
	r.Use(metrics.InstrumentHandler)

	r.Handle("/metrics", promhttp.Handler())

	health := NewHealthHandler(opts.Store, opts.InboxDir, opts.Version, opts.StartTime)
	r.Route("/api/v1", func(r chi.Router) {
		// Health endpoint, no auth
		r.Get("/health", health.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(BearerAuth(opts.Config.AuthToken))
			NewTranscriptionHandler(opts.Transcriber, opts.Store, opts.Config.OpenAIAPIKey, opts.Config.Language, opts.Log).Routes(r)
			NewTranscriptsHandler(opts.Store, opts.Log).Routes(r)
		})
	})

	return r
}

func NewServer(opts ServerOptions) *Server {
	cfg := opts.Config
	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      NewRouter(opts),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: opts.Log,
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
