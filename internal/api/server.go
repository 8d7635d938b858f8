// Package api serves the analytics core as a JSON API over chi.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"cellfade/app"
	"cellfade/domain/analysis"
	"cellfade/internal"
)

// Defaults are applied to requests that leave a field unset
type Defaults struct {
	Seed       int64
	Kind       analysis.RegressionKind
	Checkpoint analysis.Checkpoint
}

// Server routes HTTP requests to the analytics service
type Server struct {
	router   *chi.Mux
	service  *app.AnalyticsService
	defaults Defaults
	logger   *internal.Logger
}

// NewServer builds the router. A nil logger uses the default one.
func NewServer(service *app.AnalyticsService, defaults Defaults, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if defaults.Kind == "" {
		defaults.Kind = analysis.KindLinear
	}
	if defaults.Checkpoint == 0 {
		defaults.Checkpoint = analysis.Checkpoint500
	}
	s := &Server{
		router:   chi.NewRouter(),
		service:  service,
		defaults: defaults,
		logger:   logger.With("api"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/tests", s.handleTests)
		r.Get("/tests/{id}/cycles", s.handleCycles)
		r.Post("/analysis", s.handleAnalysis)
		r.Get("/kpis", s.handleKPIs)
		r.Get("/retention/{checkpoint}", s.handleRetention)
		r.Post("/regression", s.handleRegression)
		r.Post("/report", s.handleReport)
		r.Get("/chemistry/{chemistry}/distribution", s.handleDistribution)
	})
}

// ServeHTTP makes Server an http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
