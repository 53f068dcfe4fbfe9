package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/amaumene/gorated/internal/api/handlers"
	"github.com/amaumene/gorated/internal/api/middleware"
	"github.com/amaumene/gorated/internal/config"
	"github.com/amaumene/gorated/internal/controllers"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	logger *logrus.Logger
}

// Dependencies are the components served over HTTP
type Dependencies struct {
	Store   handlers.MediaCounter
	Tracker handlers.SyncStatus
	Recent  handlers.RecentSource
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, deps Dependencies, logger *logrus.Logger) *Server {
	s := &Server{logger: logger}

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      NewRouter(deps, cfg.RecentDefaultLimit, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // a stale query may wait for a full TMDB sync
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// NewRouter configures all HTTP routes
func NewRouter(deps Dependencies, defaultLimit int, logger *logrus.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logging(logger))

	r.Get("/health", handlers.NewHealthHandler(logger).ServeHTTP)
	r.Get("/status", handlers.NewStatusHandler(deps.Store, deps.Tracker, controllers.StaleAfter, logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/recent", handlers.NewRecentHandler(deps.Recent, defaultLimit, logger).ServeHTTP)
	})

	return r
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
