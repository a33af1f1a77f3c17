// Package server exposes reconciliation over HTTP.
//
// Routes:
//   - POST /api/v1/reconcile  multipart upload: mode, one or more sid_files, one
//     fir_file and an optional format (xlsx, the default, or json)
//   - GET  /api/v1/stations   the station table
//   - GET  /healthz           liveness
//   - GET  /metrics           Prometheus metrics
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"sid-reconciliation-service/internal/parsers"
	"sid-reconciliation-service/internal/reconciler"
	"sid-reconciliation-service/pkg/logger"
)

// Config holds the HTTP server settings
type Config struct {
	Addr            string        `json:"addr" mapstructure:"addr" validate:"required"`
	MaxUploadMB     int64         `json:"max_upload_mb" mapstructure:"max_upload_mb" validate:"gt=0"`
	ReadTimeout     time.Duration `json:"read_timeout" mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `json:"write_timeout" mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" mapstructure:"shutdown_timeout" validate:"gt=0"`
	DownloadName    string        `json:"download_name" mapstructure:"download_name" validate:"required"`
}

// DefaultConfig returns the server defaults
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8080",
		MaxUploadMB:     32,
		ReadTimeout:     60 * time.Second,
		WriteTimeout:    120 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		DownloadName:    "Megh.xlsx",
	}
}

var configValidator = validator.New()

// Validate validates the server configuration
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid server configuration: %w", err)
	}
	return nil
}

// Server serves reconciliation requests
type Server struct {
	config  *Config
	service *reconciler.ReconciliationService
	loader  *parsers.FileLoader
	metrics *Metrics
	logger  logger.Logger
	router  chi.Router
}

// New creates a server around a reconciliation service. Uploaded sheets are
// read with loader.
func New(config *Config, service *reconciler.ReconciliationService, loader *parsers.FileLoader, log logger.Logger) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	if loader == nil {
		loader = parsers.NewFileLoader(log)
	}

	s := &Server{
		config:  config,
		service: service,
		loader:  loader,
		metrics: NewMetrics(),
		logger:  log.WithComponent("server"),
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the server's collectors
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/stations", s.handleStations)
		r.Post("/reconcile", s.handleReconcile)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": "not found"})
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.config.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
