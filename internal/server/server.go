package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/akave-ai/logwatch/internal/admission"
	"github.com/akave-ai/logwatch/internal/config"
	"github.com/akave-ai/logwatch/internal/handler"
	"github.com/akave-ai/logwatch/internal/infrastructure/sinks"
)

// Deps are the collaborators the routes are served by. Nil pipelines leave
// their route unregistered; a nil Revoker or empty admin key leaves the admin
// routes unregistered.
type Deps struct {
	Logger      zerolog.Logger
	Ingest      *admission.Pipeline
	Entrypoint  *admission.Pipeline
	Registry    *sinks.Registry
	ActiveSinks map[string]string
	Revoker     handler.Revoker
	Health      map[string]handler.HealthCheck
	NewRelic    *newrelic.Application
}

// Server holds the Echo app and its configuration.
type Server struct {
	Echo   *echo.Echo
	Config *config.Config
	logger zerolog.Logger
}

// New builds the Echo server and registers routes.
func New(cfg *config.Config, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	if deps.NewRelic != nil {
		e.Use(newRelicMiddleware(deps.NewRelic))
	}

	// Public routes
	health := &handler.HealthHandler{Checks: deps.Health}
	e.GET("/healthz", health.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Admission
	if deps.Ingest != nil {
		h := &handler.AdmissionHandler{Pipeline: deps.Ingest}
		e.POST("/ingest", h.Handle)
	}
	if deps.Entrypoint != nil {
		h := &handler.AdmissionHandler{Pipeline: deps.Entrypoint}
		e.POST("/entrypoint", h.Handle)
	}

	// Sink catalogue
	registry := deps.Registry
	if registry == nil {
		registry = sinks.GlobalRegistry
	}
	sinkHandler := &handler.SinkHandler{Registry: registry, Active: deps.ActiveSinks}
	e.GET("/sinks/types", sinkHandler.ListTypes)
	e.GET("/sinks/types/:type", sinkHandler.GetTypeInfo)

	// Admin
	if cfg.Server.AdminKey != "" && deps.Revoker != nil {
		tokens := &handler.TokenHandler{Revoker: deps.Revoker, Logger: deps.Logger}
		admin := e.Group("/admin", AuthMiddleware(cfg.Server.AdminKey))
		admin.POST("/tokens/revoke", tokens.Revoke)
	}

	return &Server{Echo: e, Config: cfg, logger: deps.Logger}
}

// Start serves until ctx is cancelled or the listener fails. On cancel it
// shuts down gracefully and returns once in-flight requests have finished.
func (s *Server) Start(ctx context.Context) error {
	addr := ":" + s.Config.Server.Port
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Echo.Start(addr)
	}()
	s.logger.Info().Str("addr", addr).Msg("listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Config.Server.WriteTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

// ServeHTTP lets the server be driven by httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Echo.ServeHTTP(w, r)
}
