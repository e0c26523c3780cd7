package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"gamechat-rag/config"
	"gamechat-rag/handlers"
	"gamechat-rag/services"
)

const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	router     *mux.Router
	httpServer *http.Server
	services   *services.ServiceContainer
	logger     services.Logger

	// Handlers
	chatHandler   *handlers.ChatHandler
	healthHandler *handlers.HealthHandler
}

// NewServer creates a new server instance around an already wired container
func NewServer(cfg *config.Config, container *services.ServiceContainer) *Server {
	logger := container.Logger
	if logger == nil {
		logger = services.NewNopLogger()
	}
	if container.MetricsService == nil {
		container.MetricsService = services.NewNoopMetrics()
	}

	router := mux.NewRouter()

	server := &Server{
		config:        cfg,
		router:        router,
		services:      container,
		logger:        logger,
		chatHandler:   handlers.NewChatHandler(container.Pipeline, logger),
		healthHandler: handlers.NewHealthHandler(container.HealthService, logger),
		httpServer: &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
	}

	server.setupRoutes()
	server.setupMiddleware()

	return server
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/chat", s.chatHandler.Chat).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/health", s.healthHandler.Health).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/health/{component}", s.healthHandler.Component).Methods(http.MethodGet, http.MethodOptions)

	if s.config.Metrics.Enabled {
		s.router.Handle(s.config.Metrics.Endpoint, s.services.MetricsService.Handler()).Methods(http.MethodGet)
	}
}

// setupMiddleware configures middleware. CORS runs first so preflights never
// reach a handler.
func (s *Server) setupMiddleware() {
	s.router.Use(s.corsMiddleware)
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	if s.config.Metrics.Enabled {
		s.router.Use(s.metricsMiddleware)
	}
}

// Router exposes the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// Start serves until SIGINT or SIGTERM arrives, then shuts down gracefully
func (s *Server) Start() error {
	s.logger.Info("Starting server", services.String("addr", s.httpServer.Addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		s.logger.Error("Server failed", err)
		return err
	case sig := <-quit:
		s.logger.Info("Shutting down server", services.String("signal", sig.String()))
	}

	return s.Shutdown()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}
