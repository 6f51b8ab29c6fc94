package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jackzampolin/textjson/internal/api"
	"github.com/jackzampolin/textjson/internal/config"
	"github.com/jackzampolin/textjson/internal/extract"
	"github.com/jackzampolin/textjson/internal/server/endpoints"
	"github.com/jackzampolin/textjson/internal/svcctx"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests.
const shutdownTimeout = 30 * time.Second

// Server is the textjson HTTP server.
type Server struct {
	httpServer *http.Server
	extractor  *extract.Extractor
	settings   *config.Settings
	logger     *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu       sync.RWMutex
	running  bool
	started  bool
	listenAt string
	ready    chan struct{}
}

// ErrServerStopped is returned by Start once the server has served and shut down.
// A stopped Server cannot be restarted; create a new one with New.
var ErrServerStopped = errors.New("server cannot be restarted after shutdown")

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8000, "0" picks a free port)
	Port string
	// Settings are the loaded process settings; defaults are used when nil.
	Settings *config.Settings
	// Extractor performs extraction; built from Settings when nil.
	Extractor *extract.Extractor
	// StaticFS overrides the embedded front-end.
	StaticFS fs.FS
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Settings == nil {
		cfg.Settings = config.DefaultSettings()
	}
	if cfg.Host == "" {
		cfg.Host = cfg.Settings.Host
	}
	if cfg.Port == "" {
		cfg.Port = cfg.Settings.Port
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Extractor == nil {
		cfg.Extractor = extract.New(extract.Config{
			APIKey: cfg.Settings.APIKey(),
			Model:  cfg.Settings.Model,
			Logger: cfg.Logger,
		})
	}

	s := &Server{
		extractor: cfg.Extractor,
		settings:  cfg.Settings,
		logger:    cfg.Logger,
		ready:     make(chan struct{}),
	}

	s.services = &svcctx.Services{
		Extractor: s.extractor,
		Settings:  s.settings,
		Logger:    s.logger,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{StaticFS: cfg.StaticFS}) {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux)

	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if !s.extractor.Configured() {
		s.logger.Warn("no Gemini API key configured; extraction requests will fail",
			"env", []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"})
	}

	return s, nil
}

// Handler returns the fully wrapped HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the server.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	if s.started {
		s.mu.Unlock()
		return ErrServerStopped
	}
	s.running = true
	s.mu.Unlock()

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}

	s.mu.Lock()
	s.listenAt = ln.Addr().String()
	s.started = true
	s.mu.Unlock()
	close(s.ready)

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", ln.Addr().String(), "model", s.extractor.Model())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			s.setNotRunning()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return err
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Ready is closed once the server is accepting connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the server's listen address. Once Ready is closed this is the
// bound address, which differs from the configured one when port 0 was used.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listenAt != "" {
		return s.listenAt
	}
	return s.httpServer.Addr
}

// Registry returns the endpoint registry.
func (s *Server) Registry() *api.Registry {
	return s.endpointRegistry
}
