package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/projectannie/contactd/internal/logging"
	"github.com/projectannie/contactd/internal/server/routes"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
	cfg    Config
	logger *logging.Logger
}

// NewServer creates a new server instance with all middleware and routes registered
func NewServer(cfg Config, logger *logging.Logger, h *routes.Handlers) *Server {
	if !cfg.Middleware.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	// Disable Gin's default logger entirely because we're using our custom logger
	gin.DisableConsoleColor()
	gin.DefaultWriter = io.Discard

	// Create a new engine without default middleware
	router := gin.New()
	// Only the X-Forwarded-For header decides the client key; gin must not
	// second-guess it from the socket address.
	router.ForwardedByClientIP = false

	routes.SetupGlobalMiddleware(router, cfg.Middleware, logger)
	routes.Setup(router, h)

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	return &Server{
		router: router,
		cfg:    cfg,
		logger: logger,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured port and blocks until the server stops.
// A graceful shutdown is not reported as an error.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("HTTP server listening on %s", ln.Addr())
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests,
// giving up after the configured shutdown timeout
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server...")
	return s.http.Shutdown(ctx)
}
