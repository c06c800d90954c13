package server

import (
	"time"

	"github.com/projectannie/contactd/internal/server/routes"
)

// Config holds the HTTP server settings
type Config struct {
	Port            string
	ShutdownTimeout time.Duration
	Middleware      routes.MiddlewareConfig
}

// DefaultShutdownTimeout bounds graceful shutdown, covering one in-flight dispatch
const DefaultShutdownTimeout = 15 * time.Second
