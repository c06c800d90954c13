package routes

import (
	"github.com/projectannie/contactd/internal/api/handlers"
)

// Handlers contains all the route handlers
type Handlers struct {
	Contact *handlers.ContactHandler
	Health  *handlers.HealthHandler
}

// MiddlewareConfig holds the settings for the global middleware chain
type MiddlewareConfig struct {
	ServiceName    string
	AllowedOrigins []string
	Development    bool
	MaxBodySize    int64
	GlobalRPS      int
	GlobalBurst    int
}
