package routes

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	apimiddleware "github.com/projectannie/contactd/internal/api/middleware"
	"github.com/projectannie/contactd/internal/logging"
	"github.com/projectannie/contactd/internal/middleware"
)

// Setup configures all route groups
func Setup(router *gin.Engine, h *Handlers) {
	logger := logging.GetGlobalLogger()

	SetupHealthRoutes(router, h.Health)

	api := router.Group("/api")
	SetupContactRoutes(api, h.Contact)

	logger.Info("All routes have been set up successfully")
}

// SetupGlobalMiddleware configures middleware that applies to all routes
func SetupGlobalMiddleware(router *gin.Engine, cfg MiddlewareConfig, logger *logging.Logger) {
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(apimiddleware.RequestLogger(logger))
	router.Use(apimiddleware.CORS(apimiddleware.CORSConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		Development:    cfg.Development,
	}))
	router.Use(apimiddleware.SecurityHeaders())
	router.Use(apimiddleware.LimitRequestBody(cfg.MaxBodySize))
	router.Use(apimiddleware.RateLimitMiddleware(apimiddleware.RateLimitConfig{
		RPS:   cfg.GlobalRPS,
		Burst: cfg.GlobalBurst,
	}))
}

