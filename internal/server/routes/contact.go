package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/projectannie/contactd/internal/api/handlers"
)

// SetupContactRoutes configures contact form routes.
// Per-client submission limits are enforced by the gatekeeper, not here.
func SetupContactRoutes(router *gin.RouterGroup, contact *handlers.ContactHandler) {
	router.POST("/contact", contact.Submit)
}
