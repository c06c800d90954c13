package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/projectannie/contactd/internal/api/constants"
	"github.com/projectannie/contactd/internal/logging"
	"github.com/projectannie/contactd/internal/utils"
)

// RequestLogger logs one line per request. The logger decides whether
// request logging is enabled (LOG_REQUESTS).
func RequestLogger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.LogHTTPRequest(
			c.Request.Method,
			path,
			utils.GetRealIP(c),
			c.GetString(constants.ContextKeyRequestID),
			c.Writer.Status(),
			c.Writer.Size(),
			time.Since(start).String(),
		)
	}
}
