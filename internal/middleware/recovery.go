package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/projectannie/contactd/internal/api/constants"
	"github.com/projectannie/contactd/internal/api/dto/common"
	"github.com/projectannie/contactd/internal/logging"
)

// Recovery turns a panic into a generic 500 and logs the stack trace
func Recovery(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("[PANIC] %s %s | %s | %v\n%s",
					c.Request.Method,
					c.Request.URL.Path,
					c.GetString(constants.ContextKeyRequestID),
					err,
					debug.Stack(),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, common.NewErrorResponse(
					common.ErrCodeInternalServer,
					"Internal server error",
				))
			}
		}()

		c.Next()
	}
}
