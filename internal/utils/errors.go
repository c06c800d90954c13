package utils

import (
	"github.com/gin-gonic/gin"

	"github.com/projectannie/contactd/internal/api/dto/common"
	"github.com/projectannie/contactd/internal/logging"
)

// HandleAPIError logs err and writes a response carrying only code and
// message. err never reaches the client.
func HandleAPIError(c *gin.Context, err error, status int, code common.ErrorCode, message string) {
	logging.GetGlobalLogger().LogHTTPError(
		c.Request.Method,
		c.Request.URL.Path,
		GetRealIP(c),
		status,
		message,
		err,
	)

	c.AbortWithStatusJSON(status, common.NewErrorResponse(code, message))
}
