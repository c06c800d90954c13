package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/projectannie/contactd/internal/api/dto/common"
)

// DefaultMaxBodySize comfortably fits the largest valid contact submission
const DefaultMaxBodySize int64 = 64 * 1024

// LimitRequestBody rejects bodies larger than maxBytes. Declared lengths are
// checked up front; chunked bodies are cut off while being read.
func LimitRequestBody(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}

	return func(c *gin.Context) {
		if c.Request.Body == nil {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, common.NewErrorResponse(
				common.ErrCodePayloadTooLarge,
				"Request body too large",
			))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
