package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/projectannie/contactd/internal/api/constants"
	"github.com/projectannie/contactd/internal/api/dto/common"
)

// RateLimitConfig defines configuration for the rate limiter
type RateLimitConfig struct {
	// Requests per second
	RPS int
	// Burst size (number of requests that can be made in a single burst)
	Burst int
}

// RateLimitMiddleware limits the total request rate of the process. It is a
// flood guard in front of every route; per-client contact form limits are
// enforced by the gatekeeper.
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(config.RPS), config.Burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.Header(constants.HeaderRetryAfter, "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.NewErrorResponse(
				common.ErrCodeTooManyRequests,
				"Rate limit exceeded. Please try again later.",
			))
			return
		}

		c.Header(constants.HeaderRateLimit, strconv.Itoa(config.RPS))
		c.Header(constants.HeaderRateRemaining, strconv.Itoa(int(limiter.Tokens())))

		c.Next()
	}
}
