package utils

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/projectannie/contactd/internal/api/constants"
)

// UnknownClient is the rate limit key for requests without any forwarded address
const UnknownClient = "unknown"

// GetRealIP extracts the client IP from various headers, respecting reverse proxies.
// Used for logging.
func GetRealIP(c *gin.Context) string {
	// Try X-Real-IP first (set by the reverse proxy)
	ip := c.GetHeader(constants.HeaderRealIP)
	if ip != "" {
		return ip
	}

	if first := firstForwardedFor(c); first != "" {
		return first
	}

	// Fall back to RemoteAddr from Gin's ClientIP
	return c.ClientIP()
}

// ClientKey returns the address used to key contact form rate limits: the
// first hop of X-Forwarded-For, then X-Real-IP, otherwise UnknownClient.
// All requests without proxy headers share the UnknownClient bucket.
func ClientKey(c *gin.Context) string {
	if first := firstForwardedFor(c); first != "" {
		return first
	}
	if ip := strings.TrimSpace(c.GetHeader(constants.HeaderRealIP)); ip != "" {
		return ip
	}
	return UnknownClient
}

// firstForwardedFor returns the leftmost X-Forwarded-For entry.
// Format: client, proxy1, proxy2, ...
func firstForwardedFor(c *gin.Context) string {
	forwardedFor := c.GetHeader(constants.HeaderForwardedFor)
	if forwardedFor == "" {
		return ""
	}
	first, _, _ := strings.Cut(forwardedFor, ",")
	return strings.TrimSpace(first)
}
