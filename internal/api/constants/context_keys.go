package constants

// Context keys shared by middleware and handlers
const (
	ContextKeyRequestID = "RequestID"
)

// Header names
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderForwardedFor  = "X-Forwarded-For"
	HeaderRealIP        = "X-Real-IP"
	HeaderRetryAfter    = "Retry-After"
	HeaderRateLimit     = "X-RateLimit-Limit"
	HeaderRateRemaining = "X-RateLimit-Remaining"
)
