package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/projectannie/contactd/internal/api/dto/common"
	"github.com/projectannie/contactd/internal/utils"
	"github.com/projectannie/contactd/internal/version"
)

// Pinger is implemented by backends the service cannot run without
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	pinger Pinger
}

// NewHealthHandler creates a health handler. pinger may be nil when the rate
// limit store lives in memory.
func NewHealthHandler(pinger Pinger) *HealthHandler {
	return &HealthHandler{pinger: pinger}
}

// HealthResponse is the body of a successful health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (h *HealthHandler) Check(c *gin.Context) {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.pinger.Ping(ctx); err != nil {
			utils.HandleAPIError(c, err, http.StatusServiceUnavailable, common.ErrCodeServiceUnavailable, "Rate limit store unavailable")
			return
		}
	}

	utils.HandleSuccess(c, HealthResponse{
		Status:  "ok",
		Version: version.GetVersionString(),
	})
}
