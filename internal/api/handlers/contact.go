package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/projectannie/contactd/internal/api/constants"
	"github.com/projectannie/contactd/internal/api/dto/common"
	contactdto "github.com/projectannie/contactd/internal/api/dto/v1/contact"
	"github.com/projectannie/contactd/internal/contact"
	"github.com/projectannie/contactd/internal/utils"
)

// Submitter is implemented by contact.Gatekeeper
type Submitter interface {
	HandleSubmission(ctx context.Context, clientID string, payload []byte) (*contact.Result, error)
}

type ContactHandler struct {
	gatekeeper Submitter
}

func NewContactHandler(gatekeeper Submitter) *ContactHandler {
	return &ContactHandler{gatekeeper: gatekeeper}
}

func (h *ContactHandler) Submit(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			utils.HandleAPIError(c, err, http.StatusRequestEntityTooLarge, common.ErrCodePayloadTooLarge, "Request body too large")
			return
		}
		utils.HandleAPIError(c, err, http.StatusInternalServerError, common.ErrCodeInternalServer, contact.MsgInternal)
		return
	}

	result, err := h.gatekeeper.HandleSubmission(c.Request.Context(), utils.ClientKey(c), payload)
	if err != nil {
		h.handleError(c, err)
		return
	}

	// Honeypot hits get the same response as real submissions.
	utils.HandleSuccess(c, contactdto.ContactResponse{
		Message: "Message sent successfully. We'll get back to you shortly.",
		ID:      result.ID,
	})
}

func (h *ContactHandler) handleError(c *gin.Context, err error) {
	var cerr *contact.Error
	if !errors.As(err, &cerr) {
		utils.HandleAPIError(c, err, http.StatusInternalServerError, common.ErrCodeInternalServer, contact.MsgInternal)
		return
	}

	switch cerr.Kind {
	case contact.KindRateLimited:
		c.Header(constants.HeaderRetryAfter, retryAfterSeconds(cerr))
		utils.HandleAPIError(c, err, http.StatusTooManyRequests, common.ErrCodeTooManyRequests, cerr.Message)
	case contact.KindInvalidInput:
		utils.HandleAPIError(c, err, http.StatusBadRequest, common.ErrCodeValidation, cerr.Message)
	case contact.KindDeliveryFailed:
		utils.HandleAPIError(c, err, http.StatusInternalServerError, common.ErrCodeDeliveryFailed, contact.MsgDeliveryFailed)
	default:
		utils.HandleAPIError(c, err, http.StatusInternalServerError, common.ErrCodeInternalServer, contact.MsgInternal)
	}
}

// retryAfterSeconds rounds up so clients never retry early
func retryAfterSeconds(cerr *contact.Error) string {
	seconds := int(math.Ceil(cerr.RetryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
