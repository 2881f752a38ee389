package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/cardshop/internal/domain/errors"
	"github.com/polkiloo/cardshop/internal/pkg/auth"
	"github.com/polkiloo/cardshop/internal/server/http/dto"
)

const maxWebhookBody = 1 << 20

// WebhookHandler receives payment notifications from the gateway.
type WebhookHandler struct {
	facade PaymentFacade
	logger *slog.Logger
}

// NewWebhookHandler constructs WebhookHandler.
func NewWebhookHandler(facade PaymentFacade, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{facade: facade, logger: logger}
}

// Receive handles POST /api/webhooks/payments.
//
// Every outcome the engine resolved on its own is acknowledged with 200 so the
// gateway stops retrying. Store failures answer 500 and the gateway redelivers.
func (h *WebhookHandler) Receive(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	if err := h.facade.VerifyWebhook(payload, c.GetHeader(auth.SignatureHeader)); err != nil {
		h.logger.Warn("webhook rejected", slog.String("error", err.Error()))
		c.Status(http.StatusBadRequest)
		return
	}

	var event dto.WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	outcome, err := h.facade.HandlePayment(c.Request.Context(), event.ToModel())
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidPaymentEvent):
			c.Status(http.StatusBadRequest)
			return
		case errors.Is(err, domainErrors.ErrOutOfStock):
		default:
			h.logger.Error("payment event failed", slog.String("event_id", event.ID), slog.String("error", err.Error()))
			c.Status(http.StatusInternalServerError)
			return
		}
	}

	c.JSON(http.StatusOK, dto.WebhookAck{Received: true, Outcome: string(outcome)})
}
