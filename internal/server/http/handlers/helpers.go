package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/cardshop/internal/domain/errors"
	"github.com/polkiloo/cardshop/internal/server/http/dto"
)

// Messages shown to buyers. Internal state is never exposed.
const (
	MessageOutOfStock     = "out of stock"
	MessageRestricted     = "account temporarily restricted"
	MessagePurchaseFailed = "purchase failed, try again"
)

func abortWithMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Error: message})
}

// purchaseError maps engine errors to the buyer-facing status and message.
func purchaseError(err error) (int, string) {
	switch {
	case errors.Is(err, domainErrors.ErrOutOfStock), errors.Is(err, domainErrors.ErrProductUnavailable):
		return http.StatusConflict, MessageOutOfStock
	case errors.Is(err, domainErrors.ErrSuspendedAccount):
		return http.StatusForbidden, MessageRestricted
	case errors.Is(err, domainErrors.ErrInvalidOrder):
		return http.StatusUnprocessableEntity, MessagePurchaseFailed
	case errors.Is(err, domainErrors.ErrPaymentUnavailable):
		return http.StatusBadGateway, MessagePurchaseFailed
	default:
		return http.StatusInternalServerError, MessagePurchaseFailed
	}
}
