package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/cardshop/internal/domain/model"
	"github.com/polkiloo/cardshop/internal/server/http/dto"
)

// PurchaseHandler manages buyer-facing order endpoints.
type PurchaseHandler struct {
	facade PurchaseFacade
	logger *slog.Logger
}

// NewPurchaseHandler constructs PurchaseHandler.
func NewPurchaseHandler(facade PurchaseFacade, logger *slog.Logger) *PurchaseHandler {
	return &PurchaseHandler{facade: facade, logger: logger}
}

// Create handles POST /api/purchases.
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req dto.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, MessagePurchaseFailed)
		return
	}

	order, paymentURL, err := h.facade.Purchase(c.Request.Context(), req.AccountID, req.ProductID)
	if err != nil {
		status, message := purchaseError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("purchase failed", slog.String("account_id", req.AccountID), slog.String("error", err.Error()))
		}
		abortWithMessage(c, status, message)
		return
	}

	c.JSON(http.StatusCreated, dto.PurchaseResponse{OrderID: order.ID, PaymentURL: paymentURL, Amount: order.Amount})
}

// AccountOrders handles GET /api/accounts/:account/orders.
func (h *PurchaseHandler) AccountOrders(c *gin.Context) {
	account := strings.TrimSpace(c.Param("account"))
	if account == "" {
		c.Status(http.StatusBadRequest)
		return
	}
	orders, err := h.facade.AccountOrders(c.Request.Context(), account)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	if len(orders) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	response := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, toOrderResponse(o))
	}

	c.JSON(http.StatusOK, response)
}

func toOrderResponse(order model.Order) dto.OrderResponse {
	return dto.OrderResponse{
		OrderID:   order.ID,
		ProductID: order.ProductID,
		Status:    string(order.Status),
		Amount:    order.Amount,
		CreatedAt: order.CreatedAt,
		PaidAt:    order.PaidAt,
	}
}
