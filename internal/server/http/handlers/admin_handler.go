package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/cardshop/internal/domain/errors"
	"github.com/polkiloo/cardshop/internal/server/http/dto"
)

// AdminHandler exposes operator maintenance endpoints.
type AdminHandler struct {
	facade AdminFacade
	logger *slog.Logger
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(facade AdminFacade, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{facade: facade, logger: logger}
}

// Reconcile handles POST /api/admin/reconcile.
func (h *AdminHandler) Reconcile(c *gin.Context) {
	report, err := h.facade.Reconcile(c.Request.Context())
	if err != nil {
		h.fail(c, "reconcile", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Cleanup handles POST /api/admin/cleanup.
func (h *AdminHandler) Cleanup(c *gin.Context) {
	n, err := h.facade.Cleanup(c.Request.Context())
	if err != nil {
		h.fail(c, "cleanup", err)
		return
	}
	c.JSON(http.StatusOK, dto.CleanupResponse{Expired: n})
}

// Fulfill handles POST /api/admin/orders/:id/fulfill.
func (h *AdminHandler) Fulfill(c *gin.Context) {
	orderID := c.Param("id")
	outcome, err := h.facade.Fulfill(c.Request.Context(), orderID)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		case errors.Is(err, domainErrors.ErrConflictingState):
			c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, domainErrors.ErrOutOfStock):
			c.JSON(http.StatusConflict, dto.ErrorResponse{Error: MessageOutOfStock})
		default:
			h.fail(c, "fulfill", err)
		}
		return
	}
	c.JSON(http.StatusOK, dto.FulfillResponse{OrderID: orderID, Outcome: string(outcome)})
}

// Unban handles DELETE /api/admin/suspensions/:account.
func (h *AdminHandler) Unban(c *gin.Context) {
	account := c.Param("account")
	removed, err := h.facade.Unban(c.Request.Context(), account)
	if err != nil {
		h.fail(c, "unban", err)
		return
	}
	c.JSON(http.StatusOK, dto.UnbanResponse{AccountID: account, Removed: removed})
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.facade.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, "stats", err)
		return
	}
	orders := make(map[string]int64, len(stats.Orders))
	for status, n := range stats.Orders {
		orders[string(status)] = n
	}
	c.JSON(http.StatusOK, dto.StatsResponse{
		CardsTotal:     stats.CardsTotal,
		CardsUsed:      stats.CardsUsed,
		CardsAvailable: stats.CardsAvailable(),
		Orders:         orders,
	})
}

func (h *AdminHandler) fail(c *gin.Context, op string, err error) {
	h.logger.Error("admin operation failed", slog.String("op", op), slog.String("error", err.Error()))
	c.Status(http.StatusInternalServerError)
}
