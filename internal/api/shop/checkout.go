package shop

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shophub/shophub/internal/api/middleware"
	"github.com/shophub/shophub/internal/domain"
)

// CheckoutSummary returns what the current cart will cost
func (h *Handler) CheckoutSummary(c *gin.Context) {
	summary, err := h.checkoutService.Summary(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// PlaceOrder places an order for the current cart
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req domain.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.checkoutService.PlaceOrder(c.Request.Context(), middleware.SessionID(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}
