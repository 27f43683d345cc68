package shop

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shophub/shophub/internal/api/middleware"
	"github.com/shophub/shophub/internal/domain"
)

// GetCart returns the session cart
func (h *Handler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.cartService.Get(c.Request.Context(), middleware.SessionID(c)))
}

// AddToCart adds a product to the cart
func (h *Handler) AddToCart(c *gin.Context) {
	var req domain.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cart, err := h.cartService.Add(c.Request.Context(), middleware.SessionID(c), req.ProductID.String(), req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

// UpdateCart sets the quantity of a cart line
func (h *Handler) UpdateCart(c *gin.Context) {
	var req domain.UpdateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cart, err := h.cartService.SetQuantity(c.Request.Context(), middleware.SessionID(c), req.ProductID.String(), req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

// RemoveFromCart removes a product from the cart
func (h *Handler) RemoveFromCart(c *gin.Context) {
	cart, err := h.cartService.Remove(c.Request.Context(), middleware.SessionID(c), c.Param("product_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

// ClearCart empties the cart
func (h *Handler) ClearCart(c *gin.Context) {
	cart, err := h.cartService.Clear(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}
