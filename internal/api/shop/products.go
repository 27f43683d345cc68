package shop

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListProducts returns the full catalog
func (h *Handler) ListProducts(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.ListProducts(c.Request.Context()))
}

// GetProduct returns one product
func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// ListByCategory returns the products of one category
func (h *Handler) ListByCategory(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.ListByCategory(c.Request.Context(), c.Param("name")))
}

// SearchProducts returns products matching a text query
func (h *Handler) SearchProducts(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Search(c.Request.Context(), c.Param("query")))
}
