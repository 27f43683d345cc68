package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shophub/shophub/internal/domain"
	"github.com/shophub/shophub/internal/service"
)

// Handler handles admin API requests
type Handler struct {
	adminService *service.AdminService
}

// NewHandler creates a new admin handler
func NewHandler(adminService *service.AdminService) *Handler {
	return &Handler{adminService: adminService}
}

// RegisterRoutes registers admin routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/stats", h.GetStats)
	r.POST("/reindex", h.Reindex)

	catalog := r.Group("/catalog")
	{
		catalog.POST("/refresh", h.RefreshCatalog)
	}
}

// GetStats returns system statistics
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.adminService.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Reindex rebuilds the retrieval index
func (h *Handler) Reindex(c *gin.Context) {
	n, err := h.adminService.Reindex(c.Request.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrRetrievalUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"indexed_documents": n})
}

// RefreshCatalog reloads the product cache
func (h *Handler) RefreshCatalog(c *gin.Context) {
	n, err := h.adminService.RefreshCatalog(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": n})
}
