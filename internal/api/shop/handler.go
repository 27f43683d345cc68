// Package shop serves the shopper-facing API: chat, cart, checkout and product browsing.
package shop

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shophub/shophub/internal/api/middleware"
	"github.com/shophub/shophub/internal/domain"
	"github.com/shophub/shophub/internal/service"
)

// ProductCatalog is the catalog surface the product endpoints read
type ProductCatalog interface {
	ListProducts(ctx context.Context) []domain.Product
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	ListByCategory(ctx context.Context, category string) []domain.Product
	Search(ctx context.Context, query string) []domain.Product
}

// Handler handles shopper API requests
type Handler struct {
	chatService     *service.ChatService
	cartService     *service.CartService
	checkoutService *service.CheckoutService
	catalog         ProductCatalog
}

// NewHandler creates a new shop handler
func NewHandler(
	chatService *service.ChatService,
	cartService *service.CartService,
	checkoutService *service.CheckoutService,
	catalog ProductCatalog,
) *Handler {
	return &Handler{
		chatService:     chatService,
		cartService:     cartService,
		checkoutService: checkoutService,
		catalog:         catalog,
	}
}

// RegisterRoutes registers shop routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	products := r.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.GET("/:id", h.GetProduct)
		products.GET("/category/:name", h.ListByCategory)
		products.GET("/search/:query", h.SearchProducts)
	}

	session := r.Group("")
	session.Use(middleware.Session())

	chatbot := session.Group("/chatbot")
	{
		chatbot.POST("/chat", h.Chat)
		chatbot.GET("/history", h.History)
	}

	cart := session.Group("/cart")
	{
		cart.GET("", h.GetCart)
		cart.POST("/add", h.AddToCart)
		cart.PUT("/update", h.UpdateCart)
		cart.DELETE("/remove/:product_id", h.RemoveFromCart)
		cart.DELETE("/clear", h.ClearCart)
	}

	checkout := session.Group("/checkout")
	{
		checkout.GET("/summary", h.CheckoutSummary)
		checkout.POST("", h.PlaceOrder)
	}
}

// writeError maps domain errors to HTTP statuses
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrEmptyCart):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrStoreUnavailable), errors.Is(err, domain.ErrRetrievalUnavailable):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
