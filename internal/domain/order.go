package domain

import "time"

// Order statuses
const (
	OrderStatusSuccess = "success"
)

// CheckoutSummary is what the shopper will be charged for the current cart
type CheckoutSummary struct {
	Items     []CartItem `json:"items"`
	Subtotal  float64    `json:"subtotal"`
	Tax       float64    `json:"tax"`
	Shipping  float64    `json:"shipping"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"item_count"`
}

// OrderRequest is the request to place an order for the current cart
type OrderRequest struct {
	ShippingAddress string `json:"shipping_address" binding:"required"`
	PaymentMethod   string `json:"payment_method" binding:"required"`
	Phone           string `json:"phone,omitempty"`
}

// Order is a placed order. Payment is simulated.
type Order struct {
	OrderID         string     `json:"order_id"`
	Status          string     `json:"status"`
	Message         string     `json:"message"`
	Items           []CartItem `json:"items"`
	Subtotal        float64    `json:"subtotal"`
	Tax             float64    `json:"tax"`
	Shipping        float64    `json:"shipping"`
	Total           float64    `json:"total"`
	ShippingAddress string     `json:"shipping_address"`
	PaymentMethod   string     `json:"payment_method"`
	CreatedAt       time.Time  `json:"created_at"`
}
