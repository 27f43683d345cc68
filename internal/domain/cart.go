package domain

import "math"

// CartEntry is one stored line of a cart. Quantity is always at least 1; lines that
// would drop to zero are deleted instead.
type CartEntry struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CartItem is a priced cart line
type CartItem struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
	Image     string  `json:"image"`
}

// CartView is the priced projection of a session cart. It is never persisted.
type CartView struct {
	SessionID string     `json:"session_id"`
	Items     []CartItem `json:"items"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"item_count"`
}

// IsEmpty reports whether the cart holds no items
func (c *CartView) IsEmpty() bool {
	return c == nil || c.ItemCount == 0
}

// NewCartView joins stored entries against the catalog. Entries whose product is no
// longer listed are left out of the view.
func NewCartView(sessionID string, entries []CartEntry, products []Product) *CartView {
	view := &CartView{
		SessionID: sessionID,
		Items:     []CartItem{},
	}

	var total float64
	for _, e := range entries {
		p, ok := FindProduct(products, e.ProductID)
		if !ok {
			continue
		}
		subtotal := p.Price * float64(e.Quantity)
		view.Items = append(view.Items, CartItem{
			ProductID: e.ProductID,
			Title:     p.Title,
			Price:     p.Price,
			Quantity:  e.Quantity,
			Subtotal:  RoundMoney(subtotal),
			Image:     p.Image,
		})
		total += subtotal
		view.ItemCount += e.Quantity
	}
	view.Total = RoundMoney(total)

	return view
}

// RoundMoney rounds an amount to cents
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// AddToCartRequest is the request to add a product to the cart
type AddToCartRequest struct {
	ProductID ProductID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"omitempty,min=1,max=99"`
}

// UpdateCartRequest is the request to set the quantity of a cart line. A quantity of
// zero removes the line.
type UpdateCartRequest struct {
	ProductID ProductID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"max=99"`
}
