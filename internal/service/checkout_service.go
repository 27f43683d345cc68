package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shophub/shophub/internal/config"
	"github.com/shophub/shophub/internal/domain"
)

// CheckoutService prices carts for checkout and places simulated orders
type CheckoutService struct {
	carts  *CartService
	cfg    config.CheckoutConfig
	logger *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(carts *CartService, cfg config.CheckoutConfig, logger *zap.Logger) *CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutService{carts: carts, cfg: cfg, logger: logger}
}

// Summary returns what the current cart would cost
func (s *CheckoutService) Summary(ctx context.Context, sessionID string) (*domain.CheckoutSummary, error) {
	return s.Price(s.carts.Get(ctx, sessionID))
}

// Price applies tax and shipping to a cart view
func (s *CheckoutService) Price(cart *domain.CartView) (*domain.CheckoutSummary, error) {
	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	subtotal := cart.Total
	tax := domain.RoundMoney(subtotal * s.cfg.TaxRate)
	shipping := 0.0
	if subtotal < s.cfg.FreeShippingOver {
		shipping = s.cfg.ShippingFee
	}

	return &domain.CheckoutSummary{
		Items:     cart.Items,
		Subtotal:  subtotal,
		Tax:       tax,
		Shipping:  shipping,
		Total:     domain.RoundMoney(subtotal + tax + shipping),
		ItemCount: cart.ItemCount,
	}, nil
}

// PlaceOrder charges the current cart and clears it
func (s *CheckoutService) PlaceOrder(ctx context.Context, sessionID string, req *domain.OrderRequest) (*domain.Order, error) {
	if strings.TrimSpace(req.ShippingAddress) == "" {
		return nil, fmt.Errorf("shipping address is required: %w", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return nil, fmt.Errorf("payment method is required: %w", domain.ErrInvalidRequest)
	}

	summary, err := s.Summary(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.carts.Clear(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	order := &domain.Order{
		OrderID:         NewOrderID(),
		Status:          domain.OrderStatusSuccess,
		Message:         "Order placed successfully",
		Items:           summary.Items,
		Subtotal:        summary.Subtotal,
		Tax:             summary.Tax,
		Shipping:        summary.Shipping,
		Total:           summary.Total,
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
		PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
		CreatedAt:       time.Now().UTC(),
	}

	s.logger.Info("order placed",
		zap.String("session_id", sessionID),
		zap.String("order_id", order.OrderID),
		zap.Float64("total", order.Total),
	)
	return order, nil
}

// NewOrderID returns an id of the form ORDER-1A2B3C4D
func NewOrderID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORDER-" + strings.ToUpper(id[:8])
}
