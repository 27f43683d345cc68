package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/shophub/shophub/internal/domain"
	"github.com/shophub/shophub/internal/repository"
)

// ProductCatalog is the catalog surface the services read
type ProductCatalog interface {
	ListProducts(ctx context.Context) []domain.Product
	GetProduct(ctx context.Context, id string) (domain.Product, error)
}

// CartService handles cart operations and prices carts against the catalog
type CartService struct {
	repo    *repository.CartRepository
	catalog ProductCatalog
	logger  *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(repo *repository.CartRepository, catalog ProductCatalog, logger *zap.Logger) *CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{repo: repo, catalog: catalog, logger: logger}
}

// Get returns the priced cart. A store outage reads as an empty cart.
func (s *CartService) Get(ctx context.Context, sessionID string) *domain.CartView {
	entries, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		s.logger.Error("cart read failed, serving empty cart",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		entries = nil
	}
	return domain.NewCartView(sessionID, entries, s.catalog.ListProducts(ctx))
}

// Add adds qty of a product, merging with an existing line
func (s *CartService) Add(ctx context.Context, sessionID, productID string, qty int) (*domain.CartView, error) {
	if qty < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", domain.ErrInvalidRequest)
	}
	products, err := s.validate(ctx, productID)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.Update(ctx, sessionID, func(entries []domain.CartEntry) ([]domain.CartEntry, error) {
		for i := range entries {
			if entries[i].ProductID == productID {
				entries[i].Quantity += qty
				return entries, nil
			}
		}
		return append(entries, domain.CartEntry{ProductID: productID, Quantity: qty}), nil
	})
	if err != nil {
		return nil, err
	}
	return domain.NewCartView(sessionID, entries, products), nil
}

// SetQuantity sets the quantity of a line. A quantity of zero or less removes the line.
func (s *CartService) SetQuantity(ctx context.Context, sessionID, productID string, qty int) (*domain.CartView, error) {
	if qty <= 0 {
		return s.Remove(ctx, sessionID, productID)
	}
	products, err := s.validate(ctx, productID)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.Update(ctx, sessionID, func(entries []domain.CartEntry) ([]domain.CartEntry, error) {
		for i := range entries {
			if entries[i].ProductID == productID {
				entries[i].Quantity = qty
				return entries, nil
			}
		}
		return append(entries, domain.CartEntry{ProductID: productID, Quantity: qty}), nil
	})
	if err != nil {
		return nil, err
	}
	return domain.NewCartView(sessionID, entries, products), nil
}

// Remove deletes a line. Removing a product that is not in the cart is a no-op.
func (s *CartService) Remove(ctx context.Context, sessionID, productID string) (*domain.CartView, error) {
	view, _, err := s.RemoveItem(ctx, sessionID, productID)
	return view, err
}

// RemoveItem deletes a line and reports whether it was present
func (s *CartService) RemoveItem(ctx context.Context, sessionID, productID string) (*domain.CartView, bool, error) {
	removed := false
	entries, err := s.repo.Update(ctx, sessionID, func(entries []domain.CartEntry) ([]domain.CartEntry, error) {
		removed = false
		out := entries[:0]
		for _, e := range entries {
			if e.ProductID == productID {
				removed = true
				continue
			}
			out = append(out, e)
		}
		return out, nil
	})
	if err != nil {
		return nil, false, err
	}
	return domain.NewCartView(sessionID, entries, s.catalog.ListProducts(ctx)), removed, nil
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context, sessionID string) (*domain.CartView, error) {
	view, _, err := s.ClearItems(ctx, sessionID)
	return view, err
}

// ClearItems empties the cart and reports how many units were stored. The count comes
// from the stored entries, so lines the catalog cannot price right now still count and
// are still deleted.
func (s *CartService) ClearItems(ctx context.Context, sessionID string) (*domain.CartView, int, error) {
	entries, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		s.logger.Warn("cart read before clear failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return nil, 0, err
	}

	units := 0
	for _, e := range entries {
		units += e.Quantity
	}
	return domain.NewCartView(sessionID, nil, nil), units, nil
}

// validate checks that productID is listed and returns the catalog it was checked against
func (s *CartService) validate(ctx context.Context, productID string) ([]domain.Product, error) {
	products := s.catalog.ListProducts(ctx)
	if _, ok := domain.FindProduct(products, productID); !ok {
		return nil, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	return products, nil
}
