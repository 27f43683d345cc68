package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/shophub/shophub/internal/config"
	"github.com/shophub/shophub/internal/domain"
	"github.com/shophub/shophub/internal/repository"
)

type fakeCatalog struct {
	products []domain.Product
}

func (c *fakeCatalog) ListProducts(ctx context.Context) []domain.Product {
	return c.products
}

func (c *fakeCatalog) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	if p, ok := domain.FindProduct(c.products, id); ok {
		return p, nil
	}
	return domain.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
}

func (c *fakeCatalog) Refresh(ctx context.Context) (int, error) {
	return len(c.products), nil
}

type fakeRetriever struct {
	mu      sync.Mutex
	hits    []domain.RetrievalHit
	err     error
	filters []domain.RetrievalFilter
	ks      []int
}

func (r *fakeRetriever) Search(ctx context.Context, query string, filter domain.RetrievalFilter, k int) ([]domain.RetrievalHit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters = append(r.filters, filter)
	r.ks = append(r.ks, k)
	if r.err != nil {
		return nil, r.err
	}
	if len(r.hits) > k {
		return r.hits[:k], nil
	}
	return r.hits, nil
}

func testCatalog() *fakeCatalog {
	return &fakeCatalog{products: []domain.Product{
		{ID: "1", Title: "Backpack", Price: 109.95, Category: "men's clothing", Description: "Fits 15 inch laptops"},
		{ID: "5", Title: "Bracelet", Price: 10.00, Category: "jewelery", Description: "Gold"},
		{ID: "6", Title: "Ring", Price: 2.50, Category: "jewelery"},
		{ID: "9", Title: "Drive", Price: 64.00, Category: "electronics"},
	}}
}

func testCheckoutConfig() config.CheckoutConfig {
	return config.CheckoutConfig{TaxRate: 0.07, ShippingFee: 5, FreeShippingOver: 50}
}

type testEnv struct {
	redis    *miniredis.Miniredis
	catalog  *fakeCatalog
	carts    *CartService
	checkout *CheckoutService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	catalog := testCatalog()
	repo := repository.NewCartRepository(client, time.Hour, 5, nil)
	carts := NewCartService(repo, catalog, nil)
	return &testEnv{
		redis:    mr,
		catalog:  catalog,
		carts:    carts,
		checkout: NewCheckoutService(carts, testCheckoutConfig(), nil),
	}
}

func newTestConversations(t *testing.T) *repository.ConversationRepository {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "shophub.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return repository.NewConversationRepository(db)
}
