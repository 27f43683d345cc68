// Package catalog serves the product list from the upstream product API through a Redis
// cache-aside key.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shophub/shophub/internal/domain"
)

// CacheKey holds the JSON-encoded product list
const CacheKey = "products:all"

// Service provides product lookups. Reads never fail: an unreachable product API yields an
// empty list, and an unreachable cache falls back to the API.
type Service struct {
	fetcher Fetcher
	cache   *redis.Client
	ttl     time.Duration
	timeout time.Duration
	logger  *zap.Logger
}

// NewService creates a catalog service. cache may be nil to disable caching.
func NewService(fetcher Fetcher, cache *redis.Client, ttl, timeout time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		fetcher: fetcher,
		cache:   cache,
		ttl:     ttl,
		timeout: timeout,
		logger:  logger,
	}
}

// ListProducts returns every product, from cache when possible
func (s *Service) ListProducts(ctx context.Context) []domain.Product {
	if s.cache == nil {
		return s.fetch(ctx)
	}

	products, err := s.readCache(ctx)
	switch {
	case err == nil:
		return products
	case errors.Is(err, redis.Nil):
		// miss
	case errors.Is(err, errCorruptCache):
		s.logger.Warn("discarding corrupt product cache", zap.Error(err))
	default:
		s.logger.Error("product cache unavailable, fetching directly", zap.Error(err))
		return s.fetch(ctx)
	}

	products = s.fetch(ctx)
	if len(products) == 0 {
		return products
	}
	s.writeCache(ctx, products)
	return products
}

// GetProduct returns one product by id
func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	if p, ok := domain.FindProduct(s.ListProducts(ctx), id); ok {
		return p, nil
	}
	return domain.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
}

// ListByCategory returns the products of one category, compared case-insensitively
func (s *Service) ListByCategory(ctx context.Context, category string) []domain.Product {
	out := []domain.Product{}
	for _, p := range s.ListProducts(ctx) {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out
}

// Search returns products whose title, description or category contains query
func (s *Service) Search(ctx context.Context, query string) []domain.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []domain.Product{}
	if q == "" {
		return out
	}
	for _, p := range s.ListProducts(ctx) {
		if strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Description), q) ||
			strings.Contains(strings.ToLower(p.Category), q) {
			out = append(out, p)
		}
	}
	return out
}

// Refresh drops the cached list and reloads it from the product API
func (s *Service) Refresh(ctx context.Context) (int, error) {
	if s.cache != nil {
		if err := s.cache.Del(ctx, CacheKey).Err(); err != nil {
			s.logger.Warn("failed to clear product cache", zap.Error(err))
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	products, err := s.fetcher.Fetch(fetchCtx)
	if err != nil {
		return 0, fmt.Errorf("refresh catalog: %w", err)
	}
	if s.cache != nil && len(products) > 0 {
		s.writeCache(ctx, products)
	}

	s.logger.Info("catalog refreshed", zap.Int("products", len(products)))
	return len(products), nil
}

var errCorruptCache = errors.New("corrupt product cache")

func (s *Service) readCache(ctx context.Context) ([]domain.Product, error) {
	raw, err := s.cache.Get(ctx, CacheKey).Bytes()
	if err != nil {
		return nil, err
	}
	var products []domain.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorruptCache, err)
	}
	if len(products) == 0 {
		return nil, redis.Nil
	}
	return products, nil
}

func (s *Service) writeCache(ctx context.Context, products []domain.Product) {
	data, err := json.Marshal(products)
	if err != nil {
		s.logger.Error("failed to encode products", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, CacheKey, data, s.ttl).Err(); err != nil {
		s.logger.Warn("failed to cache products", zap.Error(err))
	}
}

func (s *Service) fetch(ctx context.Context) []domain.Product {
	start := time.Now()
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	products, err := s.fetcher.Fetch(fetchCtx)
	if err != nil {
		s.logger.Error("product api fetch failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return []domain.Product{}
	}

	s.logger.Debug("fetched products",
		zap.Int("count", len(products)),
		zap.Duration("duration", time.Since(start)),
	)
	if products == nil {
		products = []domain.Product{}
	}
	return products
}
