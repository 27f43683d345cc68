package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shophub/shophub/internal/domain"
	"go.uber.org/zap"
)

const cartKeyPrefix = "cart:"

// CartKey returns the storage key for a session cart
func CartKey(sessionID string) string {
	return cartKeyPrefix + sessionID
}

// CartMutation transforms the stored entries of one cart
type CartMutation func(entries []domain.CartEntry) ([]domain.CartEntry, error)

// CartRepository persists raw cart entries in Redis under an expiring key per session.
// Writes run as optimistic transactions: the key is WATCHed while the mutation is applied
// and the transaction is retried when another writer got there first.
type CartRepository struct {
	client     *redis.Client
	ttl        time.Duration
	maxRetries int
	logger     *zap.Logger
}

// NewCartRepository creates a new cart repository
func NewCartRepository(client *redis.Client, ttl time.Duration, maxRetries int, logger *zap.Logger) *CartRepository {
	if ttl <= 0 {
		ttl = 365 * 24 * time.Hour
	}
	if maxRetries <= 0 {
		maxRetries = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartRepository{
		client:     client,
		ttl:        ttl,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Get returns the stored entries for a session. A missing or expired key is an empty
// cart; a corrupt value is logged and also read as empty.
func (r *CartRepository) Get(ctx context.Context, sessionID string) ([]domain.CartEntry, error) {
	return r.read(ctx, r.client, sessionID)
}

// Update applies fn to the stored entries and writes the result with a refreshed TTL.
// An empty result deletes the key. Errors returned by fn are passed through untouched
// and nothing is written.
func (r *CartRepository) Update(ctx context.Context, sessionID string, fn CartMutation) ([]domain.CartEntry, error) {
	key := CartKey(sessionID)

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		var (
			result []domain.CartEntry
			fnErr  error
		)

		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			entries, err := r.read(ctx, tx, sessionID)
			if err != nil {
				return err
			}

			next, err := fn(entries)
			if err != nil {
				fnErr = err
				return err
			}
			next = normalizeEntries(next)

			var data []byte
			if len(next) > 0 {
				if data, err = json.Marshal(next); err != nil {
					return err
				}
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if len(next) == 0 {
					pipe.Del(ctx, key)
					return nil
				}
				pipe.Set(ctx, key, data, r.ttl)
				return nil
			})
			result = next
			return err
		}, key)

		switch {
		case err == nil:
			return result, nil
		case fnErr != nil:
			return nil, fnErr
		case errors.Is(err, redis.TxFailedErr):
			r.logger.Debug("cart write conflict, retrying",
				zap.String("session_id", sessionID),
				zap.Int("attempt", attempt+1),
			)
			continue
		case errors.Is(err, domain.ErrStoreUnavailable):
			return nil, err
		default:
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
	}

	return nil, fmt.Errorf("%w: too many concurrent cart writes", domain.ErrStoreUnavailable)
}

// Delete removes the cart key
func (r *CartRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, CartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// TTL returns the remaining lifetime of a session cart
func (r *CartRepository) TTL(ctx context.Context, sessionID string) (time.Duration, error) {
	ttl, err := r.client.TTL(ctx, CartKey(sessionID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return ttl, nil
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *CartRepository) read(ctx context.Context, g stringGetter, sessionID string) ([]domain.CartEntry, error) {
	data, err := g.Get(ctx, CartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []domain.CartEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	entries, err := decodeEntries(data)
	if err != nil {
		r.logger.Warn("discarding corrupt cart entry",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return []domain.CartEntry{}, nil
	}
	return entries, nil
}

// decodeEntries reads the ordered list form and falls back to a plain
// {product_id: quantity} object.
func decodeEntries(data []byte) ([]domain.CartEntry, error) {
	var entries []domain.CartEntry
	if err := json.Unmarshal(data, &entries); err == nil {
		return normalizeEntries(entries), nil
	}

	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	entries = make([]domain.CartEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, domain.CartEntry{ProductID: id, Quantity: m[id]})
	}
	return normalizeEntries(entries), nil
}

// normalizeEntries merges duplicate ids and drops lines with quantity below one
func normalizeEntries(entries []domain.CartEntry) []domain.CartEntry {
	index := make(map[string]int, len(entries))
	out := make([]domain.CartEntry, 0, len(entries))
	for _, e := range entries {
		if e.ProductID == "" {
			continue
		}
		if i, ok := index[e.ProductID]; ok {
			out[i].Quantity += e.Quantity
			continue
		}
		index[e.ProductID] = len(out)
		out = append(out, e)
	}

	kept := out[:0]
	for _, e := range out {
		if e.Quantity >= 1 {
			kept = append(kept, e)
		}
	}
	return kept
}
