package repository

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shophub/shophub/internal/domain"
)

func newTestCartRepo(t *testing.T, ttl time.Duration) (*CartRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCartRepository(client, ttl, 10, nil), mr
}

func addOne(id string, qty int) CartMutation {
	return func(entries []domain.CartEntry) ([]domain.CartEntry, error) {
		for i := range entries {
			if entries[i].ProductID == id {
				entries[i].Quantity += qty
				return entries, nil
			}
		}
		return append(entries, domain.CartEntry{ProductID: id, Quantity: qty}), nil
	}
}

func TestCartRepository_GetMissingIsEmpty(t *testing.T) {
	repo, _ := newTestCartRepo(t, time.Hour)

	entries, err := repo.Get(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty cart, got %v", entries)
	}
}

func TestCartRepository_UpdatePersistsWithTTL(t *testing.T) {
	repo, mr := newTestCartRepo(t, time.Hour)
	ctx := context.Background()

	if _, err := repo.Update(ctx, "s1", addOne("5", 2)); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if _, err := repo.Update(ctx, "s1", addOne("9", 1)); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	entries, err := repo.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(entries) != 2 || entries[0].ProductID != "5" || entries[0].Quantity != 2 || entries[1].ProductID != "9" {
		t.Errorf("unexpected entries %+v", entries)
	}
	if ttl := mr.TTL(CartKey("s1")); ttl != time.Hour {
		t.Errorf("expected ttl 1h, got %s", ttl)
	}

	mr.FastForward(30 * time.Minute)
	if _, err := repo.Update(ctx, "s1", addOne("5", 1)); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if ttl := mr.TTL(CartKey("s1")); ttl != time.Hour {
		t.Errorf("expected ttl refreshed to 1h, got %s", ttl)
	}
}

func TestCartRepository_ExpiredIsEmpty(t *testing.T) {
	repo, mr := newTestCartRepo(t, time.Minute)
	ctx := context.Background()

	if _, err := repo.Update(ctx, "s1", addOne("5", 1)); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	entries, err := repo.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected expired cart to be empty, got %v", entries)
	}
}

func TestCartRepository_EmptyResultDeletesKey(t *testing.T) {
	repo, mr := newTestCartRepo(t, time.Hour)
	ctx := context.Background()

	if _, err := repo.Update(ctx, "s1", addOne("5", 1)); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	_, err := repo.Update(ctx, "s1", func(entries []domain.CartEntry) ([]domain.CartEntry, error) {
		return nil, nil
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if mr.Exists(CartKey("s1")) {
		t.Error("expected key to be deleted when cart becomes empty")
	}
}

func TestCartRepository_ZeroQuantityDropped(t *testing.T) {
	repo, _ := newTestCartRepo(t, time.Hour)
	ctx := context.Background()

	entries, err := repo.Update(ctx, "s1", func(entries []domain.CartEntry) ([]domain.CartEntry, error) {
		return []domain.CartEntry{{ProductID: "1", Quantity: 0}, {ProductID: "2", Quantity: 3}}, nil
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ProductID != "2" {
		t.Errorf("expected only positive quantities, got %+v", entries)
	}
}

func TestCartRepository_CorruptEntryReadsEmpty(t *testing.T) {
	repo, mr := newTestCartRepo(t, time.Hour)
	mr.Set(CartKey("s1"), "{not json")

	entries, err := repo.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("corrupt entry must not fail: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty cart, got %v", entries)
	}

	// a write over a corrupt entry starts from empty
	entries, err = repo.Update(context.Background(), "s1", addOne("3", 1))
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ProductID != "3" {
		t.Errorf("unexpected entries %+v", entries)
	}
}

func TestCartRepository_ReadsMapForm(t *testing.T) {
	repo, mr := newTestCartRepo(t, time.Hour)
	mr.Set(CartKey("s1"), `{"7":2,"3":1}`)

	entries, err := repo.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(entries) != 2 || entries[0].ProductID != "3" || entries[1].Quantity != 2 {
		t.Errorf("unexpected entries %+v", entries)
	}
}

func TestCartRepository_MutationErrorWritesNothing(t *testing.T) {
	repo, mr := newTestCartRepo(t, time.Hour)
	boom := errors.New("boom")

	_, err := repo.Update(context.Background(), "s1", func(entries []domain.CartEntry) ([]domain.CartEntry, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected mutation error, got %v", err)
	}
	if mr.Exists(CartKey("s1")) {
		t.Error("failed mutation must not write")
	}
}

func TestCartRepository_ConcurrentAddsAreAdditive(t *testing.T) {
	repo, _ := newTestCartRepo(t, time.Hour)
	repo.maxRetries = 100
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Update(ctx, "s1", addOne("5", 1)); err != nil {
				t.Errorf("update failed: %v", err)
			}
		}()
	}
	wg.Wait()

	entries, err := repo.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Quantity != writers {
		t.Errorf("expected quantity %d, got %+v", writers, entries)
	}
}

func TestCartRepository_StoreDown(t *testing.T) {
	repo, mr := newTestCartRepo(t, time.Hour)
	mr.Close()

	_, err := repo.Get(context.Background(), "s1")
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable on read, got %v", err)
	}
	_, err = repo.Update(context.Background(), "s1", addOne("5", 1))
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable on write, got %v", err)
	}
	if n := strings.Count(err.Error(), domain.ErrStoreUnavailable.Error()); n != 1 {
		t.Errorf("expected the sentinel once in %q, got %d", err, n)
	}
}

func TestCartRepository_ReadErrorWrappedOnce(t *testing.T) {
	repo, mr := newTestCartRepo(t, time.Hour)

	// WATCH succeeds on a hash key but GET inside the transaction fails
	mr.HSet(CartKey("s1"), "field", "value")

	_, err := repo.Update(context.Background(), "s1", addOne("5", 1))
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if n := strings.Count(err.Error(), domain.ErrStoreUnavailable.Error()); n != 1 {
		t.Errorf("expected the sentinel once in %q, got %d", err, n)
	}
}

func TestCartKey_Injective(t *testing.T) {
	if CartKey("a") == CartKey("b") {
		t.Error("distinct sessions must map to distinct keys")
	}
	if CartKey("abc") != "cart:abc" {
		t.Errorf("unexpected key %s", CartKey("abc"))
	}
}
