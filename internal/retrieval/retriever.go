// Package retrieval answers open-ended product and store questions by similarity search
// over an embedded index of the catalog and the store FAQ.
package retrieval

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shophub/shophub/internal/domain"
)

// Embedder turns text into a vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Point is one embedded document as held by a vector store
type Point struct {
	ID       string
	Vector   []float32
	Document string
	Metadata map[string]string
}

// VectorStore holds embedded documents and answers nearest-neighbour queries
type VectorStore interface {
	EnsureCollection(ctx context.Context, dimensions int) error
	Upsert(ctx context.Context, points []Point) error
	Query(ctx context.Context, vector []float32, filter domain.RetrievalFilter, limit int) ([]domain.RetrievalHit, error)
	Count(ctx context.Context) (int, error)
}

// Retriever runs filtered similarity searches
type Retriever struct {
	embedder Embedder
	store    VectorStore
	timeout  time.Duration
	logger   *zap.Logger
}

// NewRetriever creates a retriever
func NewRetriever(embedder Embedder, store VectorStore, timeout time.Duration, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Retriever{
		embedder: embedder,
		store:    store,
		timeout:  timeout,
		logger:   logger,
	}
}

// Search returns at most k hits for query in store order. Hits without a document type
// are dropped. All failures wrap domain.ErrRetrievalUnavailable.
func (r *Retriever) Search(ctx context.Context, query string, filter domain.RetrievalFilter, k int) ([]domain.RetrievalHit, error) {
	if k <= 0 {
		return []domain.RetrievalHit{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", domain.ErrRetrievalUnavailable, err)
	}

	hits, err := r.store.Query(ctx, vector, filter, k)
	if err != nil {
		return nil, fmt.Errorf("%w: query store: %v", domain.ErrRetrievalUnavailable, err)
	}

	out := make([]domain.RetrievalHit, 0, len(hits))
	for _, h := range hits {
		if h.Type() == "" {
			r.logger.Warn("dropping retrieval hit without type", zap.String("document", h.Document))
			continue
		}
		h.Rank = len(out)
		out = append(out, h)
		if len(out) == k {
			break
		}
	}
	return out, nil
}

// Count returns the number of indexed documents
func (r *Retriever) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	n, err := r.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", domain.ErrRetrievalUnavailable, err)
	}
	return n, nil
}
