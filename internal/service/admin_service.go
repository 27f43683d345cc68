package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/shophub/shophub/internal/domain"
	"github.com/shophub/shophub/internal/repository"
)

// Indexer rebuilds the retrieval index
type Indexer interface {
	Index(ctx context.Context, force bool) (int, error)
}

// DocumentCounter reports the size of the retrieval index
type DocumentCounter interface {
	Count(ctx context.Context) (int, error)
}

// CatalogRefresher reloads the product cache
type CatalogRefresher interface {
	ListProducts(ctx context.Context) []domain.Product
	Refresh(ctx context.Context) (int, error)
}

// AdminService handles admin operations
type AdminService struct {
	conversations *repository.ConversationRepository
	catalog       CatalogRefresher
	indexer       Indexer
	documents     DocumentCounter
	logger        *zap.Logger
}

// NewAdminService creates a new admin service. indexer and documents may be nil when
// retrieval is disabled.
func NewAdminService(
	conversations *repository.ConversationRepository,
	catalog CatalogRefresher,
	indexer Indexer,
	documents DocumentCounter,
	logger *zap.Logger,
) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		conversations: conversations,
		catalog:       catalog,
		indexer:       indexer,
		documents:     documents,
		logger:        logger,
	}
}

// GetStats returns system statistics. Unreachable backends count as zero.
func (s *AdminService) GetStats(ctx context.Context) (*domain.Stats, error) {
	stats := &domain.Stats{
		Products:         len(s.catalog.ListProducts(ctx)),
		IndexedDocuments: s.IndexedDocuments(ctx),
	}

	if s.conversations != nil {
		chats, err := s.conversations.CountChats(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count chats: %w", err)
		}
		stats.TotalChats = chats
	}
	return stats, nil
}

// IndexedDocuments returns the retrieval index size, or zero if it cannot be read
func (s *AdminService) IndexedDocuments(ctx context.Context) int {
	if s.documents == nil {
		return 0
	}
	n, err := s.documents.Count(ctx)
	if err != nil {
		s.logger.Warn("failed to count indexed documents", zap.Error(err))
		return 0
	}
	return n
}

// Reindex rebuilds the retrieval index from the current catalog
func (s *AdminService) Reindex(ctx context.Context) (int, error) {
	if s.indexer == nil {
		return 0, domain.ErrRetrievalUnavailable
	}
	n, err := s.indexer.Index(ctx, true)
	if err != nil {
		return 0, err
	}
	s.logger.Info("reindexed", zap.Int("documents", n))
	return n, nil
}

// RefreshCatalog reloads the product cache from the product API
func (s *AdminService) RefreshCatalog(ctx context.Context) (int, error) {
	return s.catalog.Refresh(ctx)
}
