package retrieval

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/shophub/shophub/internal/domain"
)

// Content types of info documents
const (
	ContentTypeFAQ         = "faq"
	ContentTypeDescription = "description"
)

// pointNamespace seeds deterministic point ids so reindexing overwrites in place
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("shophub/retrieval"))

// ProductLister supplies the catalog to index
type ProductLister interface {
	ListProducts(ctx context.Context) []domain.Product
}

// Indexer embeds the catalog and store FAQ into the vector store
type Indexer struct {
	embedder   Embedder
	store      VectorStore
	products   ProductLister
	dimensions int
	workers    int
	logger     *zap.Logger
}

// NewIndexer creates an indexer
func NewIndexer(embedder Embedder, store VectorStore, products ProductLister, dimensions, workers int, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers < 1 {
		workers = 1
	}
	return &Indexer{
		embedder:   embedder,
		store:      store,
		products:   products,
		dimensions: dimensions,
		workers:    workers,
		logger:     logger,
	}
}

// Index builds the index. Unless force is set, a non-empty collection is left alone.
// It returns the number of documents written.
func (ix *Indexer) Index(ctx context.Context, force bool) (int, error) {
	if err := ix.store.EnsureCollection(ctx, ix.dimensions); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrRetrievalUnavailable, err)
	}

	if !force {
		n, err := ix.store.Count(ctx)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", domain.ErrRetrievalUnavailable, err)
		}
		if n > 0 {
			ix.logger.Info("index already populated", zap.Int("documents", n))
			return 0, nil
		}
	}

	// an FAQ-only index would count as populated and block later runs
	products := ix.products.ListProducts(ctx)
	if len(products) == 0 {
		return 0, fmt.Errorf("%w: catalog returned no products", domain.ErrRetrievalUnavailable)
	}

	docs := BuildDocuments(products)
	points := make([]Point, len(docs))

	p := pool.New().WithContext(ctx).WithMaxGoroutines(ix.workers).WithCancelOnError()
	for i, doc := range docs {
		p.Go(func(ctx context.Context) error {
			vec, err := ix.embedder.Embed(ctx, doc.Text)
			if err != nil {
				return fmt.Errorf("embed %s: %w", doc.Key, err)
			}
			points[i] = Point{
				ID:       PointID(doc.Key),
				Vector:   vec,
				Document: doc.Text,
				Metadata: doc.Metadata,
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrRetrievalUnavailable, err)
	}

	if err := ix.store.Upsert(ctx, points); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrRetrievalUnavailable, err)
	}

	ix.logger.Info("index built", zap.Int("documents", len(points)))
	return len(points), nil
}

// PointID derives the stable point id of a document key
func PointID(key string) string {
	return uuid.NewSHA1(pointNamespace, []byte(key)).String()
}

// BuildDocuments returns one document per product, one per FAQ and the store description
func BuildDocuments(products []domain.Product) []domain.IndexDocument {
	docs := make([]domain.IndexDocument, 0, len(products)+len(FAQs)+1)

	for _, p := range products {
		price := strconv.FormatFloat(p.Price, 'f', 2, 64)
		docs = append(docs, domain.IndexDocument{
			Key: "product:" + p.ID.String(),
			Text: fmt.Sprintf("Product: %s. Category: %s. Description: %s. Price: $%s",
				p.Title, p.Category, p.Description, price),
			Metadata: map[string]string{
				domain.MetaKeyType:      domain.DocTypeProduct,
				domain.MetaKeyProductID: p.ID.String(),
				domain.MetaKeyTitle:     p.Title,
				domain.MetaKeyPrice:     price,
				domain.MetaKeyCategory:  p.Category,
				domain.MetaKeyImage:     p.Image,
			},
		})
	}

	for _, f := range FAQs {
		docs = append(docs, domain.IndexDocument{
			Key:  "faq:" + f.Topic,
			Text: fmt.Sprintf("Q: %s A: %s", f.Question, f.Answer),
			Metadata: map[string]string{
				domain.MetaKeyType:        domain.DocTypeInfo,
				domain.MetaKeyTopic:       f.Topic,
				domain.MetaKeyTitle:       f.Question,
				domain.MetaKeyAnswer:      f.Answer,
				domain.MetaKeyContentType: ContentTypeFAQ,
			},
		})
	}

	docs = append(docs, domain.IndexDocument{
		Key:  "info:about",
		Text: StoreDescription,
		Metadata: map[string]string{
			domain.MetaKeyType:        domain.DocTypeInfo,
			domain.MetaKeyTopic:       "about",
			domain.MetaKeyTitle:       AboutTitle,
			domain.MetaKeyAnswer:      StoreDescription,
			domain.MetaKeyContentType: ContentTypeDescription,
		},
	})

	return docs
}
