package retrieval

import (
	"context"
	"fmt"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"github.com/shophub/shophub/internal/domain"
)

// payloadDocument holds the embedded text next to the metadata keys
const payloadDocument = "document"

// QdrantStore is a VectorStore backed by one Qdrant collection
type QdrantStore struct {
	client     *qdrant.Client
	collection string
}

// NewQdrantStore connects to Qdrant over gRPC
func NewQdrantStore(host string, port int, apiKey, collection string) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}
	return &QdrantStore{client: client, collection: collection}, nil
}

// Close closes the gRPC connection
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// EnsureCollection creates the collection with cosine distance if it does not exist
func (s *QdrantStore) EnsureCollection(ctx context.Context, dimensions int) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// Upsert writes points, replacing any with the same id
func (s *QdrantStore) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	structs := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		structs = append(structs, &qdrant.PointStruct{
			Id:      qdrant.NewID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(toPayload(p)),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         structs,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}
	return nil
}

// Query returns the nearest points matching filter
func (s *QdrantStore) Query(ctx context.Context, vector []float32, filter domain.RetrievalFilter, limit int) ([]domain.RetrievalHit, error) {
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         toFilter(filter),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}

	hits := make([]domain.RetrievalHit, 0, len(points))
	for i, p := range points {
		hit := fromPayload(p.GetPayload())
		hit.Rank = i
		hit.Score = p.GetScore()
		hits = append(hits, hit)
	}
	return hits, nil
}

// Count returns the exact number of points in the collection
func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return int(n), nil
}

func toPayload(p Point) map[string]any {
	payload := make(map[string]any, len(p.Metadata)+1)
	for k, v := range p.Metadata {
		payload[k] = v
	}
	payload[payloadDocument] = p.Document
	return payload
}

func toFilter(f domain.RetrievalFilter) *qdrant.Filter {
	var must []*qdrant.Condition
	if f.Type != "" {
		must = append(must, qdrant.NewMatch(domain.MetaKeyType, f.Type))
	}
	if f.Topic != "" {
		must = append(must, qdrant.NewMatch(domain.MetaKeyTopic, f.Topic))
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

func fromPayload(payload map[string]*qdrant.Value) domain.RetrievalHit {
	hit := domain.RetrievalHit{Metadata: make(map[string]string, len(payload))}
	for k, v := range payload {
		s := valueString(v)
		if k == payloadDocument {
			hit.Document = s
			continue
		}
		hit.Metadata[k] = s
	}
	return hit
}

func valueString(v *qdrant.Value) string {
	switch k := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return k.StringValue
	case *qdrant.Value_IntegerValue:
		return strconv.FormatInt(k.IntegerValue, 10)
	case *qdrant.Value_DoubleValue:
		return strconv.FormatFloat(k.DoubleValue, 'f', -1, 64)
	case *qdrant.Value_BoolValue:
		return strconv.FormatBool(k.BoolValue)
	default:
		return ""
	}
}
