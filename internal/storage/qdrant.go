// Package storage provides the Qdrant-backed vector index for passages.
package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

// Store wraps the Qdrant client with connection management and the
// passage read/write operations the pipeline needs.
type Store struct {
	client     *qdrant.Client
	collection string
	dimension  int
}

// NewStore creates a Qdrant-backed store and validates connectivity.
// It performs a health check with retry on startup and fails fast if
// Qdrant is unreachable.
func NewStore(host string, port int, collection string, dimension int) (*Store, error) {
	if collection == "" {
		collection = DefaultCollection
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid vector dimension %d", dimension)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	store := &Store{
		client:     client,
		collection: collection,
		dimension:  dimension,
	}

	if err := store.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return store, nil
}

// healthCheckWithRetry performs a health check with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (s *Store) healthCheckWithRetry(ctx context.Context) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, backoff.WithContext(exponentialBackoff, ctx))
}

// Health performs a single health check against Qdrant.
func (s *Store) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// EnsureCollection ensures the passage collection exists with cosine
// distance vectors of the configured dimension and a doc_id payload
// index. Idempotent - safe to call multiple times.
func (s *Store) EnsureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	for _, name := range collections {
		if name == s.collection {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	// Exact-match lookups by document require a keyword index on doc_id.
	_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: s.collection,
		FieldName:      "doc_id",
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return fmt.Errorf("failed to create doc_id index: %w", err)
	}

	return nil
}

// Close closes the Qdrant client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// upsertWithRetry performs an upsert with exponential backoff retry.
// Retrying writes is storage-engine discipline; embedding and generation
// calls are never retried.
func (s *Store) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         points,
			Wait:           qdrant.PtrOf(true),
		})
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(exponentialBackoff, ctx))
}

// UpsertPassages stores passages with embeddings, batched in groups of 100.
// All passages of one ingestion go through a single call so readers never
// observe a half-written document once the registry entry is published.
func (s *Store) UpsertPassages(ctx context.Context, passages []*Passage) error {
	if len(passages) == 0 {
		return nil
	}

	for i, p := range passages {
		if len(p.Embedding) != s.dimension {
			return fmt.Errorf("%w: passage %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(p.Embedding), s.dimension)
		}
	}

	batchSize := 100
	for i := 0; i < len(passages); i += batchSize {
		end := min(i+batchSize, len(passages))
		batch := passages[i:end]
		points := make([]*qdrant.PointStruct, len(batch))

		for j, p := range batch {
			points[j] = &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(p.ID),
				Vectors: qdrant.NewVectors(p.Embedding...),
				Payload: qdrant.NewValueMap(map[string]any{
					"doc_id":      p.DocID,
					"chunk_index": p.ChunkIndex,
					"page":        p.Page,
					"text":        p.Text,
					"filename":    p.Filename,
					"stored_path": p.StoredPath,
					"mime":        p.MIME,
					"size_bytes":  p.SizeBytes,
					"ingested_at": p.IngestedAt.UTC().Format(time.RFC3339),
				}),
			}
		}

		if err := s.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// Query performs vector similarity search and returns up to k passages
// ordered by descending cosine similarity. A k larger than the number of
// indexed passages returns everything available.
func (s *Store) Query(ctx context.Context, embedding []float32, k int) ([]ScoredPassage, error) {
	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(embedding), s.dimension)
	}

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query passages: %w", err)
	}

	scored := make([]ScoredPassage, 0, len(results))
	for _, result := range results {
		scored = append(scored, ScoredPassage{
			Passage: passageFromPayload(result.Id.GetUuid(), result.Payload),
			Score:   float64(result.Score),
		})
	}

	return scored, nil
}

// GetByDocID returns every passage belonging to one document, ordered by
// chunk index. Uses the Scroll API with an exact doc_id match.
func (s *Store) GetByDocID(ctx context.Context, docID string) ([]*Passage, error) {
	var passages []*Passage
	var offset *qdrant.PointId

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("doc_id", docID),
		},
	}

	batchSize := uint32(100)
	for {
		results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.collection,
			Filter:         filter,
			Limit:          qdrant.PtrOf(batchSize),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scroll passages: %w", err)
		}

		for _, result := range results {
			passages = append(passages, passageFromPayload(result.Id.GetUuid(), result.Payload))
		}

		if uint32(len(results)) < batchSize {
			break
		}
		offset = results[len(results)-1].Id
	}

	sort.Slice(passages, func(i, j int) bool {
		return passages[i].ChunkIndex < passages[j].ChunkIndex
	})
	return passages, nil
}

// Count returns the total number of indexed passages.
func (s *Store) Count(ctx context.Context) (uint64, error) {
	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("failed to get collection info: %w", err)
	}
	return info.GetPointsCount(), nil
}

func passageFromPayload(id string, payload map[string]*qdrant.Value) *Passage {
	ingestedAt, err := time.Parse(time.RFC3339, payload["ingested_at"].GetStringValue())
	if err != nil {
		ingestedAt = time.Time{}
	}

	return &Passage{
		ID:         id,
		DocID:      payload["doc_id"].GetStringValue(),
		ChunkIndex: int(payload["chunk_index"].GetIntegerValue()),
		Page:       int(payload["page"].GetIntegerValue()),
		Text:       payload["text"].GetStringValue(),
		Filename:   payload["filename"].GetStringValue(),
		StoredPath: payload["stored_path"].GetStringValue(),
		MIME:       payload["mime"].GetStringValue(),
		SizeBytes:  payload["size_bytes"].GetIntegerValue(),
		IngestedAt: ingestedAt,
	}
}
