package rag

import (
	"context"

	"github.com/adurand/docchat/internal/registry"
	"github.com/adurand/docchat/internal/storage"
)

// Embedder turns text into fixed-length vectors. Production
// implementation lives in internal/embedding; tests supply doubles.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator completes a grounded prompt into an answer. Production
// implementation lives in internal/generation.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// VectorIndex persists passages and serves similarity queries. Production
// implementation lives in internal/storage.
type VectorIndex interface {
	UpsertPassages(ctx context.Context, passages []*storage.Passage) error
	Query(ctx context.Context, embedding []float32, k int) ([]storage.ScoredPassage, error)
	GetByDocID(ctx context.Context, docID string) ([]*storage.Passage, error)
}

// Registry records ingested documents durably, independent of the vector
// index. Production implementation lives in internal/registry.
type Registry interface {
	Record(ctx context.Context, doc *registry.Document) error
	List(ctx context.Context) ([]*registry.Document, error)
	Get(ctx context.Context, docID string) (*registry.Document, error)
}
