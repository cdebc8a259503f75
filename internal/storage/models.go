package storage

import "time"

// Passage is a document chunk plus its embedding vector, as persisted in
// the vector index. The index is the sole writer of passages.
type Passage struct {
	ID         string // UUID point id
	DocID      string // Owning document UUID
	ChunkIndex int    // 0-based position within the document
	Page       int    // 0-based source page, -1 when unknown
	Text       string
	Filename   string
	StoredPath string
	MIME       string
	SizeBytes  int64
	IngestedAt time.Time
	Embedding  []float32
}

// ScoredPassage pairs a retrieved passage with its relevance score.
// Scores are Qdrant cosine similarities: higher is better.
type ScoredPassage struct {
	Passage *Passage
	Score   float64
}

// DefaultCollection is the collection name used unless configured otherwise.
// Carried over from the ingestion store this system replaces.
const DefaultCollection = "rag_collection"
