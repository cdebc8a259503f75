// Package metadata stamps provenance onto chunk candidates before they
// are embedded and indexed.
package metadata

import (
	"time"

	"github.com/google/uuid"

	"github.com/adurand/docchat/internal/chunker"
	"github.com/adurand/docchat/internal/storage"
)

// Provenance is the per-document metadata shared by all of its passages.
type Provenance struct {
	DocID      string
	Filename   string
	StoredPath string
	MIME       string
	SizeBytes  int64
	IngestedAt time.Time
}

// Enrich turns chunk candidates into passages carrying full provenance.
// Chunk indices are assigned monotonically from 0 in candidate-emission
// order. The transform has no side effects beyond minting passage ids.
func Enrich(meta Provenance, candidates []chunker.Candidate) []*storage.Passage {
	passages := make([]*storage.Passage, len(candidates))
	for i, candidate := range candidates {
		passages[i] = &storage.Passage{
			ID:         uuid.New().String(),
			DocID:      meta.DocID,
			ChunkIndex: i,
			Page:       candidate.Page,
			Text:       candidate.Text,
			Filename:   meta.Filename,
			StoredPath: meta.StoredPath,
			MIME:       meta.MIME,
			SizeBytes:  meta.SizeBytes,
			IngestedAt: meta.IngestedAt,
		}
	}
	return passages
}
