package metadata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adurand/docchat/internal/chunker"
)

func TestEnrich(t *testing.T) {
	now := time.Now().UTC()
	meta := Provenance{
		DocID:      "doc-1",
		Filename:   "thesis.pdf",
		StoredPath: "/data/uploads/x__thesis.pdf",
		MIME:       "application/pdf",
		SizeBytes:  4096,
		IngestedAt: now,
	}
	candidates := []chunker.Candidate{
		{Page: 0, Text: "first"},
		{Page: 0, Text: "second"},
		{Page: 2, Text: "third"},
	}

	passages := Enrich(meta, candidates)
	require.Len(t, passages, 3)

	ids := map[string]bool{}
	for i, p := range passages {
		assert.Equal(t, i, p.ChunkIndex, "indices are monotonic from 0")
		assert.Equal(t, candidates[i].Page, p.Page)
		assert.Equal(t, candidates[i].Text, p.Text)
		assert.Equal(t, "doc-1", p.DocID)
		assert.Equal(t, "thesis.pdf", p.Filename)
		assert.Equal(t, "/data/uploads/x__thesis.pdf", p.StoredPath)
		assert.Equal(t, "application/pdf", p.MIME)
		assert.Equal(t, int64(4096), p.SizeBytes)
		assert.True(t, p.IngestedAt.Equal(now))
		assert.NotEmpty(t, p.ID)
		ids[p.ID] = true
	}
	assert.Len(t, ids, 3, "passage ids are unique")
}

func TestEnrich_Empty(t *testing.T) {
	passages := Enrich(Provenance{DocID: "doc-1"}, nil)
	assert.Empty(t, passages)
}
