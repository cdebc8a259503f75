package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adurand/docchat/internal/chunker"
	"github.com/adurand/docchat/internal/rag"
	"github.com/adurand/docchat/internal/registry"
	"github.com/adurand/docchat/internal/storage"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0}
	}
	return vectors, nil
}

type stubGenerator struct{}

func (stubGenerator) Complete(_ context.Context, _ string) (string, error) {
	return "Answer [a.pdf p.1].", nil
}

type stubIndex struct {
	result []storage.ScoredPassage
}

func (s *stubIndex) UpsertPassages(_ context.Context, _ []*storage.Passage) error { return nil }

func (s *stubIndex) Query(_ context.Context, _ []float32, _ int) ([]storage.ScoredPassage, error) {
	return s.result, nil
}

func (s *stubIndex) GetByDocID(_ context.Context, _ string) ([]*storage.Passage, error) {
	return nil, nil
}

type stubRegistry struct{}

func (stubRegistry) Record(_ context.Context, _ *registry.Document) error { return nil }
func (stubRegistry) List(_ context.Context) ([]*registry.Document, error) { return nil, nil }
func (stubRegistry) Get(_ context.Context, _ string) (*registry.Document, error) {
	return nil, registry.ErrNotFound
}

func newTestPipeline(t *testing.T, index *stubIndex) *rag.Pipeline {
	t.Helper()
	splitter, err := chunker.New(100, 20)
	require.NoError(t, err)
	return rag.NewPipeline(splitter, stubEmbedder{}, stubGenerator{}, index, stubRegistry{}, rag.Options{
		UploadDir: t.TempDir(),
	})
}

func TestAskHandler_SourceMapping(t *testing.T) {
	index := &stubIndex{result: []storage.ScoredPassage{
		{Passage: &storage.Passage{DocID: "d1", Filename: "a.pdf", Page: 0, ChunkIndex: 3, Text: "top"}, Score: 0.9},
		{Passage: &storage.Passage{DocID: "d2", Filename: "b.pdf", Page: -1, ChunkIndex: 0, Text: "weak"}, Score: 0.4},
	}}
	handler := makeAskHandler(newTestPipeline(t, index))

	_, out, err := handler(context.Background(), nil, AskInput{Question: "what?"})
	require.NoError(t, err)
	require.Len(t, out.Sources, 2)

	assert.Equal(t, "a.pdf", out.Sources[0].Filename)
	assert.Equal(t, "d1", out.Sources[0].DocID)
	assert.Equal(t, 1, out.Sources[0].Page)
	assert.Equal(t, 3, out.Sources[0].ChunkIndex)
	assert.Equal(t, 0.9, out.Sources[0].Score)
	assert.Equal(t, "top", out.Sources[0].Preview)

	assert.Equal(t, 0, out.Sources[1].Page, "unknown page surfaces as 0")
	assert.Equal(t, 0, out.Sources[1].ChunkIndex)
	assert.Empty(t, out.Message)
}

func TestAskHandler_EmptyIndex(t *testing.T) {
	handler := makeAskHandler(newTestPipeline(t, &stubIndex{}))

	_, out, err := handler(context.Background(), nil, AskInput{Question: "anything?"})
	require.NoError(t, err)
	assert.Empty(t, out.Sources)
	assert.NotEmpty(t, out.Message)
}

func TestGetHandler_NotFound(t *testing.T) {
	handler := makeGetHandler(newTestPipeline(t, &stubIndex{}))

	_, out, err := handler(context.Background(), nil, GetDocumentInput{DocID: "missing"})
	require.NoError(t, err)
	assert.False(t, out.Found)
}
