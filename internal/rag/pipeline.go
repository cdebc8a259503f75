// Package rag orchestrates the ingestion and question-answering
// pipelines: chunking, enrichment, embedding, indexing, retrieval,
// prompt construction and answer composition.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adurand/docchat/internal/chunker"
	"github.com/adurand/docchat/internal/metadata"
	"github.com/adurand/docchat/internal/pdf"
	"github.com/adurand/docchat/internal/prompt"
	"github.com/adurand/docchat/internal/registry"
	"github.com/adurand/docchat/internal/storage"
)

const (
	// DefaultTopK is the number of passages retrieved per question.
	DefaultTopK = 6

	// previewLen bounds the source preview returned with answers.
	previewLen = 350

	// Chunk samples returned by GetDocument.
	samplePreviewLen = 500
	maxSamples       = 12

	mimePDF = "application/pdf"
)

// IngestResult reports one successful ingestion. Warning is set when the
// passages were indexed but the registry entry could not be written.
type IngestResult struct {
	DocID     string
	Filename  string
	Pages     int
	Chunks    int
	SizeBytes int64
	Warning   string
}

// Source is one citation entry of an answer. Page is 1-based for
// display, 0 when the source page is unknown.
type Source struct {
	Filename   string
	DocID      string
	Page       int
	ChunkIndex int
	Score      float64
	Preview    string
}

// AnswerResult pairs the generated answer with its ranked source list.
type AnswerResult struct {
	Answer  string
	Sources []Source
}

// ChunkSample is a bounded preview of one indexed passage.
type ChunkSample struct {
	ChunkIndex int
	Page       int // 1-based display page, 0 when unknown
	Preview    string
}

// ChunkSummary describes the indexed chunk data of one document.
type ChunkSummary struct {
	ChunksFound int
	UniquePages []int // 1-based, sorted ascending
	Samples     []ChunkSample
}

// DocumentDetail combines a registry entry with its chunk summary.
// Document is nil when the registry entry is missing but chunk data
// exists, letting callers reconcile a partial ingestion.
type DocumentDetail struct {
	Document *registry.Document
	Chunks   ChunkSummary
}

// Options tune a Pipeline beyond its collaborators.
type Options struct {
	UploadDir  string
	TopK       int
	Logger     *slog.Logger
	ExtractPDF func(data []byte) ([]pdf.Page, error)
}

// Pipeline is the core of the system. Each operation is stateless; the
// vector index and registry are the only shared mutable resources.
type Pipeline struct {
	splitter  *chunker.Splitter
	embedder  Embedder
	generator Generator
	index     VectorIndex
	registry  Registry

	uploadDir string
	topK      int
	logger    *slog.Logger
	extract   func(data []byte) ([]pdf.Page, error)
}

// NewPipeline wires the pipeline from its collaborators.
func NewPipeline(splitter *chunker.Splitter, embedder Embedder, generator Generator, index VectorIndex, reg Registry, opts Options) *Pipeline {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ExtractPDF == nil {
		opts.ExtractPDF = pdf.Extract
	}
	if opts.UploadDir == "" {
		opts.UploadDir = filepath.Join("data", "uploads")
	}
	return &Pipeline{
		splitter:  splitter,
		embedder:  embedder,
		generator: generator,
		index:     index,
		registry:  reg,
		uploadDir: opts.UploadDir,
		topK:      opts.TopK,
		logger:    opts.Logger,
		extract:   opts.ExtractPDF,
	}
}

// Ingest turns raw PDF bytes into indexed, citable passages and records
// the document in the registry. The registry entry is written only after
// all passages are durably indexed, so readers never see a document
// whose chunks are not queryable yet.
func (p *Pipeline) Ingest(ctx context.Context, raw []byte, filename string) (*IngestResult, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, filename)
	}
	if len(raw) == 0 {
		return nil, ErrEmptyDocument
	}

	docID := uuid.New().String()
	ingestedAt := time.Now().UTC()

	// Keep the original bytes on disk for inspection and re-ingestion.
	storedPath, err := p.storeUpload(docID, filename, raw)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	pages, err := p.extract(raw)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	candidates := p.splitter.Split(pages)
	if len(candidates) == 0 {
		return nil, ErrEmptyDocument
	}

	passages := metadata.Enrich(metadata.Provenance{
		DocID:      docID,
		Filename:   filename,
		StoredPath: storedPath,
		MIME:       mimePDF,
		SizeBytes:  int64(len(raw)),
		IngestedAt: ingestedAt,
	}, candidates)

	texts := make([]string, len(passages))
	for i, passage := range passages {
		texts[i] = passage.Text
	}
	embeddings, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(embeddings) != len(passages) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(passages))
	}
	for i := range passages {
		passages[i].Embedding = embeddings[i]
	}

	if err := p.index.UpsertPassages(ctx, passages); err != nil {
		return nil, fmt.Errorf("index passages: %w", err)
	}

	result := &IngestResult{
		DocID:     docID,
		Filename:  filename,
		Pages:     len(pages),
		Chunks:    len(passages),
		SizeBytes: int64(len(raw)),
	}

	err = p.registry.Record(ctx, &registry.Document{
		DocID:      docID,
		Filename:   filename,
		StoredPath: storedPath,
		SizeBytes:  int64(len(raw)),
		PageCount:  len(pages),
		ChunkCount: len(passages),
		IngestedAt: ingestedAt,
	})
	if err != nil {
		// The passages are already queryable, so this is a partial
		// success surfaced as a warning, not a hard failure. Callers can
		// reconcile through GetDocument, which reads the index directly.
		p.logger.Warn("registry write failed after indexing",
			"doc_id", docID, "filename", filename, "error", err)
		result.Warning = fmt.Sprintf("document indexed but registry write failed: %v", err)
		return result, nil
	}

	p.logger.Info("Ingested document",
		"doc_id", docID, "filename", filename,
		"pages", result.Pages, "chunks", result.Chunks)
	return result, nil
}

// Answer retrieves the passages most relevant to the question, grounds a
// prompt in them and completes it. The generator is always invoked, even
// when retrieval comes back empty; the prompt header makes the model
// state that the documents hold no answer.
func (p *Pipeline) Answer(ctx context.Context, question string) (*AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	retrieved, err := p.Retrieve(ctx, question, p.topK)
	if err != nil {
		return nil, err
	}

	promptText := prompt.Build(question, retrieved)
	generated, err := p.generator.Complete(ctx, promptText)
	if err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}

	p.logger.Debug("Answered question", "sources", len(retrieved))
	return compose(generated, retrieved), nil
}

// Retrieve embeds the question and returns the top-k passages ordered by
// descending relevance. A k larger than the indexed passage count simply
// returns everything available.
func (p *Pipeline) Retrieve(ctx context.Context, question string, k int) ([]storage.ScoredPassage, error) {
	if k <= 0 {
		k = p.topK
	}

	vector, err := p.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	retrieved, err := p.index.Query(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	return retrieved, nil
}

// ListDocuments returns all registered documents, newest first.
func (p *Pipeline) ListDocuments(ctx context.Context) ([]*registry.Document, error) {
	return p.registry.List(ctx)
}

// GetDocument returns the registry entry plus a summary of the indexed
// chunk data. A document whose registry write was lost is still served
// from the index alone, with Document nil.
func (p *Pipeline) GetDocument(ctx context.Context, docID string) (*DocumentDetail, error) {
	doc, err := p.registry.Get(ctx, docID)
	if err != nil && !errors.Is(err, registry.ErrNotFound) {
		return nil, fmt.Errorf("registry get: %w", err)
	}

	passages, err := p.index.GetByDocID(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("index get: %w", err)
	}

	if doc == nil && len(passages) == 0 {
		return nil, registry.ErrNotFound
	}

	return &DocumentDetail{
		Document: doc,
		Chunks:   summarize(passages),
	}, nil
}

// compose maps the retrieval result onto the caller-facing answer,
// keeping ranking order. The 0-based stored page becomes 1-based here
// and nowhere else on this path.
func compose(generated string, retrieved []storage.ScoredPassage) *AnswerResult {
	sources := make([]Source, 0, len(retrieved))
	for _, r := range retrieved {
		passage := r.Passage
		page := 0
		if passage.Page >= 0 {
			page = passage.Page + 1
		}
		sources = append(sources, Source{
			Filename:   passage.Filename,
			DocID:      passage.DocID,
			Page:       page,
			ChunkIndex: passage.ChunkIndex,
			Score:      r.Score,
			Preview:    truncate(passage.Text, previewLen),
		})
	}
	return &AnswerResult{Answer: generated, Sources: sources}
}

func summarize(passages []*storage.Passage) ChunkSummary {
	summary := ChunkSummary{ChunksFound: len(passages)}

	seen := map[int]bool{}
	for _, passage := range passages {
		if passage.Page >= 0 && !seen[passage.Page] {
			seen[passage.Page] = true
			summary.UniquePages = append(summary.UniquePages, passage.Page+1)
		}
	}
	sort.Ints(summary.UniquePages)

	for _, passage := range passages[:min(maxSamples, len(passages))] {
		page := 0
		if passage.Page >= 0 {
			page = passage.Page + 1
		}
		summary.Samples = append(summary.Samples, ChunkSample{
			ChunkIndex: passage.ChunkIndex,
			Page:       page,
			Preview:    truncate(passage.Text, samplePreviewLen),
		})
	}
	return summary
}

// storeUpload writes the raw document under the upload directory as
// <doc_id>__<sanitized filename>.
func (p *Pipeline) storeUpload(docID, filename string, raw []byte) (string, error) {
	if err := os.MkdirAll(p.uploadDir, 0o700); err != nil {
		return "", err
	}
	path := filepath.Join(p.uploadDir, docID+"__"+sanitizeFilename(filename))
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// sanitizeFilename strips directories and replaces anything outside a
// conservative character set, so caller-supplied names cannot escape the
// upload directory.
func sanitizeFilename(filename string) string {
	base := filepath.Base(filepath.ToSlash(filename))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
