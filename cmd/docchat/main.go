// Package main provides the docchat CLI for PDF ingestion and
// question answering.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/adurand/docchat/internal/chunker"
	"github.com/adurand/docchat/internal/config"
	"github.com/adurand/docchat/internal/embedding"
	"github.com/adurand/docchat/internal/generation"
	"github.com/adurand/docchat/internal/rag"
	"github.com/adurand/docchat/internal/registry"
	"github.com/adurand/docchat/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Chat with your PDF documents",
	Long: `CLI for a local retrieval pipeline over PDF documents.

Documents are chunked, embedded and indexed in Qdrant; questions are
answered by an OpenAI-compatible model grounded in the retrieved
passages, with page-level citations.

Environment variables:
  QDRANT_HOST      Qdrant hostname (default: localhost)
  QDRANT_PORT      Qdrant gRPC port (default: 6334)
  RAG_COLLECTION   Qdrant collection name (default: rag_collection)
  OPENAI_BASE_URL  OpenAI-compatible endpoint (default: http://localhost:11434/v1)
  OPENAI_API_KEY   API key (default: ollama)
  EMBEDDING_MODEL  Embedding model name (default: nomic-embed-text)
  EMBEDDING_DIM    Embedding vector size (default: 768)
  LLM_MODEL        Chat model name (default: llama3.1)
  CHUNK_SIZE       Chunk size in characters (default: 1200)
  CHUNK_OVERLAP    Chunk overlap in characters (default: 200)
  TOP_K            Passages retrieved per question (default: 6)
  DATA_DIR         Directory for uploads and the registry (default: data)`,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.pdf> [file.pdf...]",
	Short: "Ingest one or more PDF files into the index",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngest,
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question over the ingested documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List ingested documents",
	Args:  cobra.NoArgs,
	RunE:  runDocs,
}

var docCmd = &cobra.Command{
	Use:   "doc <doc-id>",
	Short: "Show one ingested document with chunk previews",
	Args:  cobra.ExactArgs(1),
	RunE:  runDoc,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(docCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the wired pipeline with the handles that need closing.
type app struct {
	pipeline *rag.Pipeline
	store    *storage.Store
	registry *registry.Registry
}

func (a *app) Close() {
	a.registry.Close()
	a.store.Close()
}

func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.QdrantHost, cfg.QdrantPort, cfg.Collection, cfg.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("connect to Qdrant at %s:%d: %w", cfg.QdrantHost, cfg.QdrantPort, err)
	}
	if err := store.EnsureCollection(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	reg, err := registry.Open(cfg.DataDir)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open registry: %w", err)
	}

	splitter, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		reg.Close()
		store.Close()
		return nil, err
	}

	embedder := embedding.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.EmbeddingModel, 0)
	generator := generation.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.LLMModel)

	pipeline := rag.NewPipeline(splitter, embedder, generator, store, reg, rag.Options{
		UploadDir: filepath.Join(cfg.DataDir, "uploads"),
		TopK:      cfg.TopK,
	})

	return &app{pipeline: pipeline, store: store, registry: reg}, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, path := range args {
		start := time.Now()

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		result, err := a.pipeline.Ingest(ctx, raw, filepath.Base(path))
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}

		fmt.Printf("Ingested %s\n", result.Filename)
		fmt.Printf("  Doc ID: %s\n", result.DocID)
		fmt.Printf("  Pages: %d, chunks: %d, size: %d bytes\n", result.Pages, result.Chunks, result.SizeBytes)
		fmt.Printf("  Duration: %s\n", time.Since(start).Round(time.Millisecond))
		if result.Warning != "" {
			fmt.Printf("  Warning: %s\n", result.Warning)
		}
	}
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.pipeline.Answer(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Println(result.Answer)

	if len(result.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, source := range result.Sources {
			page := "p.?"
			if source.Page > 0 {
				page = fmt.Sprintf("p.%d", source.Page)
			}
			fmt.Printf("  [%s %s] score %.3f\n", source.Filename, page, source.Score)
		}
	}
	return nil
}

func runDocs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	docs, err := a.pipeline.ListDocuments(ctx)
	if err != nil {
		return err
	}

	if len(docs) == 0 {
		fmt.Println("No documents ingested yet.")
		return nil
	}

	for _, doc := range docs {
		fmt.Printf("%s  %s\n", doc.DocID, doc.Filename)
		fmt.Printf("  pages: %d, chunks: %d, size: %d bytes, ingested: %s\n",
			doc.PageCount, doc.ChunkCount, doc.SizeBytes,
			doc.IngestedAt.Local().Format(time.RFC3339))
	}
	return nil
}

func runDoc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	detail, err := a.pipeline.GetDocument(ctx, args[0])
	if err != nil {
		return err
	}

	if detail.Document != nil {
		doc := detail.Document
		fmt.Printf("%s  %s\n", doc.DocID, doc.Filename)
		fmt.Printf("  pages: %d, chunks: %d, size: %d bytes, ingested: %s\n",
			doc.PageCount, doc.ChunkCount, doc.SizeBytes,
			doc.IngestedAt.Local().Format(time.RFC3339))
		fmt.Printf("  stored at: %s\n", doc.StoredPath)
	} else {
		fmt.Println("No registry entry; document reconstructed from index data.")
	}

	fmt.Printf("  indexed chunks: %d, pages covered: %v\n",
		detail.Chunks.ChunksFound, detail.Chunks.UniquePages)

	for _, sample := range detail.Chunks.Samples {
		page := "p.?"
		if sample.Page > 0 {
			page = fmt.Sprintf("p.%d", sample.Page)
		}
		fmt.Printf("\n  chunk %d (%s):\n    %s\n", sample.ChunkIndex, page, sample.Preview)
	}
	return nil
}
