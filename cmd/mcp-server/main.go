// Package main provides the MCP server entry point for the document
// question-answering pipeline.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/adurand/docchat/internal/chunker"
	"github.com/adurand/docchat/internal/config"
	"github.com/adurand/docchat/internal/embedding"
	"github.com/adurand/docchat/internal/generation"
	mcpserver "github.com/adurand/docchat/internal/mcp"
	"github.com/adurand/docchat/internal/rag"
	"github.com/adurand/docchat/internal/registry"
	"github.com/adurand/docchat/internal/storage"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	port := getEnv("PORT", "8080")

	// Initialize storage
	store, err := storage.NewStore(cfg.QdrantHost, cfg.QdrantPort, cfg.Collection, cfg.EmbeddingDim)
	if err != nil {
		log.Fatalf("failed to connect to Qdrant: %v", err)
	}
	defer store.Close()

	// Ensure collection exists
	if err := store.EnsureCollection(ctx); err != nil {
		log.Fatalf("failed to ensure collection: %v", err)
	}

	// Open document registry
	reg, err := registry.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("failed to open registry: %v", err)
	}
	defer reg.Close()
	log.Printf("Document registry at %s", reg.Path())

	splitter, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatalf("invalid chunking configuration: %v", err)
	}

	embedder := embedding.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.EmbeddingModel, 0)
	generator := generation.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.LLMModel)

	pipeline := rag.NewPipeline(splitter, embedder, generator, store, reg, rag.Options{
		UploadDir: filepath.Join(cfg.DataDir, "uploads"),
		TopK:      cfg.TopK,
	})

	// Create MCP server
	server := mcpserver.NewServer(pipeline)

	// Create HTTP server with multiple endpoints
	mux := http.NewServeMux()

	// Health endpoint
	healthHandler := mcpserver.NewHealthHandler(store)
	mux.HandleFunc("/health", healthHandler)

	// MCP HTTP endpoint (for remote client connections)
	mcpHTTPHandler := mcpserver.NewHTTPHandler(server, nil)
	mux.Handle("/mcp", mcpHTTPHandler)

	// Check if running in server mode (HTTP) or stdio mode (local development)
	serverMode := getEnv("SERVER_MODE", "false") == "true"

	if serverMode {
		// HTTP mode: serve MCP over HTTP for remote clients
		addr := "0.0.0.0:" + port
		log.Printf("Starting HTTP server on %s (MCP at /mcp, health at /health)", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	} else {
		// Stdio mode: run MCP server over stdin/stdout for local clients
		// Also start HTTP health endpoint in background for local testing
		go func() {
			addr := "0.0.0.0:" + port
			log.Printf("Starting health server on %s", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Printf("Health server error: %v", err)
			}
		}()

		log.Println("Starting docchat MCP server (stdio mode)...")
		if err := server.Run(ctx); err != nil {
			log.Printf("server error: %v", err)
			os.Exit(1)
		}
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
