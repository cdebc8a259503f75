// Package config loads pipeline configuration from the environment.
package config

import (
	"fmt"
	"os"

	"github.com/adurand/docchat/internal/chunker"
	"github.com/adurand/docchat/internal/rag"
	"github.com/adurand/docchat/internal/storage"
)

// Defaults target a local Ollama setup, the same one the defaults of the
// embedding and LLM models assume.
const (
	DefaultQdrantHost = "localhost"
	DefaultQdrantPort = 6334

	DefaultEmbeddingModel = "nomic-embed-text"
	DefaultEmbeddingDim   = 768
	DefaultLLMModel       = "llama3.1"
	DefaultOpenAIBaseURL  = "http://localhost:11434/v1"

	DefaultDataDir = "data"
)

// Config holds everything the two binaries need to wire a pipeline.
type Config struct {
	QdrantHost string
	QdrantPort int
	Collection string

	OpenAIBaseURL string
	OpenAIAPIKey  string

	EmbeddingModel string
	EmbeddingDim   int
	LLMModel       string

	ChunkSize    int
	ChunkOverlap int
	TopK         int

	DataDir string
}

// Load reads configuration from the environment, applying defaults for
// anything unset, and fails fast on values that would only surface as
// broken behavior later.
func Load() (*Config, error) {
	cfg := &Config{
		QdrantHost: getEnv("QDRANT_HOST", DefaultQdrantHost),
		QdrantPort: getEnvInt("QDRANT_PORT", DefaultQdrantPort),
		Collection: getEnv("RAG_COLLECTION", storage.DefaultCollection),

		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", DefaultOpenAIBaseURL),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", "ollama"),

		EmbeddingModel: getEnv("EMBEDDING_MODEL", DefaultEmbeddingModel),
		EmbeddingDim:   getEnvInt("EMBEDDING_DIM", DefaultEmbeddingDim),
		LLMModel:       getEnv("LLM_MODEL", DefaultLLMModel),

		ChunkSize:    getEnvInt("CHUNK_SIZE", chunker.DefaultChunkSize),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", chunker.DefaultChunkOverlap),
		TopK:         getEnvInt("TOP_K", rag.DefaultTopK),

		DataDir: getEnv("DATA_DIR", DefaultDataDir),
	}

	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("CHUNK_SIZE must be positive, got %d", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", cfg.ChunkOverlap)
	}
	if cfg.TopK <= 0 {
		return nil, fmt.Errorf("TOP_K must be positive, got %d", cfg.TopK)
	}
	if cfg.EmbeddingDim <= 0 {
		return nil, fmt.Errorf("EMBEDDING_DIM must be positive, got %d", cfg.EmbeddingDim)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}
