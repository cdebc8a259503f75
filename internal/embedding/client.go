// Package embedding provides the external embedding collaborator: an
// OpenAI-compatible client turning text into fixed-length vectors. It also
// works against local servers exposing the same API, such as Ollama.
package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrUnavailable indicates the backing embedding service is unreachable
// or returned a failure. The core never retries; retry policy belongs to
// the caller.
var ErrUnavailable = errors.New("embedding service unavailable")

// DefaultBatchSize bounds the number of texts per request to keep
// token-per-request pressure reasonable.
const DefaultBatchSize = 256

// Client generates embeddings through an OpenAI-compatible API.
type Client struct {
	client    *openai.Client
	model     string
	batchSize int
}

// NewClient creates an embedding client. baseURL may be empty for the
// OpenAI default; model selects the embedding model. A batchSize of 0
// uses DefaultBatchSize.
func NewClient(baseURL, apiKey, model string, batchSize int) *Client {
	var opts []option.RequestOption
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	client := openai.NewClient(opts...)
	return &Client{
		client:    &client,
		model:     model,
		batchSize: batchSize,
	}
}

// Embed returns the embedding vector for a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns one embedding vector per input text, in input order.
// Requests are batched; any service failure surfaces immediately as
// ErrUnavailable with the original cause attached.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	allVectors := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += c.batchSize {
		end := min(i+c.batchSize, len(texts))
		batch := texts[i:end]

		resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: batch,
			},
			Model: openai.EmbeddingModel(c.model),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: batch %d-%d: %w", ErrUnavailable, i, end, err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrUnavailable, len(resp.Data), len(batch))
		}

		for _, data := range resp.Data {
			allVectors = append(allVectors, toFloat32(data.Embedding))
		}
	}

	return allVectors, nil
}

// toFloat32 converts []float64 to []float32.
// The API returns float64, storage uses float32 for memory efficiency.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
