// Package generation provides the external language-model collaborator
// that completes a grounded prompt into an answer.
package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var (
	// ErrUnavailable indicates the backing generation service is
	// unreachable. The core never retries.
	ErrUnavailable = errors.New("generation service unavailable")

	// ErrTimeout indicates the caller-supplied deadline elapsed before
	// the completion finished.
	ErrTimeout = errors.New("generation timed out")
)

// DefaultTemperature keeps answers close to the supplied context.
const DefaultTemperature = 0.2

// Client completes prompts through an OpenAI-compatible chat API.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a generation client. baseURL may be empty for the
// OpenAI default; model selects the chat model.
func NewClient(baseURL, apiKey, model string) *Client {
	var opts []option.RequestOption
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	client := openai.NewClient(opts...)
	return &Client{client: &client, model: model}
}

// Complete runs the prompt through the model and returns the generated
// text. Deadline expiry maps to ErrTimeout, other transport failures to
// ErrUnavailable, always with the original cause attached. Cancellation
// beyond the single in-flight call is not supported here; long-running
// generations rely on the ctx deadline.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:       openai.ChatModel(c.model),
		Temperature: openai.Float(DefaultTemperature),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}
