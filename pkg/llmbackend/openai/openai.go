// Package openai implements llmbackend.LanguageBackend against OpenAI's
// Chat Completions and Embeddings APIs.
package openai

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"github.com/iamabhishek-n/vectra-go/pkg/llmbackend"
)

// Client implements llmbackend.LanguageBackend against OpenAI.
type Client struct {
	client         *openai.Client
	model          shared.ChatModel
	embeddingModel string
	config         *Config
}

// Config holds OpenAI-specific settings.
type Config struct {
	// Required. API key for OpenAI authentication.
	APIKey string

	// Optional. Base URL for OpenAI-compatible endpoints.
	BaseURL string

	// Optional. Controls randomness in token selection (0.0-2.0).
	Temperature *float32

	// Optional. Maximum number of tokens in the response.
	MaxTokens *int

	// Required for EmbedDocuments/EmbedQuery. Embedding model name,
	// e.g. "text-embedding-3-small".
	EmbeddingModel string
}

// DefaultConfig reads OPENAI_API_KEY from the environment.
func DefaultConfig() *Config {
	return &Config{
		APIKey:         os.Getenv("OPENAI_API_KEY"),
		EmbeddingModel: "text-embedding-3-small",
	}
}

// New creates an OpenAI-backed LanguageBackend for the given chat model.
func New(model string, cfg *Config) (*Client, error) {
	if model == "" {
		return nil, fmt.Errorf("openai: model name is required")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: OPENAI_API_KEY not set or provided in config")
	}

	var opts []option.RequestOption
	opts = append(opts, option.WithAPIKey(cfg.APIKey))
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	oa := openai.NewClient(opts...)
	return &Client{
		client:         &oa,
		model:          shared.ChatModel(model),
		embeddingModel: cfg.EmbeddingModel,
		config:         cfg,
	}, nil
}

var _ llmbackend.LanguageBackend = (*Client)(nil)
var _ llmbackend.CapabilityReporter = (*Client)(nil)

func (c *Client) Capabilities() llmbackend.Capabilities {
	return llmbackend.Capabilities{Embeddings: true, Generation: true, Streaming: true}
}

func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: c.embeddingModel,
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, toProviderError("EmbedDocuments", err)
	}
	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = toFloat32(d.Embedding)
	}
	return out, nil
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("openai: empty embedding response")
	}
	return vectors[0], nil
}

func (c *Client) Generate(ctx context.Context, prompt, system string) (string, error) {
	params := c.buildParams(prompt, system)
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", toProviderError("Generate", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) GenerateStream(ctx context.Context, prompt, system string) (<-chan llmbackend.StreamChunk, <-chan error) {
	chunks := make(chan llmbackend.StreamChunk)
	errc := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errc)

		params := c.buildParams(prompt, system)
		stream := c.client.Chat.Completions.NewStreaming(ctx, params)
		for stream.Next() {
			evt := stream.Current()
			if len(evt.Choices) == 0 {
				continue
			}
			choice := evt.Choices[0]
			select {
			case chunks <- llmbackend.StreamChunk{
				Delta:        choice.Delta.Content,
				FinishReason: string(choice.FinishReason),
			}:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
		if err := stream.Err(); err != nil {
			errc <- toProviderError("GenerateStream", err)
		}
	}()

	return chunks, errc
}

func (c *Client) buildParams(prompt, system string) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
	}
	if c.config.Temperature != nil {
		params.Temperature = openai.Float(float64(*c.config.Temperature))
	}
	if c.config.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*c.config.MaxTokens))
	}
	return params
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

func toProviderError(op string, err error) error {
	return &llmbackend.ProviderError{Op: op, Retryable: true, Err: err}
}
