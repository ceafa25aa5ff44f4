// Package ollama implements llmbackend.LanguageBackend against a local or
// remote Ollama server, for fully offline embedding/generation (§6).
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"github.com/iamabhishek-n/vectra-go/pkg/llmbackend"
)

// Client implements llmbackend.LanguageBackend against Ollama.
type Client struct {
	client         *api.Client
	model          string
	embeddingModel string
}

// Config holds Ollama-specific settings.
type Config struct {
	// Optional. Ollama server host; defaults to the OLLAMA_HOST environment
	// variable when empty.
	Host string

	// Required for EmbedDocuments/EmbedQuery. Embedding model name, e.g.
	// "nomic-embed-text".
	EmbeddingModel string
}

// New creates an Ollama-backed LanguageBackend for the given chat model.
func New(model string, cfg *Config) (*Client, error) {
	if model == "" {
		model = "llama3.2"
	}
	if cfg == nil {
		cfg = &Config{}
	}

	var client *api.Client
	var err error
	if cfg.Host == "" {
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("ollama: client from environment: %w", err)
		}
	} else {
		u, perr := url.Parse(cfg.Host)
		if perr != nil {
			return nil, fmt.Errorf("ollama: invalid host URL: %w", perr)
		}
		client = api.NewClient(u, http.DefaultClient)
	}

	return &Client{client: client, model: model, embeddingModel: cfg.EmbeddingModel}, nil
}

var _ llmbackend.LanguageBackend = (*Client)(nil)
var _ llmbackend.CapabilityReporter = (*Client)(nil)

func (c *Client) Capabilities() llmbackend.Capabilities {
	return llmbackend.Capabilities{Embeddings: c.embeddingModel != "", Generation: true, Streaming: true}
}

func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if c.embeddingModel == "" {
		return nil, fmt.Errorf("ollama: no embedding model configured")
	}
	anyTexts := make([]any, len(texts))
	for i, t := range texts {
		anyTexts[i] = t
	}
	resp, err := c.client.Embed(ctx, &api.EmbedRequest{Model: c.embeddingModel, Input: anyTexts})
	if err != nil {
		return nil, &llmbackend.ProviderError{Op: "EmbedDocuments", Retryable: true, Err: err}
	}
	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		out[i] = e
	}
	return out, nil
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("ollama: empty embedding response")
	}
	return vectors[0], nil
}

func (c *Client) Generate(ctx context.Context, prompt, system string) (string, error) {
	var full string
	stream := false
	req := c.buildChatRequest(prompt, system, &stream)
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		full += resp.Message.Content
		return nil
	})
	if err != nil {
		return "", &llmbackend.ProviderError{Op: "Generate", Retryable: true, Err: err}
	}
	return full, nil
}

func (c *Client) GenerateStream(ctx context.Context, prompt, system string) (<-chan llmbackend.StreamChunk, <-chan error) {
	chunks := make(chan llmbackend.StreamChunk)
	errc := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errc)

		stream := true
		req := c.buildChatRequest(prompt, system, &stream)
		err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
			finish := ""
			if resp.Done {
				finish = string(resp.DoneReason)
			}
			select {
			case chunks <- llmbackend.StreamChunk{Delta: resp.Message.Content, FinishReason: finish}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errc <- &llmbackend.ProviderError{Op: "GenerateStream", Retryable: true, Err: err}
		}
	}()

	return chunks, errc
}

func (c *Client) buildChatRequest(prompt, system string, stream *bool) *api.ChatRequest {
	var messages []api.Message
	if system != "" {
		messages = append(messages, api.Message{Role: "system", Content: system})
	}
	messages = append(messages, api.Message{Role: "user", Content: prompt})
	return &api.ChatRequest{Model: c.model, Messages: messages, Stream: stream}
}
