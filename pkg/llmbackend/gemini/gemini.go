// Package gemini implements llmbackend.LanguageBackend against Google's
// Gemini API via google.golang.org/genai.
package gemini

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"

	"github.com/iamabhishek-n/vectra-go/pkg/llmbackend"
)

// Client implements llmbackend.LanguageBackend against Gemini.
type Client struct {
	client         *genai.Client
	model          string
	embeddingModel string
	config         *Config
}

// Config holds Gemini-specific settings.
type Config struct {
	// Required. API key for Gemini authentication.
	APIKey string

	// Optional. Controls randomness in token selection.
	Temperature *float32

	// Required for EmbedDocuments/EmbedQuery. Embedding model name, e.g.
	// "text-embedding-004".
	EmbeddingModel string
}

// DefaultConfig reads GOOGLE_API_KEY from the environment.
func DefaultConfig() *Config {
	return &Config{
		APIKey:         os.Getenv("GOOGLE_API_KEY"),
		EmbeddingModel: "text-embedding-004",
	}
}

// New creates a Gemini-backed LanguageBackend for the given model.
func New(model string, cfg *Config) (*Client, error) {
	if model == "" {
		return nil, fmt.Errorf("gemini: model name is required")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: GOOGLE_API_KEY not set or provided in config")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &Client{client: client, model: model, embeddingModel: cfg.EmbeddingModel, config: cfg}, nil
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
		return nil, fmt.Errorf("gemini: no embedding model configured")
	}
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	resp, err := c.client.Models.EmbedContent(ctx, c.embeddingModel, contents, nil)
	if err != nil {
		return nil, &llmbackend.ProviderError{Op: "EmbedDocuments", Retryable: true, Err: err}
	}
	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		out[i] = e.Values
	}
	return out, nil
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("gemini: empty embedding response")
	}
	return vectors[0], nil
}

func (c *Client) Generate(ctx context.Context, prompt, system string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, c.generateConfig(system))
	if err != nil {
		return "", &llmbackend.ProviderError{Op: "Generate", Retryable: true, Err: err}
	}
	return resp.Text(), nil
}

func (c *Client) GenerateStream(ctx context.Context, prompt, system string) (<-chan llmbackend.StreamChunk, <-chan error) {
	chunks := make(chan llmbackend.StreamChunk)
	errc := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errc)

		contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
		for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, contents, c.generateConfig(system)) {
			if err != nil {
				errc <- &llmbackend.ProviderError{Op: "GenerateStream", Retryable: true, Err: err}
				return
			}
			select {
			case chunks <- llmbackend.StreamChunk{Delta: resp.Text()}:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()

	return chunks, errc
}

func (c *Client) generateConfig(system string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if c.config.Temperature != nil {
		cfg.Temperature = genai.Ptr(*c.config.Temperature)
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return cfg
}
