// Package factory dispatches on an LLMConfig's provider name to build a
// concrete llmbackend.LanguageBackend. It lives outside pkg/llmbackend
// because it imports every provider adapter, each of which imports
// llmbackend itself (§4.1, §6).
package factory

import (
	"fmt"

	"github.com/iamabhishek-n/vectra-go/pkg/config"
	"github.com/iamabhishek-n/vectra-go/pkg/llmbackend"
	"github.com/iamabhishek-n/vectra-go/pkg/llmbackend/gemini"
	"github.com/iamabhishek-n/vectra-go/pkg/llmbackend/ollama"
	"github.com/iamabhishek-n/vectra-go/pkg/llmbackend/openai"
)

// New builds a LanguageBackend from an LLMConfig, dispatching on the
// provider name (§4.1, §6). embeddingModel is the model used for
// EmbedDocuments/EmbedQuery — callers building a generation-only backend
// may pass "".
func New(cfg config.LLMConfig, embeddingModel string) (llmbackend.LanguageBackend, error) {
	switch cfg.Provider {
	case "gemini":
		return gemini.New(cfg.Model, &gemini.Config{APIKey: cfg.APIKey, EmbeddingModel: embeddingModel})
	case "openai":
		var maxTokens *int
		if cfg.MaxTokens > 0 {
			maxTokens = &cfg.MaxTokens
		}
		return openai.New(cfg.Model, &openai.Config{
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			MaxTokens:      maxTokens,
			EmbeddingModel: embeddingModel,
		})
	case "ollama":
		return ollama.New(cfg.Model, &ollama.Config{Host: cfg.BaseURL, EmbeddingModel: embeddingModel})
	case "mock":
		return llmbackend.NewMock(""), nil
	default:
		return nil, fmt.Errorf("llmbackend: unknown provider %q", cfg.Provider)
	}
}
