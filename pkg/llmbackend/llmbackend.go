// Package llmbackend defines the LanguageBackend capability (§6): the single
// provider-agnostic contract the rest of the orchestrator programs against
// for embeddings and generation. Concrete provider adapters live in
// sibling packages (openai, ollama, gemini); this package also ships a
// Mock implementation for tests, mirroring pkg/middleware/ai/mock.go.
package llmbackend

import (
	"context"
	"fmt"
)

// StreamChunk is one element of a generateStream sequence (§6).
type StreamChunk struct {
	Delta        string
	FinishReason string
	Usage        *Usage
}

// Usage reports token accounting for a generation call, when the provider
// supplies it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// LanguageBackend is the provider plug-in point (§6).
//
// Implementations must keep embedding dimension consistent across calls
// and yield streaming deltas in production order. The bundled adapters
// report a failed provider call as a *ProviderError; local failures (no
// embedding model configured, an empty or choice-less response) are
// returned as plain errors, not as *ProviderError.
type LanguageBackend interface {
	// EmbedDocuments embeds a batch of texts in one backend call.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedQuery embeds a single query text.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	// Generate performs a non-streaming chat/completion call.
	Generate(ctx context.Context, prompt, system string) (string, error)
	// GenerateStream performs a streaming chat/completion call. The returned
	// channel is closed when generation completes or ctx is cancelled; a
	// non-nil error is delivered via errc before the channel closes.
	GenerateStream(ctx context.Context, prompt, system string) (<-chan StreamChunk, <-chan error)
}

// Capabilities describes which operations a concrete backend actually
// supports, so that missing capabilities (e.g. embeddings on an
// Anthropic-like backend) are detected once the Engine is assembled —
// see CheckCapabilities and orchestrator.Engine.ValidateCapabilities —
// rather than at first call (§9 design note).
type Capabilities struct {
	Embeddings bool
	Generation bool
	Streaming  bool
}

// CapabilityReporter is optionally implemented by backends so the
// orchestrator can validate capability requirements up front.
type CapabilityReporter interface {
	Capabilities() Capabilities
}

// CheckCapabilities reports an error naming role and the missing
// capability if backend implements CapabilityReporter and lacks anything
// need asks for. A backend that doesn't implement CapabilityReporter is
// assumed capable of whatever it's asked to do — there's no way to
// introspect further, and refusing to run against it would regress
// backends that simply haven't added the optional interface.
func CheckCapabilities(role string, backend LanguageBackend, need Capabilities) error {
	reporter, ok := backend.(CapabilityReporter)
	if !ok {
		return nil
	}
	have := reporter.Capabilities()
	switch {
	case need.Embeddings && !have.Embeddings:
		return fmt.Errorf("llmbackend: %s backend does not support embeddings", role)
	case need.Generation && !have.Generation:
		return fmt.Errorf("llmbackend: %s backend does not support generation", role)
	case need.Streaming && !have.Streaming:
		return fmt.Errorf("llmbackend: %s backend does not support streaming", role)
	}
	return nil
}

// ProviderError is the error kind LanguageBackend adapters raise when a
// provider call fails (§7). Callers that retry through retry.Do (the
// ingestion coordinator's embedding step) make up to 3 attempts in total,
// waiting 500ms and then 1s, while Retryable is set; fatal errors are
// surfaced immediately.
type ProviderError struct {
	Op        string // operation name; the bundled adapters use "EmbedDocuments", "Generate", "GenerateStream"
	Status    int    // HTTP-like status code, 0 if not applicable
	Retryable bool
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return e.Op + ": provider error"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error { return e.Err }
