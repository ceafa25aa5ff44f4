package llmbackend

import (
	"context"
	"strings"
	"sync"
)

// Mock implements LanguageBackend for tests, returning canned responses
// without calling a real provider.
type Mock struct {
	mu sync.Mutex

	// Response is returned by Generate/GenerateStream when Responses is
	// empty.
	Response string

	// Responses, when non-empty, are returned in order on successive
	// Generate calls; the last is reused once exhausted.
	Responses []string
	callCount int

	// EmbeddingDim controls the length of vectors returned by Embed*; a
	// deterministic pseudo-embedding is derived from the input text.
	EmbeddingDim int

	// Err, when set, is returned by every method instead of a result.
	Err error

	StreamWords bool
}

var _ LanguageBackend = (*Mock)(nil)
var _ CapabilityReporter = (*Mock)(nil)

// NewMock returns a Mock that always answers with response.
func NewMock(response string) *Mock {
	return &Mock{Response: response, EmbeddingDim: 8}
}

func (m *Mock) Capabilities() Capabilities {
	return Capabilities{Embeddings: true, Generation: true, Streaming: true}
}

func (m *Mock) nextResponse() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Responses) == 0 {
		return m.Response
	}
	idx := m.callCount
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	m.callCount++
	return m.Responses[idx]
}

func (m *Mock) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = pseudoEmbed(t, m.EmbeddingDim)
	}
	return out, nil
}

func (m *Mock) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *Mock) Generate(_ context.Context, _, _ string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return m.nextResponse(), nil
}

func (m *Mock) GenerateStream(ctx context.Context, prompt, system string) (<-chan StreamChunk, <-chan error) {
	chunks := make(chan StreamChunk)
	errc := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errc)
		if m.Err != nil {
			errc <- m.Err
			return
		}
		text := m.nextResponse()
		words := strings.Fields(text)
		for i, w := range words {
			delta := w
			if i < len(words)-1 {
				delta += " "
			}
			select {
			case chunks <- StreamChunk{Delta: delta}:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
		chunks <- StreamChunk{FinishReason: "stop"}
	}()

	return chunks, errc
}

// pseudoEmbed derives a deterministic, non-normalized vector from text so
// tests can exercise similarity ordering without a real embedding model.
func pseudoEmbed(text string, dim int) []float32 {
	if dim <= 0 {
		dim = 8
	}
	v := make([]float32, dim)
	for i, r := range text {
		v[i%dim] += float32(r%97) / 97
	}
	if allZero(v) {
		v[0] = 1
	}
	return v
}

func allZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
