package document

import (
	"context"
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"github.com/iamabhishek-n/vectra-go/pkg/config"
	"github.com/iamabhishek-n/vectra-go/pkg/llmbackend"
)

// sentenceBoundary matches a run of sentence-terminating punctuation
// followed by whitespace (or end of string); it is the split point used by
// recursive chunking (§4.2).
var sentenceBoundary = regexp.MustCompile(`[.!?]+(?:\s+|$)`)

// splitSentences splits text into sentence-terminated segments, each segment
// retaining its trailing punctuation and whitespace so re-joining segments
// reproduces the original text exactly.
func splitSentences(text string) []string {
	locs := sentenceBoundary.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		if text == "" {
			return nil
		}
		return []string{text}
	}
	sentences := make([]string, 0, len(locs)+1)
	start := 0
	for _, loc := range locs {
		end := loc[1]
		sentences = append(sentences, text[start:end])
		start = end
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

// shannonEntropy computes the Shannon entropy (base 2) over character
// frequencies of s.
func shannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := make(map[rune]int)
	total := 0
	for _, r := range s {
		counts[r]++
		total++
	}
	var h float64
	for _, c := range counts {
		p := float64(c) / float64(total)
		h -= p * math.Log2(p)
	}
	return h
}

// adaptiveOverlap is the only novel chunking behavior and must be preserved
// exactly (§4.2): min(baseOverlap + floor(H*50), floor(chunkSize/3)).
func adaptiveOverlap(window string, baseOverlap, chunkSize int) int {
	h := shannonEntropy(window)
	overlap := baseOverlap + int(math.Floor(h*50))
	maxOverlap := chunkSize / 3
	if overlap > maxOverlap {
		overlap = maxOverlap
	}
	if overlap < 0 {
		overlap = 0
	}
	return overlap
}

// tailRunes returns the last n runes of s (n clamped to len(s) in runes).
func tailRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if n >= len(runes) {
		return s
	}
	return string(runes[len(runes)-n:])
}

// RecursiveWindows splits text into sentence-aligned windows of at least
// chunkSize characters, carrying an adaptive, entropy-scaled overlap between
// consecutive windows (§4.2). The boundary case where a window's length is
// exactly chunkSize still closes the window and carries overlap forward
// from its tail (§8 boundary).
func RecursiveWindows(text string, chunkSize, baseOverlap int) []string {
	sentences := splitSentences(text)
	var windows []string
	var current strings.Builder

	for _, sentence := range sentences {
		current.WriteString(sentence)
		if current.Len() >= chunkSize {
			window := current.String()
			windows = append(windows, window)
			overlap := adaptiveOverlap(window, baseOverlap, chunkSize)
			current.Reset()
			current.WriteString(tailRunes(window, overlap))
		}
	}
	if current.Len() > 0 {
		windows = append(windows, current.String())
	}
	return windows
}

// agenticPrompt is the prompt template used to ask a LanguageBackend to
// decompose a window into atomic propositions.
const agenticPrompt = `Split the following text into a JSON array of self-contained propositions (short factual statements). Return ONLY the JSON array, no commentary.

TEXT:
%s`

// ChunkText splits raw document text into Chunks per the configured strategy
// (§4.2). Agentic chunking falls back to the unmodified recursive window on
// any backend failure or JSON parse failure (§7 ParseError policy).
func ChunkText(ctx context.Context, text string, cfg config.ChunkingConfig, backend llmbackend.LanguageBackend) []Chunk {
	windows := RecursiveWindows(text, cfg.ChunkSize, cfg.ChunkOverlap)

	if cfg.Strategy != config.ChunkingAgentic || backend == nil {
		return windowsToChunks(windows)
	}

	var pieces []string
	for _, window := range windows {
		props, ok := agenticPropositions(ctx, window, backend)
		if !ok || len(props) == 0 {
			pieces = append(pieces, window)
			continue
		}
		pieces = append(pieces, props...)
	}
	return windowsToChunks(pieces)
}

func windowsToChunks(windows []string) []Chunk {
	chunks := make([]Chunk, 0, len(windows))
	for i, w := range windows {
		chunks = append(chunks, NewChunk(w, 0, 0, i))
	}
	return chunks
}

// agenticPropositions asks the backend for a JSON array of propositions for
// window, then trims, whitespace-collapses, dedupes, and drops entries
// shorter than two characters (§4.2). ok is false on any backend or parse
// failure, signaling the caller to fall back to the window unchanged.
func agenticPropositions(ctx context.Context, window string, backend llmbackend.LanguageBackend) ([]string, bool) {
	raw, err := backend.Generate(ctx, sprintfAgentic(window), "")
	if err != nil {
		return nil, false
	}

	var props []string
	if err := json.Unmarshal([]byte(extractJSONArray(raw)), &props); err != nil {
		return nil, false
	}

	seen := make(map[string]bool, len(props))
	out := make([]string, 0, len(props))
	for _, p := range props {
		p = collapseWhitespace(strings.TrimSpace(p))
		if len([]rune(p)) < 2 {
			continue
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, true
}

func sprintfAgentic(window string) string {
	return strings.Replace(agenticPrompt, "%s", window, 1)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return whitespaceRun.ReplaceAllString(s, " ")
}

// extractJSONArray returns the first top-level JSON array substring found in
// s, tolerating leading/trailing commentary a language backend might add
// despite being asked not to.
func extractJSONArray(s string) string {
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start < 0 || end < 0 || end < start {
		return s
	}
	return s[start : end+1]
}
