package document

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/iamabhishek-n/vectra-go/pkg/llmbackend"
)

// enrichmentPrompt asks a backend to produce the enrichment triple as JSON.
const enrichmentPrompt = `Given the following passage, return ONLY a JSON object with keys "summary" (one sentence), "keywords" (array of up to 10 lowercase keywords), and "hypotheticalQuestions" (array of up to 3 questions this passage could answer).

PASSAGE:
%s`

type enrichmentResponse struct {
	Summary               string   `json:"summary"`
	Keywords              []string `json:"keywords"`
	HypotheticalQuestions []string `json:"hypotheticalQuestions"`
}

// Enrich populates the summary/keywords/hypotheticalQuestions triple for a
// chunk's content (§4.3 step 6). On any backend or parse failure it falls
// back to the documented safe default: summary = first 300 characters,
// keywords = top-10 tokens by frequency with length > 3, and an empty
// hypothetical-questions list (§7 ParseError policy).
func Enrich(ctx context.Context, content string, backend llmbackend.LanguageBackend) (summary string, keywords []string, hypotheticalQuestions []string) {
	if backend != nil {
		if raw, err := backend.Generate(ctx, sprintfEnrich(content), ""); err == nil {
			var resp enrichmentResponse
			// resp.Summary == "" is treated as a parse failure alongside a
			// JSON decode error, not just a legitimately empty summary: a
			// backend that returns well-formed but summary-less JSON gets
			// the same fallback, trading a theoretical false fallback for a
			// guarantee that every chunk leaves Enrich with a non-empty
			// summary.
			if jsonErr := json.Unmarshal([]byte(extractJSONObject(raw)), &resp); jsonErr == nil && resp.Summary != "" {
				return resp.Summary, resp.Keywords, resp.HypotheticalQuestions
			}
		}
	}
	return fallbackSummary(content), fallbackKeywords(content), nil
}

func sprintfEnrich(content string) string {
	return strings.Replace(enrichmentPrompt, "%s", content, 1)
}

func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

func fallbackSummary(content string) string {
	runes := []rune(content)
	if len(runes) <= 300 {
		return content
	}
	return string(runes[:300])
}

func fallbackKeywords(content string) []string {
	counts := make(map[string]int)
	for _, tok := range strings.Fields(strings.ToLower(content)) {
		tok = trimPunct(tok)
		if len(tok) <= 3 {
			continue
		}
		counts[tok]++
	}

	type kv struct {
		word  string
		count int
	}
	kvs := make([]kv, 0, len(counts))
	for w, c := range counts {
		kvs = append(kvs, kv{w, c})
	}
	sort.Slice(kvs, func(i, j int) bool {
		if kvs[i].count != kvs[j].count {
			return kvs[i].count > kvs[j].count
		}
		return kvs[i].word < kvs[j].word
	})

	n := 10
	if len(kvs) < n {
		n = len(kvs)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, kvs[i].word)
	}
	return out
}

func trimPunct(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})
}
