// Package ground implements Grounding (§4.8): extractive sentence
// selection by keyword overlap, in strict or augmentation mode.
package ground

import (
	"regexp"
	"strings"

	"github.com/iamabhishek-n/vectra-go/pkg/config"
	"github.com/iamabhishek-n/vectra-go/pkg/planner"
	"github.com/iamabhishek-n/vectra-go/pkg/vectorstore"
)

// sentenceSplit matches the lookbehind-for-terminator boundary from §4.8:
// a sentence-terminating character followed by whitespace. Go's RE2 has no
// lookbehind, so the split is implemented by scanning terminator+whitespace
// boundaries directly rather than translating the regex literally.
var sentenceSplit = regexp.MustCompile(`[.!?]\s+`)

func splitSentences(content string) []string {
	locs := sentenceSplit.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		if content == "" {
			return nil
		}
		return []string{content}
	}
	var sentences []string
	start := 0
	for _, loc := range locs {
		// keep the terminator, drop the trailing whitespace — matches the
		// positive-lookbehind split semantics of /(?<=[.!?])\s+/.
		sentences = append(sentences, content[start:loc[0]+1])
		start = loc[1]
	}
	if start < len(content) {
		sentences = append(sentences, content[start:])
	}
	return sentences
}

var groundTokenPattern = regexp.MustCompile(`[a-z0-9]+`)

func tokens(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range groundTokenPattern.FindAllString(strings.ToLower(s), -1) {
		if len(tok) > 2 {
			set[tok] = struct{}{}
		}
	}
	return set
}

// Snippet is one grounded sentence, carrying the owning doc's header for
// citation (§4.8).
type Snippet struct {
	Header   string
	Sentence string
}

// Extract tokenizes query, scores every sentence of every doc by count of
// overlapping query tokens, and returns the first maxSnippets sentences
// with score > 0 across all docs, in doc order (§4.8).
func Extract(query string, docs []vectorstore.RetrievedDoc, maxSnippets int) []Snippet {
	queryTokens := tokens(query)

	var snippets []Snippet
	for _, d := range docs {
		for _, sentence := range splitSentences(d.Content) {
			if len(snippets) >= maxSnippets {
				return snippets
			}
			if overlapScore(queryTokens, sentence) > 0 {
				snippets = append(snippets, Snippet{Header: docHeader(d), Sentence: strings.TrimSpace(sentence)})
			}
		}
	}
	return snippets
}

func overlapScore(queryTokens map[string]struct{}, sentence string) int {
	count := 0
	for tok := range tokens(sentence) {
		if _, ok := queryTokens[tok]; ok {
			count++
		}
	}
	return count
}

func docHeader(d vectorstore.RetrievedDoc) string {
	title, _ := d.Metadata["docTitle"].(string)
	return title
}

// Render turns snippets into planner.Parts, each carrying its doc header
// and sentence as the body (§4.8: "doc header + sentence").
func Render(snippets []Snippet) []planner.Part {
	out := make([]planner.Part, len(snippets))
	for i, s := range snippets {
		out[i] = planner.Part{Header: s.Header, Body: s.Sentence}
	}
	return out
}

// Apply folds grounding into a planned context, per §4.8's strict/
// augmentation split: in strict mode the planned parts are replaced
// entirely by grounding snippets; otherwise the snippets are appended
// after the planned parts.
func Apply(cfg config.GroundingConfig, planned []planner.Part, query string, docs []vectorstore.RetrievedDoc) []planner.Part {
	if !cfg.Enabled {
		return planned
	}
	snippets := Extract(query, docs, cfg.MaxSnippets)
	rendered := Render(snippets)
	if cfg.Strict {
		return rendered
	}
	return append(append([]planner.Part{}, planned...), rendered...)
}
