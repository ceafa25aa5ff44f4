// Package rerank implements the Reranker (§4.6): re-scoring the top-window
// retrieval candidates with a language backend's relevance judgment.
package rerank

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/iamabhishek-n/vectra-go/pkg/llmbackend"
	"github.com/iamabhishek-n/vectra-go/pkg/vectorstore"
)

const scorePrompt = `Analyze relevance (0-10) of document to query. Return ONLY integer.

QUERY:
%s

DOCUMENT:
%s`

var firstInt = regexp.MustCompile(`\d+`)

// Rerank scores each candidate with backend, sorts descending, and keeps
// the top topN (§4.6). A backend error or unparseable response defaults
// that candidate's score to 0 rather than failing the whole rerank.
func Rerank(ctx context.Context, query string, candidates []vectorstore.RetrievedDoc, backend llmbackend.LanguageBackend, topN int) []vectorstore.RetrievedDoc {
	scored := make([]vectorstore.RetrievedDoc, len(candidates))
	copy(scored, candidates)

	for i := range scored {
		scored[i].Score = float64(scoreOne(ctx, query, scored[i].Content, backend))
	}

	// stable insertion sort, descending, to keep discovery order among ties.
	for i := 1; i < len(scored); i++ {
		j := i
		for j > 0 && scored[j-1].Score < scored[j].Score {
			scored[j-1], scored[j] = scored[j], scored[j-1]
			j--
		}
	}

	if topN > 0 && len(scored) > topN {
		scored = scored[:topN]
	}
	return scored
}

func scoreOne(ctx context.Context, query, content string, backend llmbackend.LanguageBackend) int {
	prompt := strings.Replace(scorePrompt, "%s", query, 1)
	prompt = strings.Replace(prompt, "%s", content, 1)
	raw, err := backend.Generate(ctx, prompt, "")
	if err != nil {
		return 0
	}
	match := firstInt.FindString(raw)
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return n
}
