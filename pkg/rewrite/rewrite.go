// Package rewrite implements the Query Rewriter (§4.4): deriving
// alternative queries from a user question via a language backend, for the
// hyde and multi-query retrieval strategies.
package rewrite

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/iamabhishek-n/vectra-go/pkg/llmbackend"
)

const hydePrompt = "Write a plausible passage that answers the following question.\n\nQUESTION:\n%s"

// HyDE generates a single hypothetical passage answering q and embeds it,
// per §4.4. Callers use the returned vector directly for similarity
// search — HyDE never searches with the literal question's own embedding.
func HyDE(ctx context.Context, q string, backend llmbackend.LanguageBackend) ([]float32, error) {
	passage, err := backend.Generate(ctx, strings.Replace(hydePrompt, "%s", q, 1), "")
	if err != nil {
		return nil, err
	}
	return backend.EmbedQuery(ctx, passage)
}

const multiQueryPrompt = "Generate alternative phrasings of the following question, one per line, no numbering or commentary.\n\nQUESTION:\n%s"

const hypotheticalQuestionsPrompt = `Given the following question, return ONLY a JSON array of up to 3 related hypothetical questions a document might answer.

QUESTION:
%s`

// MultiQuery derives alternate phrasings of q (§4.4): the first 3
// non-empty lines of a single generation call, optionally extended with up
// to 3 hypothetical questions from a second, fail-soft generation call,
// always ending with the original q appended last.
func MultiQuery(ctx context.Context, q string, backend llmbackend.LanguageBackend) []string {
	queries := []string{}

	if raw, err := backend.Generate(ctx, strings.Replace(multiQueryPrompt, "%s", q, 1), ""); err == nil {
		for _, line := range strings.Split(raw, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			queries = append(queries, line)
			if len(queries) == 3 {
				break
			}
		}
	}

	queries = append(queries, hypotheticalQuestions(ctx, q, backend)...)
	queries = append(queries, q)
	return queries
}

// hypotheticalQuestions asks a separate prompt for up to 3 JSON-array
// hypothetical questions, failing soft to an empty list on any backend or
// parse error (§4.4, §7 ParseError policy).
func hypotheticalQuestions(ctx context.Context, q string, backend llmbackend.LanguageBackend) []string {
	raw, err := backend.Generate(ctx, strings.Replace(hypotheticalQuestionsPrompt, "%s", q, 1), "")
	if err != nil {
		return nil
	}
	start := strings.IndexByte(raw, '[')
	end := strings.LastIndexByte(raw, ']')
	if start < 0 || end < 0 || end < start {
		return nil
	}
	var qs []string
	if err := json.Unmarshal([]byte(raw[start:end+1]), &qs); err != nil {
		return nil
	}
	if len(qs) > 3 {
		qs = qs[:3]
	}
	return qs
}
