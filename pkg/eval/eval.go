// Package eval implements the Evaluator (§4.10): per-example
// faithfulness/relevance scoring by querying a language backend.
package eval

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/iamabhishek-n/vectra-go/pkg/llmbackend"
)

const faithfulnessPrompt = `Given the following source material and answer, score on a scale from 0 to 1 how faithfully the answer is derived from the sources. Return ONLY a single number.

SOURCES:
%s

ANSWER:
%s`

const relevancePrompt = `Given the following question and answer, score on a scale from 0 to 1 how well the answer addresses the question. Return ONLY a single number.

QUESTION:
%s

ANSWER:
%s`

// Example is one evaluation input/expected pair (§4.10).
type Example struct {
	Question             string
	ExpectedGroundTruth  string
}

// Score is one evaluated example's result (§4.10).
type Score struct {
	Question            string
	ExpectedGroundTruth string
	Faithfulness        float64
	Relevance           float64
}

// QueryFunc runs the full query pipeline for a question and returns the
// answer plus the summary fields of its sources, decoupling this package
// from the orchestrator.
type QueryFunc func(ctx context.Context, question string) (answer string, sourceSummaries []string, err error)

var numberPattern = regexp.MustCompile(`-?\d+(\.\d+)?`)

// Run evaluates every example: runs the query pipeline, then asks backend
// twice for faithfulness (against concatenated source summaries) and
// relevance (against question+answer), clamping each to [0,1] and
// defaulting to 0 on any parse or backend failure (§4.10, §7 ParseError
// policy).
func Run(ctx context.Context, examples []Example, query QueryFunc, backend llmbackend.LanguageBackend) ([]Score, error) {
	scores := make([]Score, len(examples))
	for i, ex := range examples {
		answer, sourceSummaries, err := query(ctx, ex.Question)
		if err != nil {
			return nil, err
		}

		faithfulness := scoreOne(ctx, backend, faithfulnessPrompt, strings.Join(sourceSummaries, "\n"), answer)
		relevance := scoreOne(ctx, backend, relevancePrompt, ex.Question, answer)

		scores[i] = Score{
			Question:            ex.Question,
			ExpectedGroundTruth: ex.ExpectedGroundTruth,
			Faithfulness:        faithfulness,
			Relevance:           relevance,
		}
	}
	return scores, nil
}

func scoreOne(ctx context.Context, backend llmbackend.LanguageBackend, template, a, b string) float64 {
	prompt := strings.Replace(template, "%s", a, 1)
	prompt = strings.Replace(prompt, "%s", b, 1)

	raw, err := backend.Generate(ctx, prompt, "")
	if err != nil {
		return 0
	}
	match := numberPattern.FindString(raw)
	if match == "" {
		return 0
	}
	n, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return clamp01(n)
}

func clamp01(n float64) float64 {
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}
