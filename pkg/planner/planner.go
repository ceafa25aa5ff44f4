// Package planner implements the Context Planner (§4.7): token-budgeted
// assembly of context segments, preferring summaries under a threshold.
package planner

import (
	"fmt"
	"strings"

	"github.com/iamabhishek-n/vectra-go/pkg/config"
	"github.com/iamabhishek-n/vectra-go/pkg/vectorstore"
)

// Part is one assembled context segment (§3 ContextPart).
type Part struct {
	Header string
	Body   string
}

// EstimateTokens is the fixed token-estimate heuristic (§4.7): ceil(len/4).
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// maxContentChars is the fallback body length when a doc lacks a summary
// under the threshold (§4.7: "content[:1200]").
const maxContentChars = 1200

// Plan iterates docs in order, choosing each one's body (summary when its
// token estimate is <= preferSummariesBelow, else the first 1200 content
// characters), and appends Parts while the running token total does not
// exceed tokenBudget — stopping on the first part that would overflow, with
// no backfill of later, smaller parts (§4.7, §8 "Context budget").
func Plan(docs []vectorstore.RetrievedDoc, cfg config.QueryPlanningConfig) []Part {
	var parts []Part
	total := 0

	for _, d := range docs {
		body := chooseBody(d, cfg.PreferSummariesBelow)
		tokens := EstimateTokens(body)
		if total+tokens > cfg.TokenBudget {
			break
		}
		parts = append(parts, Part{Header: header(d), Body: body})
		total += tokens
	}
	return parts
}

func chooseBody(d vectorstore.RetrievedDoc, preferSummariesBelow int) string {
	if summary, ok := d.Metadata["summary"].(string); ok && summary != "" {
		if EstimateTokens(summary) <= preferSummariesBelow {
			return summary
		}
	}
	return truncate(d.Content, maxContentChars)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// header builds "{docTitle} {section} [pages F-T]" from a doc's metadata,
// omitting the page suffix when pages are not present (§4.7, §3
// ContextPart).
func header(d vectorstore.RetrievedDoc) string {
	title, _ := d.Metadata["docTitle"].(string)
	section, _ := d.Metadata["section"].(string)

	var b strings.Builder
	b.WriteString(title)
	if section != "" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(section)
	}
	if from, ok := asInt(d.Metadata["pageFrom"]); ok {
		to, _ := asInt(d.Metadata["pageTo"])
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(fmt.Sprintf("[pages %d-%d]", from, to))
	}
	return b.String()
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// Render joins parts into the final context string passed to the
// Generation Driver, each part rendered as its header followed by its
// body.
func Render(parts []Part) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if p.Header != "" {
			b.WriteString(p.Header)
			b.WriteString("\n")
		}
		b.WriteString(p.Body)
	}
	return b.String()
}
