package planner

import (
	"testing"

	"github.com/iamabhishek-n/vectra-go/pkg/config"
	"github.com/iamabhishek-n/vectra-go/pkg/vectorstore"
)

func TestEstimateTokens(t *testing.T) {
	cases := map[string]int{
		"":       0,
		"a":      1,
		"abcd":   1,
		"abcde":  2,
		"abcdefgh": 2,
	}
	for text, want := range cases {
		if got := EstimateTokens(text); got != want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", text, got, want)
		}
	}
}

// TestPlan_ContextBudgetScenario4 is §8 scenario 4: tokenBudget=10, three
// candidates whose chosen parts tokenize to 4, 5, 7. Expected: first two
// selected (4+5=9), third skipped; selection stops on first overflow.
func TestPlan_ContextBudgetScenario4(t *testing.T) {
	// EstimateTokens(text) = ceil(len/4); content lengths 13, 17, 25
	// tokenize to 4, 5, 7 respectively. Summaries are left unset so the
	// content path (truncate to 1200 chars) is exercised.
	docs := []vectorstore.RetrievedDoc{
		{Content: repeat("a", 13), Metadata: map[string]any{}},
		{Content: repeat("b", 17), Metadata: map[string]any{}},
		{Content: repeat("c", 25), Metadata: map[string]any{}},
	}
	cfg := config.QueryPlanningConfig{TokenBudget: 10, PreferSummariesBelow: 0}

	parts := Plan(docs, cfg)

	if len(parts) != 2 {
		t.Fatalf("expected 2 selected parts, got %d: %+v", len(parts), parts)
	}
	total := 0
	for _, p := range parts {
		total += EstimateTokens(p.Body)
	}
	if total > cfg.TokenBudget {
		t.Errorf("selected parts exceed token budget: %d > %d", total, cfg.TokenBudget)
	}
}

func repeat(s string, n int) string {
	out := make([]byte, 0, n)
	for len(out) < n {
		out = append(out, s[0])
	}
	return string(out)
}

func TestPlan_PrefersSummaryUnderThreshold(t *testing.T) {
	docs := []vectorstore.RetrievedDoc{
		{
			Content:  repeat("x", 2000),
			Metadata: map[string]any{"summary": "a short summary"},
		},
	}
	cfg := config.QueryPlanningConfig{TokenBudget: 1000, PreferSummariesBelow: 50}
	parts := Plan(docs, cfg)
	if len(parts) != 1 || parts[0].Body != "a short summary" {
		t.Errorf("expected the summary body to be chosen, got %+v", parts)
	}
}

func TestPlan_FallsBackToTruncatedContentWhenSummaryTooLong(t *testing.T) {
	docs := []vectorstore.RetrievedDoc{
		{
			Content:  repeat("x", 2000),
			Metadata: map[string]any{"summary": repeat("y", 1000)},
		},
	}
	cfg := config.QueryPlanningConfig{TokenBudget: 10000, PreferSummariesBelow: 5}
	parts := Plan(docs, cfg)
	if len(parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(parts))
	}
	if len(parts[0].Body) != maxContentChars {
		t.Errorf("expected content truncated to %d chars, got %d", maxContentChars, len(parts[0].Body))
	}
}

func TestHeader_OmitsPagesWhenAbsent(t *testing.T) {
	d := vectorstore.RetrievedDoc{Metadata: map[string]any{"docTitle": "report.md", "section": "Intro"}}
	h := header(d)
	if h != "report.md Intro" {
		t.Errorf("header = %q, want %q", h, "report.md Intro")
	}
}

func TestHeader_IncludesPagesWhenPresent(t *testing.T) {
	d := vectorstore.RetrievedDoc{Metadata: map[string]any{"docTitle": "report.md", "pageFrom": 2, "pageTo": 4}}
	h := header(d)
	if h != "report.md [pages 2-4]" {
		t.Errorf("header = %q, want %q", h, "report.md [pages 2-4]")
	}
}
