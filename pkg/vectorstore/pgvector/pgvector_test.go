package pgvector

import (
	"strings"
	"testing"

	"github.com/iamabhishek-n/vectra-go/pkg/vectorstore"
)

func TestFilterClause_EmptyFilter(t *testing.T) {
	clause, args := filterClause(nil, 1)
	if clause != "" || args != nil {
		t.Errorf("filterClause(nil) = (%q, %v), want (\"\", nil)", clause, args)
	}
}

func TestFilterClause_SingleKey(t *testing.T) {
	clause, args := filterClause(vectorstore.Filter{"lang": "en"}, 2)
	want := " WHERE metadata->>'lang' = $2"
	if clause != want {
		t.Errorf("clause = %q, want %q", clause, want)
	}
	if len(args) != 1 || args[0] != "en" {
		t.Errorf("args = %v, want [en]", args)
	}
}

func TestFilterClause_MultiKeyJoinsWithAnd(t *testing.T) {
	clause, args := filterClause(vectorstore.Filter{"lang": "en", "section": "intro"}, 1)
	if !strings.Contains(clause, " AND ") {
		t.Errorf("clause = %q, want an AND join for two keys", clause)
	}
	if len(args) != 2 {
		t.Errorf("len(args) = %d, want 2", len(args))
	}
}

func TestFilterClause_EscapesQuotesInKey(t *testing.T) {
	clause, _ := filterClause(vectorstore.Filter{"a'b": "x"}, 1)
	if !strings.Contains(clause, "a''b") {
		t.Errorf("clause = %q, want the key's single quote doubled", clause)
	}
}

func TestLimitOrDefault(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, 100},
		{-5, 100},
		{10, 10},
	}
	for _, c := range cases {
		if got := limitOrDefault(c.in); got != c.want {
			t.Errorf("limitOrDefault(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}
