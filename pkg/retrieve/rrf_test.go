package retrieve

import (
	"testing"

	"github.com/iamabhishek-n/vectra-go/pkg/vectorstore"
)

func doc(content string) vectorstore.RetrievedDoc {
	return vectorstore.RetrievedDoc{Content: content}
}

// TestRRF_MergeScenario is §8 scenario 2: L1=[d1,d2,d3], L2=[d2,d4], c=60.
// Per-document scores: d2=1/62+1/61, d1=1/61, d3=1/63, d4=1/62 (the scenario's
// own listed values). Sorted by those scores descending, d4 (1/62) outranks
// d3 (1/63): d2, d1, d4, d3.
func TestRRF_MergeScenario(t *testing.T) {
	l1 := []vectorstore.RetrievedDoc{doc("d1"), doc("d2"), doc("d3")}
	l2 := []vectorstore.RetrievedDoc{doc("d2"), doc("d4")}

	fused := RRF([][]vectorstore.RetrievedDoc{l1, l2}, 60)

	want := []string{"d2", "d1", "d4", "d3"}
	if len(fused) != len(want) {
		t.Fatalf("got %d docs, want %d", len(fused), len(want))
	}
	for i, w := range want {
		if fused[i].Content != w {
			t.Errorf("position %d: got %q, want %q", i, fused[i].Content, w)
		}
	}
}

// TestRRF_MonotoneOnInsertion is §8's RRF monotonicity invariant: adding any
// doc to an input list at rank 0 cannot decrease its fused rank.
func TestRRF_MonotoneOnInsertion(t *testing.T) {
	base := [][]vectorstore.RetrievedDoc{
		{doc("a"), doc("b"), doc("c")},
		{doc("b"), doc("d")},
	}
	before := RRF(base, 60)
	rankBefore := rankOf(before, "d")

	withD := [][]vectorstore.RetrievedDoc{
		{doc("d"), doc("a"), doc("b"), doc("c")},
		{doc("b"), doc("d")},
	}
	after := RRF(withD, 60)
	rankAfter := rankOf(after, "d")

	if rankAfter > rankBefore {
		t.Errorf("d's rank worsened after insertion at rank 0: before=%d after=%d", rankBefore, rankAfter)
	}
}

func rankOf(docs []vectorstore.RetrievedDoc, content string) int {
	for i, d := range docs {
		if d.Content == content {
			return i
		}
	}
	return -1
}

func TestRRF_EmptyLists(t *testing.T) {
	fused := RRF(nil, 60)
	if len(fused) != 0 {
		t.Errorf("expected empty fusion, got %d docs", len(fused))
	}
}
