package retrieve

import (
	"regexp"
	"strings"

	"github.com/iamabhishek-n/vectra-go/pkg/vectorstore"
)

// tokenPattern matches runs of lowercase-folded alphanumeric characters;
// MMR and the keyword boost both tokenize content this way, keeping only
// tokens longer than the length threshold each caller applies (§4.5).
var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// tokenSet returns the set of lowercased alphanumeric tokens in s with
// length > minLen.
func tokenSet(s string, minLen int) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(s), -1) {
		if len(tok) > minLen {
			set[tok] = struct{}{}
		}
	}
	return set
}

// jaccard computes the Jaccard similarity of two token sets. Two empty
// sets are defined as dissimilar (§8 boundary: "empty token set in a doc
// -> Jaccard = 0 against all others").
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for t := range a {
		if _, ok := b[t]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// MMR selects k documents from candidates (pre-ranked by similarity, most
// similar first) by Maximal Marginal Relevance (§4.5): the selected set
// starts with the top-1 candidate; while it has fewer than k members and
// the pool is non-empty, it grows by the pool member maximizing
// lambda*relevance - (1-lambda)*max_jaccard-to-selected. lambda is clamped
// to [0,1]; relevance defaults to the candidate's pre-sort Score (§9 open
// question: the source uses 0 for absent scores, preserved here since
// RetrievedDoc.Score is always populated by a search call).
func MMR(candidates []vectorstore.RetrievedDoc, k int, lambda float64) []vectorstore.RetrievedDoc {
	if lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}
	if len(candidates) == 0 || k <= 0 {
		return nil
	}

	tokens := make([]map[string]struct{}, len(candidates))
	for i, c := range candidates {
		tokens[i] = tokenSet(c.Content, 2)
	}

	selected := []int{0}
	pool := make([]int, 0, len(candidates)-1)
	for i := 1; i < len(candidates); i++ {
		pool = append(pool, i)
	}

	for len(selected) < k && len(pool) > 0 {
		bestIdx := -1
		bestScore := 0.0
		bestPos := -1
		for pos, ci := range pool {
			maxSim := 0.0
			for _, si := range selected {
				if sim := jaccard(tokens[ci], tokens[si]); sim > maxSim {
					maxSim = sim
				}
			}
			score := lambda*candidates[ci].Score - (1-lambda)*maxSim
			if bestIdx == -1 || score > bestScore {
				bestIdx = ci
				bestScore = score
				bestPos = pos
			}
		}
		selected = append(selected, bestIdx)
		pool = append(pool[:bestPos], pool[bestPos+1:]...)
	}

	out := make([]vectorstore.RetrievedDoc, len(selected))
	for i, idx := range selected {
		out[i] = candidates[idx]
	}
	return out
}

// KeywordBoost computes, for each retrieved doc, the count of query tokens
// (lowercased, length > 2) present in the doc's metadata.keywords
// (lowercased), then stable-sorts descending by that boost (§4.5
// "Post-retrieval keyword boost"). Docs without a keywords entry get a
// boost of 0 and keep their relative order.
func KeywordBoost(query string, docs []vectorstore.RetrievedDoc) []vectorstore.RetrievedDoc {
	queryTokens := tokenSet(query, 2)
	boosts := make([]int, len(docs))
	for i, d := range docs {
		boosts[i] = countOverlap(queryTokens, docKeywords(d))
	}

	out := make([]vectorstore.RetrievedDoc, len(docs))
	copy(out, docs)
	// stable insertion sort descending by boosts, carrying the parallel
	// slice along so indices stay aligned with out.
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 && boosts[j-1] < boosts[j] {
			boosts[j-1], boosts[j] = boosts[j], boosts[j-1]
			out[j-1], out[j] = out[j], out[j-1]
			j--
		}
	}
	return out
}

func docKeywords(d vectorstore.RetrievedDoc) []string {
	raw, ok := d.Metadata["keywords"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func countOverlap(queryTokens map[string]struct{}, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if _, ok := queryTokens[strings.ToLower(kw)]; ok {
			count++
		}
	}
	return count
}
