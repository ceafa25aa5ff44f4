// Package retrieve implements the Retriever (§4.5): strategy dispatch over
// {naive, hyde, multi-query, hybrid, mmr}, Reciprocal Rank Fusion, Maximal
// Marginal Relevance, and the post-retrieval keyword boost.
package retrieve

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/iamabhishek-n/vectra-go/pkg/vectorstore"
)

// RRF fuses result lists L1..Ln keyed by content, scoring each document
// score(d) = sum_i 1/(c + rank_i(d) + 1), ties broken by discovery order
// (§4.5). An ordered map (rather than a plain Go map) is used for the
// per-content accumulator precisely to make that discovery-order tie-break
// mechanical instead of incidental to map iteration order.
func RRF(lists [][]vectorstore.RetrievedDoc, c float64) []vectorstore.RetrievedDoc {
	scores := orderedmap.New[string, *fusedEntry]()

	for _, list := range lists {
		for rank, doc := range list {
			entry, ok := scores.Get(doc.Content)
			if !ok {
				entry = &fusedEntry{doc: doc}
				scores.Set(doc.Content, entry)
			}
			entry.score += 1 / (c + float64(rank) + 1)
		}
	}

	out := make([]vectorstore.RetrievedDoc, 0, scores.Len())
	for pair := scores.Oldest(); pair != nil; pair = pair.Next() {
		d := pair.Value.doc
		d.Score = pair.Value.score
		out = append(out, d)
	}
	stableSortByScoreDesc(out)
	return out
}

type fusedEntry struct {
	doc   vectorstore.RetrievedDoc
	score float64
}

// stableSortByScoreDesc sorts docs by Score descending, preserving
// relative order among equal scores (so RRF's discovery-order tie-break,
// already encoded by insertion order into the ordered map, survives the
// final sort).
func stableSortByScoreDesc(docs []vectorstore.RetrievedDoc) {
	// insertion sort: stable, and lists here are small (bounded by k /
	// mmrFetchK), so O(n^2) is not a concern.
	for i := 1; i < len(docs); i++ {
		j := i
		for j > 0 && docs[j-1].Score < docs[j].Score {
			docs[j-1], docs[j] = docs[j], docs[j-1]
			j--
		}
	}
}
