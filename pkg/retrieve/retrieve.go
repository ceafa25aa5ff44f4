package retrieve

import (
	"context"
	"sync"

	"github.com/iamabhishek-n/vectra-go/pkg/config"
	"github.com/iamabhishek-n/vectra-go/pkg/llmbackend"
	"github.com/iamabhishek-n/vectra-go/pkg/rewrite"
	"github.com/iamabhishek-n/vectra-go/pkg/vectorstore"
)

// multiQueryRRFConstant is the literal RRF constant the multi-query path
// uses (§4.5, §9 open question): c=1, an aggressive top-rank bias, kept
// exactly as specified despite contradicting the more common c=60.
const multiQueryRRFConstant = 1.0

// DefaultK is the k used when reranking is disabled (§4.5).
const DefaultK = 5

// Retriever dispatches on RetrievalStrategy (§4.5).
type Retriever struct {
	Store        vectorstore.VectorStore
	EmbedBackend llmbackend.LanguageBackend
	RewriteLLM   llmbackend.LanguageBackend // only set when strategy needs one (hyde/multi-query)
}

// K returns the k the retriever should request, per §4.5: windowSize when
// reranking is enabled, else DefaultK.
func K(rerank config.RerankingConfig) int {
	if rerank.Enabled {
		return rerank.WindowSize
	}
	return DefaultK
}

// Retrieve dispatches query q through the configured strategy and returns
// the fused/selected candidate list (§4.5).
func (r *Retriever) Retrieve(ctx context.Context, q string, cfg config.RetrievalConfig, k int, filter vectorstore.Filter) ([]vectorstore.RetrievedDoc, error) {
	switch cfg.Strategy {
	case config.RetrievalHyDE:
		return r.retrieveHyDE(ctx, q, k, filter)
	case config.RetrievalMultiQuery:
		return r.retrieveMultiQuery(ctx, q, k, filter)
	case config.RetrievalHybrid:
		return r.retrieveHybrid(ctx, q, k, filter)
	case config.RetrievalMMR:
		return r.retrieveMMR(ctx, q, cfg, k, filter)
	default:
		return r.retrieveNaive(ctx, q, k, filter)
	}
}

func (r *Retriever) retrieveNaive(ctx context.Context, q string, k int, filter vectorstore.Filter) ([]vectorstore.RetrievedDoc, error) {
	vec, err := r.EmbedBackend.EmbedQuery(ctx, q)
	if err != nil {
		return nil, err
	}
	return r.Store.SimilaritySearch(ctx, vec, k, filter)
}

func (r *Retriever) retrieveHyDE(ctx context.Context, q string, k int, filter vectorstore.Filter) ([]vectorstore.RetrievedDoc, error) {
	vec, err := rewrite.HyDE(ctx, q, r.RewriteLLM)
	if err != nil {
		return nil, err
	}
	return r.Store.SimilaritySearch(ctx, vec, k, filter)
}

// retrieveMultiQuery embeds and searches every rewritten query (plus the
// original) in parallel, then fuses via RRF with c=1 (§4.5, §5 fan-out
// discipline: "all rewritten queries embed-and-search in parallel").
func (r *Retriever) retrieveMultiQuery(ctx context.Context, q string, k int, filter vectorstore.Filter) ([]vectorstore.RetrievedDoc, error) {
	queries := rewrite.MultiQuery(ctx, q, r.RewriteLLM)

	lists := make([][]vectorstore.RetrievedDoc, len(queries))
	errs := make([]error, len(queries))
	var wg sync.WaitGroup
	for i, query := range queries {
		wg.Add(1)
		go func(i int, query string) {
			defer wg.Done()
			vec, err := r.EmbedBackend.EmbedQuery(ctx, query)
			if err != nil {
				errs[i] = err
				return
			}
			list, err := r.Store.SimilaritySearch(ctx, vec, k, filter)
			if err != nil {
				errs[i] = err
				return
			}
			lists[i] = list
		}(i, query)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return RRF(lists, multiQueryRRFConstant), nil
}

func (r *Retriever) retrieveHybrid(ctx context.Context, q string, k int, filter vectorstore.Filter) ([]vectorstore.RetrievedDoc, error) {
	vec, err := r.EmbedBackend.EmbedQuery(ctx, q)
	if err != nil {
		return nil, err
	}
	if hs, ok := vectorstore.HasHybridSearch(r.Store); ok {
		return hs.HybridSearch(ctx, q, vec, k, filter)
	}
	// Backends lacking native hybrid degrade gracefully to similarity
	// search (§4.5, §6).
	return r.Store.SimilaritySearch(ctx, vec, k, filter)
}

func (r *Retriever) retrieveMMR(ctx context.Context, q string, cfg config.RetrievalConfig, k int, filter vectorstore.Filter) ([]vectorstore.RetrievedDoc, error) {
	vec, err := r.EmbedBackend.EmbedQuery(ctx, q)
	if err != nil {
		return nil, err
	}
	fetchK := cfg.MMRFetchK
	if fetchK < k {
		fetchK = k
	}
	candidates, err := r.Store.SimilaritySearch(ctx, vec, fetchK, filter)
	if err != nil {
		return nil, err
	}
	return MMR(candidates, k, cfg.MMRLambda), nil
}
