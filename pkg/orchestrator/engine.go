// Package orchestrator assembles the validated configuration and every
// leaf component (§2) into the single long-lived Engine that runs the
// ingestion and query pipelines end to end. Ingest and Query are each
// exposed as a calque.Handler — JSON in, JSON out — composed into their
// own single-stage calque.Flow and driven through it by RunIngest and
// RunQuery, the entry points callers outside the pipeline use.
// QueryStream has no Handler/Flow form: its result is an incremental
// channel of stream events, not a value a single io.Writer can carry.
// Each internal pipeline stage (rewrite, retrieve, rerank, plan, ground,
// generate) stays a plain, independently testable Go function call
// rather than its own byte-oriented Handler; DESIGN.md records this as a
// deliberate scope decision.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iamabhishek-n/vectra-go/pkg/calque"
	"github.com/iamabhishek-n/vectra-go/pkg/config"
	"github.com/iamabhishek-n/vectra-go/pkg/docloader"
	"github.com/iamabhishek-n/vectra-go/pkg/embedcache"
	"github.com/iamabhishek-n/vectra-go/pkg/eval"
	"github.com/iamabhishek-n/vectra-go/pkg/generate"
	"github.com/iamabhishek-n/vectra-go/pkg/ground"
	"github.com/iamabhishek-n/vectra-go/pkg/history"
	"github.com/iamabhishek-n/vectra-go/pkg/ingest"
	"github.com/iamabhishek-n/vectra-go/pkg/llmbackend"
	"github.com/iamabhishek-n/vectra-go/pkg/logging"
	"github.com/iamabhishek-n/vectra-go/pkg/observability"
	"github.com/iamabhishek-n/vectra-go/pkg/planner"
	"github.com/iamabhishek-n/vectra-go/pkg/rerank"
	"github.com/iamabhishek-n/vectra-go/pkg/retrieve"
	"github.com/iamabhishek-n/vectra-go/pkg/vectorstore"
)

// State is a query's position in the state machine of §4.9: Pending ->
// Retrieving -> (Rewriting?) -> (Reranking?) -> Planning -> (Grounding?)
// -> Generating -> Done | Failed. Transitions are irreversible.
type State string

const (
	StatePending    State = "pending"
	StateRetrieving State = "retrieving"
	StateRewriting  State = "rewriting"
	StateReranking  State = "reranking"
	StatePlanning   State = "planning"
	StateGrounding  State = "grounding"
	StateGenerating State = "generating"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Engine is the top-level orchestrator (§2): it owns every subcomponent
// and wires them per the configuration tree.
type Engine struct {
	Config config.Config

	Store           vectorstore.VectorStore
	EmbedBackend    llmbackend.LanguageBackend
	GenerateBackend llmbackend.LanguageBackend
	RewriteBackend  llmbackend.LanguageBackend // set from retrieval.llmConfig when strategy needs one
	RerankBackend   llmbackend.LanguageBackend
	ChunkBackend    llmbackend.LanguageBackend
	EnrichBackend   llmbackend.LanguageBackend

	History history.Store

	// Cache is the process-local embedding cache (§4.3, §9): an instance
	// field rather than global state, so each Engine gets isolated,
	// testable caching.
	Cache *embedcache.Cache

	Ingest *ingest.Coordinator

	Callbacks *Callbacks

	// Metrics and Tracer default to no-op implementations so the engine
	// carries zero observability-sink dependencies until a caller opts in
	// (ambient observability stack).
	Metrics observability.MetricsProvider
	Tracer  observability.TracerProvider

	// Logger is nil by default (no structured logging until a caller
	// assigns one, e.g. from cmd/vectra's zerolog.Logger).
	Logger *logging.Logger
}

// New assembles an Engine from a validated Config and the external
// collaborators it needs. Capability gaps required by the configuration
// (e.g. a retrieval strategy needing an LLM, or reranking needing one)
// aren't checked here — New only has the two backends passed to it, not
// RewriteBackend/RerankBackend/ChunkBackend/EnrichBackend, which callers
// assign afterward. Call ValidateCapabilities once every backend field
// is set (§4.1, §9).
func New(cfg config.Config, store vectorstore.VectorStore, embed, generateBackend llmbackend.LanguageBackend) *Engine {
	cache := embedcache.New()
	e := &Engine{
		Config:          cfg,
		Store:           store,
		EmbedBackend:    embed,
		GenerateBackend: generateBackend,
		Cache:           cache,
		Metrics:         observability.NoopMetricsProvider{},
		Tracer:          observability.NoopTracerProvider{},
	}
	if cfg.Memory.Enabled {
		e.History = history.NewInMemory(cfg.Memory.MaxMessages)
	}
	return e
}

// WithIngest builds and attaches the ingestion Coordinator, wiring it to
// this Engine's store, cache and backends.
func (e *Engine) WithIngest(loader *docloader.Registry) *Engine {
	e.Ingest = &ingest.Coordinator{
		Store:         e.Store,
		Loader:        loader,
		Cache:         e.Cache,
		EmbedBackend:  e.EmbedBackend,
		ChunkBackend:  e.ChunkBackend,
		EnrichBackend: e.EnrichBackend,
		Config:        e.Config,
	}
	return e
}

// ValidateCapabilities checks every backend currently assigned to the
// Engine against what e.Config demands of it (§9): a retrieval strategy
// needing rewrites, reranking, agentic chunking, or metadata enrichment
// each require their backend to support generation, and every Engine
// needs an embedding-capable EmbedBackend and a generation- and
// streaming-capable GenerateBackend. Callers run this once assembly is
// complete (cmd/vectra's loadEngine does, right after WithIngest and the
// RewriteBackend/RerankBackend assignments) so a capability gap surfaces
// at startup instead of on the first Query or QueryStream call.
func (e *Engine) ValidateCapabilities() error {
	if err := llmbackend.CheckCapabilities("embedding", e.EmbedBackend, llmbackend.Capabilities{Embeddings: true}); err != nil {
		return err
	}
	if err := llmbackend.CheckCapabilities("generation", e.GenerateBackend, llmbackend.Capabilities{Generation: true, Streaming: true}); err != nil {
		return err
	}

	needsRewrite := e.Config.Retrieval.Strategy == config.RetrievalHyDE || e.Config.Retrieval.Strategy == config.RetrievalMultiQuery
	if needsRewrite && e.RewriteBackend != nil {
		if err := llmbackend.CheckCapabilities("retrieval rewrite", e.RewriteBackend, llmbackend.Capabilities{Generation: true}); err != nil {
			return err
		}
	}
	if e.Config.Reranking.Enabled {
		if err := llmbackend.CheckCapabilities("reranking", e.rerankBackend(), llmbackend.Capabilities{Generation: true}); err != nil {
			return err
		}
	}
	if e.Config.Chunking.Strategy == config.ChunkingAgentic && e.ChunkBackend != nil {
		if err := llmbackend.CheckCapabilities("agentic chunking", e.ChunkBackend, llmbackend.Capabilities{Generation: true}); err != nil {
			return err
		}
	}
	if e.Config.Metadata.Enrichment && e.EnrichBackend != nil {
		if err := llmbackend.CheckCapabilities("metadata enrichment", e.EnrichBackend, llmbackend.Capabilities{Generation: true}); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate runs the Evaluator (§4.10) by driving Query for each example's
// question and scoring faithfulness/relevance with evalBackend.
func (e *Engine) Evaluate(ctx context.Context, examples []eval.Example, evalBackend llmbackend.LanguageBackend) ([]eval.Score, error) {
	queryFn := func(ctx context.Context, question string) (string, []string, error) {
		resp, err := e.Query(ctx, QueryRequest{Question: question})
		if err != nil {
			return "", nil, err
		}
		answer, _ := resp.Answer.(string)
		if answer == "" {
			if b, err := json.Marshal(resp.Answer); err == nil {
				answer = string(b)
			}
		}
		summaries := make([]string, 0, len(resp.Sources))
		for _, src := range resp.Sources {
			if s, ok := src["summary"].(string); ok && s != "" {
				summaries = append(summaries, s)
			}
		}
		return answer, summaries, nil
	}
	return eval.Run(ctx, examples, queryFn, evalBackend)
}

// QueryRequest is one question posed to the pipeline (§3, §4.9).
type QueryRequest struct {
	Question  string             `json:"question"`
	SessionID string             `json:"sessionId,omitempty"`
	Filter    vectorstore.Filter `json:"filter,omitempty"`
}

// QueryResponse is the non-streaming pipeline result (§4.9).
type QueryResponse struct {
	Answer  any              `json:"answer"`
	Sources []map[string]any `json:"sources"`
}

func (e *Engine) callback(fn func(cb *Callbacks)) {
	if e.Callbacks != nil {
		safeCallback(func() { fn(e.Callbacks) })
	}
}

func safeCallback(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

// retriever builds a retrieve.Retriever bound to this Engine's store and
// backends.
func (e *Engine) retriever() *retrieve.Retriever {
	return &retrieve.Retriever{
		Store:        e.Store,
		EmbedBackend: e.EmbedBackend,
		RewriteLLM:   e.RewriteBackend,
	}
}

// runPipeline executes §4.9's state machine through context planning and
// grounding, returning the assembled context, the retrieved docs' source
// metadata, and any state-machine error. Generation itself is invoked by
// the caller (Query vs QueryStream diverge only at that final stage).
func (e *Engine) runPipeline(ctx context.Context, req QueryRequest) (string, []map[string]any, error) {
	ctx, span := e.Tracer.StartSpan(ctx, "vectra.query", observability.WithAttributes(map[string]any{
		"strategy": string(e.Config.Retrieval.Strategy),
	}))
	defer span.End(nil)

	e.callback(func(cb *Callbacks) { cb.onRetrievalStart(req.Question) })

	retrievalStart := time.Now()
	k := retrieve.K(e.Config.Reranking)
	docs, err := e.retriever().Retrieve(ctx, req.Question, e.Config.Retrieval, k, req.Filter)
	e.Metrics.RecordDuration(ctx, "vectra_retrieval_duration_seconds", time.Since(retrievalStart), observability.Labels{"strategy": string(e.Config.Retrieval.Strategy)})
	if err != nil {
		e.callback(func(cb *Callbacks) { cb.onError(err) })
		span.SetStatus(observability.SpanStatusError, err.Error())
		e.Logger.Error(ctx, "retrieval failed", logging.Attr("strategy", string(e.Config.Retrieval.Strategy)), logging.Attr("error", err.Error()))
		return "", nil, fmt.Errorf("retrieve: %w", err)
	}
	docs = retrieve.KeywordBoost(req.Question, docs)
	e.callback(func(cb *Callbacks) { cb.onRetrievalEnd(len(docs)) })
	span.SetAttribute("retrieval.candidate_count", len(docs))
	e.Logger.Debug(ctx, "retrieval complete", logging.Attr("candidates", len(docs)), logging.Attr("strategy", string(e.Config.Retrieval.Strategy)))

	if e.Config.Reranking.Enabled {
		e.callback(func(cb *Callbacks) { cb.onRerankingStart(len(docs)) })
		rerankStart := time.Now()
		docs = rerank.Rerank(ctx, req.Question, docs, e.rerankBackend(), e.Config.Reranking.TopN)
		e.Metrics.RecordDuration(ctx, "vectra_reranking_duration_seconds", time.Since(rerankStart), nil)
		e.callback(func(cb *Callbacks) { cb.onRerankingEnd(len(docs)) })
	}

	parts := planner.Plan(docs, e.Config.QueryPlanning)
	parts = ground.Apply(e.Config.Grounding, parts, req.Question, docs)
	contextText := planner.Render(parts)

	sources := make([]map[string]any, len(docs))
	for i, d := range docs {
		sources[i] = d.Metadata
	}
	return contextText, sources, nil
}

func (e *Engine) rerankBackend() llmbackend.LanguageBackend {
	if e.RerankBackend != nil {
		return e.RerankBackend
	}
	return e.GenerateBackend
}

func (e *Engine) transcript(ctx context.Context, sessionID string) string {
	if !e.Config.Memory.Enabled || sessionID == "" || e.History == nil {
		return ""
	}
	msgs, err := e.History.GetRecent(ctx, sessionID, e.Config.Memory.MaxMessages)
	if err != nil {
		return ""
	}
	return history.FormatTranscript(msgs)
}

// Query runs the full non-streaming pipeline (§4.9).
func (e *Engine) Query(ctx context.Context, req QueryRequest) (QueryResponse, error) {
	e.callback(func(cb *Callbacks) { cb.onGenerationStart(req.Question) })

	contextText, sources, err := e.runPipeline(ctx, req)
	if err != nil {
		return QueryResponse{}, err
	}

	transcript := e.transcript(ctx, req.SessionID)
	prompt := generate.BuildPrompt(e.Config.Prompts, contextText, req.Question, transcript)

	generateStart := time.Now()
	result, err := generate.Generate(ctx, e.GenerateBackend, prompt, req.Question, sources, e.Config.Generation, e.Config.Memory, e.History, req.SessionID)
	e.Metrics.RecordDuration(ctx, "vectra_generation_duration_seconds", time.Since(generateStart), nil)
	if err != nil {
		e.callback(func(cb *Callbacks) { cb.onError(err) })
		e.Metrics.Counter(ctx, "vectra_generation_failures_total", 1, nil)
		e.Logger.Error(ctx, "generation failed", logging.Attr("error", err.Error()))
		return QueryResponse{}, fmt.Errorf("generate: %w", err)
	}
	e.callback(func(cb *Callbacks) { cb.onGenerationEnd(result) })

	return QueryResponse{Answer: result.Answer, Sources: result.Sources}, nil
}

// QueryStream runs the pipeline through the streaming generation path
// (§4.9). Cancelling ctx releases the backend's underlying stream
// connection and leaves history unmutated (§5).
func (e *Engine) QueryStream(ctx context.Context, req QueryRequest) (<-chan generate.StreamEvent, <-chan error) {
	contextText, _, err := e.runPipeline(ctx, req)
	if err != nil {
		errc := make(chan error, 1)
		errc <- err
		close(errc)
		out := make(chan generate.StreamEvent)
		close(out)
		return out, errc
	}

	transcript := e.transcript(ctx, req.SessionID)
	prompt := generate.BuildPrompt(e.Config.Prompts, contextText, req.Question, transcript)

	return generate.GenerateStream(ctx, e.GenerateBackend, prompt, req.Question, e.Config.Memory, e.History, req.SessionID)
}

// QueryFlow is the calque.Flow the non-streaming Query operation runs
// through: a single-stage flow wrapping QueryHandler. cmd/vectra and
// pkg/transport/grpc both drive Query by running this flow rather than
// calling Query directly, so the Handler/Flow substrate is exercised on
// the request path it names in its own doc comment.
func (e *Engine) QueryFlow() *calque.Flow {
	return calque.NewFlow().Use(e.QueryHandler())
}

// IngestFlow is the calque.Flow directory ingestion runs through: a
// single-stage flow wrapping IngestHandler.
func (e *Engine) IngestFlow() *calque.Flow {
	return calque.NewFlow().Use(e.IngestHandler())
}

// RunQuery executes Query by running req through QueryFlow, round-tripping
// the request and response as JSON the way a calque.Handler boundary
// requires. This is the entry point callers outside the pipeline itself
// (the CLI, the gRPC façade) use instead of calling Query directly.
func (e *Engine) RunQuery(ctx context.Context, req QueryRequest) (QueryResponse, error) {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return QueryResponse{}, fmt.Errorf("orchestrator: encode query request: %w", err)
	}
	var respJSON string
	if err := e.QueryFlow().Run(ctx, string(reqJSON), &respJSON); err != nil {
		return QueryResponse{}, err
	}
	var resp QueryResponse
	if err := json.Unmarshal([]byte(respJSON), &resp); err != nil {
		return QueryResponse{}, fmt.Errorf("orchestrator: decode query response: %w", err)
	}
	return resp, nil
}

// RunIngest executes directory ingestion by running dir through
// IngestFlow. QueryStream has no Flow-based equivalent: its Response is
// a channel of incremental generate.StreamEvent values emitted as the
// backend streams tokens, which doesn't fit a calque.Handler's
// single io.Writer, written-once-then-closed contract. It remains a
// direct method call.
func (e *Engine) RunIngest(ctx context.Context, dir string) (ingest.Summary, error) {
	var summaryJSON string
	if err := e.IngestFlow().Run(ctx, dir, &summaryJSON); err != nil {
		return ingest.Summary{}, err
	}
	var summary ingest.Summary
	if err := json.Unmarshal([]byte(summaryJSON), &summary); err != nil {
		return ingest.Summary{}, fmt.Errorf("orchestrator: decode ingest summary: %w", err)
	}
	return summary, nil
}

// QueryHandler adapts Query to calque.Handler: reads a JSON QueryRequest
// from the request body and writes a JSON QueryResponse.
func (e *Engine) QueryHandler() calque.Handler {
	return calque.HandlerFunc(func(r *calque.Request, w *calque.Response) error {
		var body string
		if err := calque.Read(r, &body); err != nil {
			return err
		}
		var req QueryRequest
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			return fmt.Errorf("orchestrator: decode query request: %w", err)
		}

		resp, err := e.Query(r.Context, req)
		if err != nil {
			return err
		}
		out, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		return calque.Write(w, out)
	})
}

// IngestHandler adapts directory ingestion to calque.Handler: reads a
// directory path from the request body and writes a JSON ingest.Summary.
func (e *Engine) IngestHandler() calque.Handler {
	return calque.HandlerFunc(func(r *calque.Request, w *calque.Response) error {
		var dir string
		if err := calque.Read(r, &dir); err != nil {
			return err
		}
		if e.Ingest == nil {
			return fmt.Errorf("orchestrator: ingest coordinator not configured")
		}
		summary, err := e.Ingest.IngestDirectory(r.Context, dir)
		if err != nil {
			return err
		}
		e.Metrics.Counter(r.Context, "vectra_ingest_files_total", int64(summary.Succeeded), observability.Labels{"result": "succeeded"})
		e.Metrics.Counter(r.Context, "vectra_ingest_files_total", int64(summary.Failed), observability.Labels{"result": "failed"})
		out, err := json.Marshal(summary)
		if err != nil {
			return err
		}
		return calque.Write(w, out)
	})
}
