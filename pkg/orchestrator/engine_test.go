package orchestrator

import (
	"context"
	"testing"

	"github.com/iamabhishek-n/vectra-go/pkg/config"
	"github.com/iamabhishek-n/vectra-go/pkg/docloader"
	"github.com/iamabhishek-n/vectra-go/pkg/document"
	"github.com/iamabhishek-n/vectra-go/pkg/generate"
	"github.com/iamabhishek-n/vectra-go/pkg/llmbackend"
	"github.com/iamabhishek-n/vectra-go/pkg/vectorstore"
)

func newTestEngine() (*Engine, *vectorstore.Mock) {
	cfg := config.Default()
	store := vectorstore.NewMock()
	embed := &llmbackend.Mock{EmbeddingDim: 8}
	generateBackend := &llmbackend.Mock{Response: "the remote work policy allows WFH"}
	e := New(cfg, store, embed, generateBackend)
	return e, store
}

// capBackend wraps llmbackend.Mock with a fixed Capabilities report, for
// exercising ValidateCapabilities against a backend that's missing
// something a config choice needs.
type capBackend struct {
	llmbackend.Mock
	caps llmbackend.Capabilities
}

func (c *capBackend) Capabilities() llmbackend.Capabilities { return c.caps }

func TestValidateCapabilities_AllMockBackendsPass(t *testing.T) {
	e, _ := newTestEngine()
	if err := e.ValidateCapabilities(); err != nil {
		t.Fatalf("ValidateCapabilities() = %v, want nil", err)
	}
}

func TestValidateCapabilities_EmbeddingGapRejected(t *testing.T) {
	e, _ := newTestEngine()
	e.EmbedBackend = &capBackend{caps: llmbackend.Capabilities{Embeddings: false, Generation: true}}

	err := e.ValidateCapabilities()
	if err == nil {
		t.Fatal("expected an error for an embedding-incapable EmbedBackend")
	}
}

func TestValidateCapabilities_RerankingGapRejected(t *testing.T) {
	e, _ := newTestEngine()
	e.Config.Reranking.Enabled = true
	e.RerankBackend = &capBackend{caps: llmbackend.Capabilities{Embeddings: true, Generation: false}}

	err := e.ValidateCapabilities()
	if err == nil {
		t.Fatal("expected an error when reranking is enabled but RerankBackend can't generate")
	}
}

func TestValidateCapabilities_RewriteGapRejected(t *testing.T) {
	e, _ := newTestEngine()
	e.Config.Retrieval.Strategy = config.RetrievalHyDE
	e.RewriteBackend = &capBackend{caps: llmbackend.Capabilities{Embeddings: true, Generation: false}}

	err := e.ValidateCapabilities()
	if err == nil {
		t.Fatal("expected an error when retrieval.strategy=hyde but RewriteBackend can't generate")
	}
}

func TestValidateCapabilities_BackendWithoutReporterIsAssumedCapable(t *testing.T) {
	e, _ := newTestEngine()
	e.EmbedBackend = &plainBackend{inner: &llmbackend.Mock{EmbeddingDim: 8}}

	if err := e.ValidateCapabilities(); err != nil {
		t.Fatalf("ValidateCapabilities() = %v, want nil for a backend with no CapabilityReporter", err)
	}
}

// plainBackend forwards LanguageBackend calls by delegation rather than
// embedding, so it does not promote inner's Capabilities method and so
// does not implement llmbackend.CapabilityReporter at all.
type plainBackend struct {
	inner *llmbackend.Mock
}

func (p *plainBackend) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return p.inner.EmbedDocuments(ctx, texts)
}

func (p *plainBackend) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return p.inner.EmbedQuery(ctx, text)
}

func (p *plainBackend) Generate(ctx context.Context, prompt, system string) (string, error) {
	return p.inner.Generate(ctx, prompt, system)
}

func (p *plainBackend) GenerateStream(ctx context.Context, prompt, system string) (<-chan llmbackend.StreamChunk, <-chan error) {
	return p.inner.GenerateStream(ctx, prompt, system)
}

func TestQuery_ReturnsGeneratedAnswerAndSources(t *testing.T) {
	e, store := newTestEngine()
	ctx := context.Background()

	store.AddDocuments(ctx, []document.Document{
		{
			ID:        "doc1",
			Content:   "Employees may work remotely up to three days per week.",
			Embedding: vectorstore.Normalize([]float32{1, 0, 0, 0, 0, 0, 0, 0}),
			Metadata:  map[string]any{"docTitle": "handbook.md"},
		},
	})

	resp, err := e.Query(ctx, QueryRequest{Question: "what is the remote work policy?"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if resp.Answer != "the remote work policy allows WFH" {
		t.Errorf("Answer = %v, want the mock's canned response", resp.Answer)
	}
	if len(resp.Sources) != 1 {
		t.Errorf("len(Sources) = %d, want 1", len(resp.Sources))
	}
}

func TestQuery_PropagatesRetrievalError(t *testing.T) {
	e, store := newTestEngine()
	store.SearchErr = context.DeadlineExceeded

	_, err := e.Query(context.Background(), QueryRequest{Question: "q"})
	if err == nil {
		t.Fatal("expected retrieval error to propagate")
	}
}

func TestQuery_InvokesCallbacksInOrder(t *testing.T) {
	e, store := newTestEngine()
	ctx := context.Background()
	store.AddDocuments(ctx, []document.Document{{
		ID: "doc1", Content: "content", Embedding: vectorstore.Normalize([]float32{1}),
	}})

	var events []string
	e.Callbacks = &Callbacks{
		OnRetrievalStart:  func(string) { events = append(events, "retrieval-start") },
		OnRetrievalEnd:    func(int) { events = append(events, "retrieval-end") },
		OnGenerationStart: func(string) { events = append(events, "generation-start") },
		OnGenerationEnd:   func(generate.Result) { events = append(events, "generation-end") },
	}

	if _, err := e.Query(ctx, QueryRequest{Question: "q"}); err != nil {
		t.Fatal(err)
	}
	want := []string{"generation-start", "retrieval-start", "retrieval-end", "generation-end"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("events = %v, want %v", events, want)
			break
		}
	}
	if events[0] != "generation-start" {
		t.Errorf("expected OnGenerationStart to fire before the pipeline runs, got %v", events)
	}
}

func TestQueryStream_AccumulatesAnswer(t *testing.T) {
	e, store := newTestEngine()
	ctx := context.Background()
	store.AddDocuments(ctx, []document.Document{{
		ID: "doc1", Content: "content", Embedding: vectorstore.Normalize([]float32{1}),
	}})

	events, errc := e.QueryStream(ctx, QueryRequest{Question: "q"})
	var full string
	for ev := range events {
		if ev.Done {
			full = ev.FullAnswer
		}
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
	if full == "" {
		t.Error("expected a non-empty accumulated streamed answer")
	}
}

func TestQueryStream_PropagatesRetrievalErrorWithoutBlocking(t *testing.T) {
	e, store := newTestEngine()
	store.SearchErr = context.DeadlineExceeded

	events, errc := e.QueryStream(context.Background(), QueryRequest{Question: "q"})
	for range events {
	}
	if err := <-errc; err == nil {
		t.Fatal("expected the retrieval error to surface on the stream's error channel")
	}
}

func TestRunQuery_MatchesDirectQueryThroughFlow(t *testing.T) {
	e, store := newTestEngine()
	ctx := context.Background()

	store.AddDocuments(ctx, []document.Document{
		{
			ID:        "doc1",
			Content:   "Employees may work remotely up to three days per week.",
			Embedding: vectorstore.Normalize([]float32{1, 0, 0, 0, 0, 0, 0, 0}),
			Metadata:  map[string]any{"docTitle": "handbook.md"},
		},
	})

	req := QueryRequest{Question: "what is the remote work policy?"}

	want, err := e.Query(ctx, req)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	got, err := e.RunQuery(ctx, req)
	if err != nil {
		t.Fatalf("RunQuery: %v", err)
	}

	if got.Answer != want.Answer {
		t.Errorf("RunQuery answer = %q, want %q (Query's answer)", got.Answer, want.Answer)
	}
	if len(got.Sources) != len(want.Sources) {
		t.Errorf("RunQuery returned %d sources, want %d", len(got.Sources), len(want.Sources))
	}
}

func TestRunIngest_RunsIngestDirectoryThroughFlow(t *testing.T) {
	e, _ := newTestEngine()
	e.WithIngest(docloader.NewRegistry())

	dir := t.TempDir()

	summary, err := e.RunIngest(context.Background(), dir)
	if err != nil {
		t.Fatalf("RunIngest: %v", err)
	}
	if summary.Processed != 0 {
		t.Errorf("Processed = %d, want 0 for an empty directory", summary.Processed)
	}
}

func TestWithIngest_WiresCoordinatorToEngineCollaborators(t *testing.T) {
	e, store := newTestEngine()
	e.WithIngest(docloader.NewRegistry())
	if e.Ingest == nil {
		t.Fatal("expected WithIngest to attach a Coordinator")
	}
	if e.Ingest.Store != store {
		t.Error("expected the ingest coordinator to share the engine's store")
	}
	if e.Ingest.Cache != e.Cache {
		t.Error("expected the ingest coordinator to share the engine's embedding cache")
	}
}

func TestEngine_MemoryEnabledPersistsConversationAcrossQueries(t *testing.T) {
	cfg := config.Default()
	cfg.Memory.Enabled = true
	store := vectorstore.NewMock()
	embed := &llmbackend.Mock{EmbeddingDim: 8}
	generateBackend := &llmbackend.Mock{Response: "answer"}
	e := New(cfg, store, embed, generateBackend)

	ctx := context.Background()
	store.AddDocuments(ctx, []document.Document{{
		ID: "doc1", Content: "content", Embedding: vectorstore.Normalize([]float32{1}),
	}})

	if _, err := e.Query(ctx, QueryRequest{Question: "first question", SessionID: "s1"}); err != nil {
		t.Fatal(err)
	}
	msgs, err := e.History.GetRecent(ctx, "s1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 persisted messages after one query, got %d", len(msgs))
	}
}
