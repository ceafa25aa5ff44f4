package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/iamabhishek-n/vectra-go/pkg/config"
	"github.com/iamabhishek-n/vectra-go/pkg/docloader"
	"github.com/iamabhishek-n/vectra-go/pkg/embedcache"
	"github.com/iamabhishek-n/vectra-go/pkg/llmbackend"
	"github.com/iamabhishek-n/vectra-go/pkg/vectorstore"
)

func newCoordinator(cfg config.Config) (*Coordinator, *vectorstore.Mock) {
	store := vectorstore.NewMock()
	return &Coordinator{
		Store:        store,
		Loader:       docloader.NewRegistry(),
		Cache:        embedcache.New(),
		EmbedBackend: &llmbackend.Mock{EmbeddingDim: 8},
		Config:       cfg,
	}, store
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIngestFile_AddsDocumentsToStore(t *testing.T) {
	cfg := config.Default()
	c, store := newCoordinator(cfg)
	path := writeTempFile(t, "doc.txt", "The remote work policy allows employees to work from home.")

	if err := c.IngestFile(context.Background(), path); err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if store.Len() == 0 {
		t.Error("expected at least one document to be stored")
	}
}

func TestIngestFile_SkipModeSkipsAlreadyIngestedFile(t *testing.T) {
	cfg := config.Default()
	cfg.Ingestion.Mode = config.ModeSkip
	c, store := newCoordinator(cfg)
	path := writeTempFile(t, "doc.txt", "duplicate content")

	if err := c.IngestFile(context.Background(), path); err != nil {
		t.Fatalf("first IngestFile: %v", err)
	}
	firstCount := store.Len()

	var skipped bool
	c.Callbacks = &Callbacks{OnIngestSkipped: func(string) { skipped = true }}
	if err := c.IngestFile(context.Background(), path); err != nil {
		t.Fatalf("second IngestFile: %v", err)
	}
	if !skipped {
		t.Error("expected the second ingest of an unchanged file to be skipped")
	}
	if store.Len() != firstCount {
		t.Errorf("store grew on a skipped re-ingest: %d -> %d", firstCount, store.Len())
	}
}

func TestIngestFile_ReplaceModeDeletesExistingBeforeUpsert(t *testing.T) {
	cfg := config.Default()
	cfg.Ingestion.Mode = config.ModeReplace
	c, store := newCoordinator(cfg)
	path := writeTempFile(t, "doc.txt", "original content here for replace test")

	if err := c.IngestFile(context.Background(), path); err != nil {
		t.Fatalf("first IngestFile: %v", err)
	}
	firstCount := store.Len()
	if firstCount == 0 {
		t.Fatal("expected documents after first ingest")
	}

	if err := c.IngestFile(context.Background(), path); err != nil {
		t.Fatalf("second IngestFile: %v", err)
	}
	if store.Len() != firstCount {
		t.Errorf("replace mode should not accumulate duplicate chunks: first=%d second=%d", firstCount, store.Len())
	}
}

func TestIngestFile_UnreadableFileReturnsError(t *testing.T) {
	cfg := config.Default()
	c, _ := newCoordinator(cfg)
	if err := c.IngestFile(context.Background(), "/nonexistent/path.txt"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestIngestDirectory_SkipsHiddenAndTempFiles(t *testing.T) {
	cfg := config.Default()
	c, store := newCoordinator(cfg)
	dir := t.TempDir()

	os.WriteFile(filepath.Join(dir, "real.txt"), []byte("real document content for ingestion"), 0o644)
	os.WriteFile(filepath.Join(dir, ".hidden.txt"), []byte("hidden"), 0o644)
	os.WriteFile(filepath.Join(dir, "draft.txt.tmp"), []byte("temp"), 0o644)
	os.Mkdir(filepath.Join(dir, "subdir"), 0o755)

	summary, err := c.IngestDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("IngestDirectory: %v", err)
	}
	if summary.Processed != 1 || summary.Succeeded != 1 {
		t.Errorf("summary = %+v, want Processed=1 Succeeded=1 (hidden/temp/dir entries skipped)", summary)
	}
	if store.Len() == 0 {
		t.Error("expected the real document to be ingested")
	}
}

func TestIngestDirectory_IsolatesPerFileFailures(t *testing.T) {
	cfg := config.Default()
	c, _ := newCoordinator(cfg)
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "good.txt"), []byte("a perfectly good document"), 0o644)
	// Unsupported extension with no registered loader and no Default.
	os.WriteFile(filepath.Join(dir, "bad.pdf"), []byte("not really a pdf"), 0o644)

	summary, err := c.IngestDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("IngestDirectory: %v", err)
	}
	if summary.Processed != 2 {
		t.Fatalf("Processed = %d, want 2", summary.Processed)
	}
	if summary.Succeeded != 1 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want Succeeded=1 Failed=1", summary)
	}
	if len(summary.Errors) != 1 {
		t.Errorf("expected exactly one recorded error, got %d", len(summary.Errors))
	}
}

func TestIngestFile_CallbacksFireInOrder(t *testing.T) {
	cfg := config.Default()
	c, _ := newCoordinator(cfg)
	path := writeTempFile(t, "doc.txt", "some reasonably long document content for callback testing")

	var events []string
	c.Callbacks = &Callbacks{
		OnIngestStart: func(string) { events = append(events, "start") },
		OnIngestEnd:   func(string) { events = append(events, "end") },
	}
	if err := c.IngestFile(context.Background(), path); err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0] != "start" || events[1] != "end" {
		t.Errorf("events = %v, want [start end]", events)
	}
}

func TestIngestFile_PanickingCallbackDoesNotAbortIngestion(t *testing.T) {
	cfg := config.Default()
	c, store := newCoordinator(cfg)
	path := writeTempFile(t, "doc.txt", "content that should still be ingested despite a bad callback")

	c.Callbacks = &Callbacks{OnIngestStart: func(string) { panic("callback bug") }}
	if err := c.IngestFile(context.Background(), path); err != nil {
		t.Fatalf("IngestFile should survive a panicking callback: %v", err)
	}
	if store.Len() == 0 {
		t.Error("expected ingestion to complete despite the panicking callback")
	}
}

func TestEmbedAndBuild_ReusesCache(t *testing.T) {
	cfg := config.Default()
	cache := embedcache.New()
	backend := &llmbackend.Mock{EmbeddingDim: 8}
	c := &Coordinator{
		Store:        vectorstore.NewMock(),
		Loader:       docloader.NewRegistry(),
		Cache:        cache,
		EmbedBackend: backend,
		Config:       cfg,
	}
	path := writeTempFile(t, "doc.txt", "This text is intentionally long enough to produce at least one chunk for testing.")

	if err := c.IngestFile(context.Background(), path); err != nil {
		t.Fatal(err)
	}
	before := cache.Len()
	if before == 0 {
		t.Fatal("expected the embedding cache to be populated after ingest")
	}

	// Re-ingesting the same content in append mode must not re-embed
	// already cached chunks.
	if err := c.IngestFile(context.Background(), path); err != nil {
		t.Fatal(err)
	}
	if cache.Len() != before {
		t.Errorf("cache grew on a re-ingest of identical content: %d -> %d", before, cache.Len())
	}
}
