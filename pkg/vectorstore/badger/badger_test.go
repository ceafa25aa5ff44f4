package badger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/iamabhishek-n/vectra-go/pkg/document"
	"github.com/iamabhishek-n/vectra-go/pkg/vectorstore"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "badger"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_AddAndSimilaritySearch(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	docs := []document.Document{
		{ID: "a", Content: "cats are great", Embedding: []float32{1, 0}},
		{ID: "b", Content: "dogs are great", Embedding: []float32{0, 1}},
	}
	if err := s.AddDocuments(ctx, docs); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	out, err := s.SimilaritySearch(ctx, []float32{1, 0}, 1, nil)
	if err != nil {
		t.Fatalf("SimilaritySearch: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	if out[0].Content != "cats are great" {
		t.Errorf("Content = %q, want the closer vector's document", out[0].Content)
	}
}

func TestStore_UpsertDocumentsOverwritesByID(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	s.AddDocuments(ctx, []document.Document{{ID: "a", Content: "first version", Embedding: []float32{1}}})
	s.UpsertDocuments(ctx, []document.Document{{ID: "a", Content: "second version", Embedding: []float32{1}}})

	rows, err := s.ListDocuments(ctx, vectorstore.ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1 (overwritten, not duplicated)", len(rows))
	}
	if rows[0].Content != "second version" {
		t.Errorf("Content = %q, want %q", rows[0].Content, "second version")
	}
}

func TestStore_SimilaritySearchAppliesFilter(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	s.AddDocuments(ctx, []document.Document{
		{ID: "a", Content: "en doc", Embedding: []float32{1}, Metadata: map[string]any{"lang": "en"}},
		{ID: "b", Content: "fr doc", Embedding: []float32{1}, Metadata: map[string]any{"lang": "fr"}},
	})

	out, err := s.SimilaritySearch(ctx, []float32{1}, 10, vectorstore.Filter{"lang": "fr"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].Content != "fr doc" {
		t.Errorf("out = %+v, want only the fr doc", out)
	}
}

func TestHybridSearch_CombinesLexicalAndSemanticScore(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	s.AddDocuments(ctx, []document.Document{
		{ID: "a", Content: "the quick brown fox", Embedding: []float32{1, 0}},
		{ID: "b", Content: "a slow green turtle", Embedding: []float32{1, 0}},
	})

	out, err := s.HybridSearch(ctx, "quick fox", []float32{1, 0}, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	if out[0].Content != "the quick brown fox" {
		t.Errorf("expected the lexically matching document to rank first, got %q", out[0].Content)
	}
}

func TestLexicalOverlap(t *testing.T) {
	tests := []struct {
		name    string
		tokens  []string
		content string
		want    float64
	}{
		{"no tokens", nil, "anything", 0},
		{"full overlap", []string{"fox", "quick"}, "the quick brown fox", 1},
		{"partial overlap", []string{"fox", "missing"}, "the quick brown fox", 0.5},
		{"no overlap", []string{"zzz"}, "the quick brown fox", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lexicalOverlap(tt.tokens, tt.content); got != tt.want {
				t.Errorf("lexicalOverlap(%v, %q) = %v, want %v", tt.tokens, tt.content, got, tt.want)
			}
		})
	}
}

func TestMatchFilter(t *testing.T) {
	meta := map[string]any{"lang": "en", "section": "intro"}
	if !matchFilter(meta, nil) {
		t.Error("nil filter should match everything")
	}
	if !matchFilter(meta, vectorstore.Filter{"lang": "en"}) {
		t.Error("expected a matching single-key filter to pass")
	}
	if matchFilter(meta, vectorstore.Filter{"lang": "fr"}) {
		t.Error("expected a mismatching value to fail")
	}
	if matchFilter(meta, vectorstore.Filter{"missing": "x"}) {
		t.Error("expected a missing key to fail")
	}
}

func TestStore_FileExists(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	modTime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.AddDocuments(ctx, []document.Document{{
		ID:      "a",
		Content: "content",
		File:    document.FileMetadata{FileSHA256: "abc", FileSize: 10, LastModified: modTime},
	}})

	ok, err := s.FileExists(ctx, "abc", 10, modTime)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected FileExists to match on sha256+size+modTime")
	}

	ok, err = s.FileExists(ctx, "abc", 999, modTime)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected a size mismatch to fail FileExists")
	}
}

func TestStore_DeleteDocumentsByID(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	s.AddDocuments(ctx, []document.Document{
		{ID: "a", Content: "keep"},
		{ID: "b", Content: "remove"},
	})

	if err := s.DeleteDocuments(ctx, vectorstore.DeleteOptions{IDs: []string{"b"}}); err != nil {
		t.Fatal(err)
	}
	rows, err := s.ListDocuments(ctx, vectorstore.ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ID != "a" {
		t.Errorf("rows = %+v, want only doc a remaining", rows)
	}
}

func TestStore_DeleteDocumentsByFilter(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	s.AddDocuments(ctx, []document.Document{
		{ID: "a", Content: "en", Metadata: map[string]any{"lang": "en"}},
		{ID: "b", Content: "fr", Metadata: map[string]any{"lang": "fr"}},
	})

	if err := s.DeleteDocuments(ctx, vectorstore.DeleteOptions{Filter: vectorstore.Filter{"lang": "fr"}}); err != nil {
		t.Fatal(err)
	}
	rows, err := s.ListDocuments(ctx, vectorstore.ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ID != "a" {
		t.Errorf("rows = %+v, want only the en doc remaining", rows)
	}
}

func TestStore_ListDocumentsPaginates(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	s.AddDocuments(ctx, []document.Document{
		{ID: "a", Content: "1"},
		{ID: "b", Content: "2"},
		{ID: "c", Content: "3"},
	})

	rows, err := s.ListDocuments(ctx, vectorstore.ListOptions{Offset: 1, Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ID != "b" {
		t.Errorf("rows = %+v, want only doc b (sorted by id, offset 1 limit 1)", rows)
	}
}

func TestStore_Health(t *testing.T) {
	s := newStore(t)
	if err := s.Health(context.Background()); err != nil {
		t.Errorf("Health: %v, want nil", err)
	}
}
