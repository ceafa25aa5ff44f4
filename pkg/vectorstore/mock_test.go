package vectorstore

import (
	"context"
	"testing"
	"time"

	"github.com/iamabhishek-n/vectra-go/pkg/document"
)

func TestMock_AddAndSimilaritySearch(t *testing.T) {
	m := NewMock()
	ctx := context.Background()
	docs := []document.Document{
		{ID: "1", Content: "a", Embedding: []float32{1, 0}},
		{ID: "2", Content: "b", Embedding: []float32{0, 1}},
	}
	if err := m.AddDocuments(ctx, docs); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}

	results, err := m.SimilaritySearch(ctx, []float32{1, 0}, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Content != "a" {
		t.Errorf("expected doc 'a' to rank first, got %+v", results)
	}
}

func TestMock_SimilaritySearch_PropagatesSearchErr(t *testing.T) {
	m := NewMock()
	m.SearchErr = context.DeadlineExceeded
	_, err := m.SimilaritySearch(context.Background(), []float32{1}, 1, nil)
	if err != context.DeadlineExceeded {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
}

func TestMock_SimilaritySearch_AppliesFilter(t *testing.T) {
	m := NewMock()
	ctx := context.Background()
	docs := []document.Document{
		{ID: "1", Content: "a", Embedding: []float32{1}, Metadata: map[string]any{"lang": "en"}},
		{ID: "2", Content: "b", Embedding: []float32{1}, Metadata: map[string]any{"lang": "fr"}},
	}
	m.AddDocuments(ctx, docs)

	results, err := m.SimilaritySearch(ctx, []float32{1}, 10, Filter{"lang": "fr"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Content != "b" {
		t.Errorf("expected only the fr document, got %+v", results)
	}
}

func TestMock_HybridSearchFallsBackToSimilaritySearch(t *testing.T) {
	m := NewMock()
	ctx := context.Background()
	m.AddDocuments(ctx, []document.Document{{ID: "1", Content: "a", Embedding: []float32{1}}})
	results, err := m.HybridSearch(ctx, "query text", []float32{1}, 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("expected hybrid search to degrade to similarity search, got %+v", results)
	}
}

func TestMock_DeleteDocumentsByID(t *testing.T) {
	m := NewMock()
	ctx := context.Background()
	m.AddDocuments(ctx, []document.Document{{ID: "1", Content: "a"}, {ID: "2", Content: "b"}})
	if err := m.DeleteDocuments(ctx, DeleteOptions{IDs: []string{"1"}}); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after delete", m.Len())
	}
}

func TestMock_DeleteDocumentsByFilter(t *testing.T) {
	m := NewMock()
	ctx := context.Background()
	m.AddDocuments(ctx, []document.Document{
		{ID: "1", Content: "a", Metadata: map[string]any{"absolutePath": "/a"}},
		{ID: "2", Content: "b", Metadata: map[string]any{"absolutePath": "/b"}},
	})
	if err := m.DeleteDocuments(ctx, DeleteOptions{Filter: Filter{"absolutePath": "/a"}}); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after filtered delete", m.Len())
	}
}

func TestMock_FileExists(t *testing.T) {
	m := NewMock()
	ctx := context.Background()
	modTime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.AddDocuments(ctx, []document.Document{{
		ID: "1",
		File: document.FileMetadata{
			FileSHA256:   "hash1",
			FileSize:     10,
			LastModified: modTime,
		},
	}})

	exists, err := m.FileExists(ctx, "hash1", 10, modTime)
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Error("expected FileExists to report true for a matching ingest")
	}

	exists, err = m.FileExists(ctx, "hash-other", 10, modTime)
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("expected FileExists to report false for a non-matching hash")
	}
}

func TestMock_ListDocumentsPagination(t *testing.T) {
	m := NewMock()
	ctx := context.Background()
	m.AddDocuments(ctx, []document.Document{
		{ID: "1", Content: "a"},
		{ID: "2", Content: "b"},
		{ID: "3", Content: "c"},
	})
	rows, err := m.ListDocuments(ctx, ListOptions{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Errorf("len(rows) = %d, want 2", len(rows))
	}
}

func TestMock_HealthIsAlwaysNil(t *testing.T) {
	if err := NewMock().Health(context.Background()); err != nil {
		t.Errorf("Health() = %v, want nil", err)
	}
}
