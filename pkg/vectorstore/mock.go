package vectorstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iamabhishek-n/vectra-go/pkg/document"
)

// Mock is a brute-force, in-memory VectorStore used by tests and examples.
// It implements every optional capability so tests can exercise the full
// interface surface without a real backend.
type Mock struct {
	mu   sync.RWMutex
	docs map[string]document.Document

	// SearchErr, when set, is returned by SimilaritySearch/HybridSearch
	// instead of performing a search — used to simulate backend failures.
	SearchErr error
}

// NewMock returns an empty Mock store.
func NewMock() *Mock {
	return &Mock{docs: make(map[string]document.Document)}
}

func (m *Mock) AddDocuments(_ context.Context, docs []document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range docs {
		m.docs[d.ID] = d
	}
	return nil
}

func (m *Mock) UpsertDocuments(_ context.Context, docs []document.Document) error {
	return m.AddDocuments(context.Background(), docs)
}

func (m *Mock) SimilaritySearch(_ context.Context, vector []float32, k int, filter Filter) ([]RetrievedDoc, error) {
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	candidates := make([]RetrievedDoc, 0, len(m.docs))
	for _, d := range m.docs {
		if !matchFilter(d.MetadataMap(), filter) {
			continue
		}
		candidates = append(candidates, RetrievedDoc{
			Content:  d.Content,
			Metadata: d.MetadataMap(),
			Score:    Dot(vector, d.Embedding),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// HybridSearch falls back to SimilaritySearch, per §6's degrade-gracefully
// contract for backends lacking a native hybrid implementation.
func (m *Mock) HybridSearch(ctx context.Context, _ string, vector []float32, k int, filter Filter) ([]RetrievedDoc, error) {
	return m.SimilaritySearch(ctx, vector, k, filter)
}

func (m *Mock) EnsureIndexes(_ context.Context) error { return nil }

func (m *Mock) FileExists(_ context.Context, sha256Hex string, size int64, modTime time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.docs {
		if d.File.FileSHA256 == sha256Hex && d.File.FileSize == size && d.File.LastModified.Equal(modTime) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Mock) ListDocuments(_ context.Context, opts ListOptions) ([]DocRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := make([]DocRow, 0, len(m.docs))
	for _, d := range m.docs {
		if !matchFilter(d.MetadataMap(), opts.Filter) {
			continue
		}
		rows = append(rows, DocRow{ID: d.ID, Content: d.Content, Metadata: d.MetadataMap()})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	if opts.Offset > 0 && opts.Offset < len(rows) {
		rows = rows[opts.Offset:]
	} else if opts.Offset >= len(rows) {
		rows = nil
	}
	if opts.Limit > 0 && len(rows) > opts.Limit {
		rows = rows[:opts.Limit]
	}
	return rows, nil
}

func (m *Mock) DeleteDocuments(_ context.Context, opts DeleteOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range opts.IDs {
		delete(m.docs, id)
	}
	if opts.Filter != nil {
		for id, d := range m.docs {
			if matchFilter(d.MetadataMap(), opts.Filter) {
				delete(m.docs, id)
			}
		}
	}
	return nil
}

func (m *Mock) Health(_ context.Context) error { return nil }

// Len reports the number of stored documents, for test assertions.
func (m *Mock) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func matchFilter(metadata map[string]any, filter Filter) bool {
	for k, v := range filter {
		if metadata[k] != v {
			return false
		}
	}
	return true
}
