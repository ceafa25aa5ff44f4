// Package vectorstore defines the VectorStore capability (§6): the
// polymorphic abstraction over concrete vector-database backends
// (SQL-with-vector-extension, document-vector collections, embedded KV,
// hosted vector services). Concrete backends live in sibling packages
// (pgvector, weaviate, badger, qdrant) plus an in-memory Mock for tests.
package vectorstore

import (
	"context"
	"time"

	"github.com/iamabhishek-n/vectra-go/pkg/document"
)

// Filter is a conjunctive equality map over metadata keys (§6).
type Filter map[string]any

// RetrievedDoc is a candidate returned by a search operation (§3).
//
// Score semantics are strategy-local but monotone "higher is better" before
// fusion.
type RetrievedDoc struct {
	Content  string
	Metadata map[string]any
	Score    float64
}

// DocRow is a row returned by ListDocuments.
type DocRow struct {
	ID       string
	Content  string
	Metadata map[string]any
	Created  time.Time
}

// ListOptions configures ListDocuments.
type ListOptions struct {
	Filter Filter
	Limit  int
	Offset int
}

// DeleteOptions configures DeleteDocuments. Either IDs or Filter (or both)
// may be supplied; a backend deletes the union of both selections.
type DeleteOptions struct {
	IDs    []string
	Filter Filter
}

// VectorStore is the required capability set every backend must implement
// (§6).
type VectorStore interface {
	// AddDocuments stores new documents with their embeddings.
	AddDocuments(ctx context.Context, docs []document.Document) error

	// SimilaritySearch performs a k-nearest-neighbor search by vector.
	SimilaritySearch(ctx context.Context, vector []float32, k int, filter Filter) ([]RetrievedDoc, error)
}

// Upserter is optionally implemented by backends that support
// content-addressed replace-on-conflict writes (§4.3 mode=replace/skip).
type Upserter interface {
	UpsertDocuments(ctx context.Context, docs []document.Document) error
}

// HybridSearcher is optionally implemented by backends with native
// semantic+lexical fusion (§4.5 hybrid strategy).
type HybridSearcher interface {
	HybridSearch(ctx context.Context, text string, vector []float32, k int, filter Filter) ([]RetrievedDoc, error)
}

// IndexEnsurer is optionally implemented by backends that require explicit
// index creation (§4.3 step 7, best-effort).
type IndexEnsurer interface {
	EnsureIndexes(ctx context.Context) error
}

// FileExistsChecker is optionally implemented by backends that can answer
// the content-addressed idempotency check (§4.3 step 2) without a full
// search round-trip.
type FileExistsChecker interface {
	FileExists(ctx context.Context, sha256Hex string, size int64, modTime time.Time) (bool, error)
}

// Lister is optionally implemented by backends that support paginated
// metadata browsing.
type Lister interface {
	ListDocuments(ctx context.Context, opts ListOptions) ([]DocRow, error)
}

// Deleter is optionally implemented by backends that support deletion by id
// or metadata filter (§4.3 mode=replace deletes by {absolutePath} filter).
type Deleter interface {
	DeleteDocuments(ctx context.Context, opts DeleteOptions) error
}

// Healther is optionally implemented by backends exposing a liveness check.
type Healther interface {
	Health(ctx context.Context) error
}

// HasHybridSearch reports whether store implements HybridSearcher.
func HasHybridSearch(store VectorStore) (HybridSearcher, bool) {
	hs, ok := store.(HybridSearcher)
	return hs, ok
}

// HasFileExists reports whether store implements FileExistsChecker.
func HasFileExists(store VectorStore) (FileExistsChecker, bool) {
	fc, ok := store.(FileExistsChecker)
	return fc, ok
}

// HasUpsert reports whether store implements Upserter.
func HasUpsert(store VectorStore) (Upserter, bool) {
	up, ok := store.(Upserter)
	return up, ok
}

// HasEnsureIndexes reports whether store implements IndexEnsurer.
func HasEnsureIndexes(store VectorStore) (IndexEnsurer, bool) {
	ie, ok := store.(IndexEnsurer)
	return ie, ok
}

// HasDelete reports whether store implements Deleter.
func HasDelete(store VectorStore) (Deleter, bool) {
	d, ok := store.(Deleter)
	return d, ok
}
