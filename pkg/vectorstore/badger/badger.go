// Package badger provides an embedded-KV VectorStore backed by BadgerDB
// (§6), for local and offline ingestion where a network vector service is
// unavailable. Documents are stored as JSON-encoded values keyed by their
// content-addressed id; SimilaritySearch and HybridSearch are brute-force
// scans over the keyspace, which is appropriate at the corpus sizes this
// backend targets.
package badger

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/iamabhishek-n/vectra-go/pkg/document"
	"github.com/iamabhishek-n/vectra-go/pkg/vectorstore"
)

// Store implements vectorstore.VectorStore using BadgerDB.
type Store struct {
	db *badgerdb.DB
}

// New opens (or creates) a BadgerDB-backed vector store at path.
func New(path string) (*Store, error) {
	opts := badgerdb.DefaultOptions(path)
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

var _ vectorstore.VectorStore = (*Store)(nil)
var _ vectorstore.Upserter = (*Store)(nil)
var _ vectorstore.FileExistsChecker = (*Store)(nil)
var _ vectorstore.Deleter = (*Store)(nil)
var _ vectorstore.Lister = (*Store)(nil)

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) AddDocuments(_ context.Context, docs []document.Document) error {
	return s.db.Update(func(txn *badgerdb.Txn) error {
		for _, d := range docs {
			raw, err := json.Marshal(d)
			if err != nil {
				return err
			}
			if err := txn.Set([]byte(d.ID), raw); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertDocuments replaces-or-inserts by id; BadgerDB's Set already
// overwrites existing keys, so upsert and add share an implementation.
func (s *Store) UpsertDocuments(ctx context.Context, docs []document.Document) error {
	return s.AddDocuments(ctx, docs)
}

func (s *Store) all() ([]document.Document, error) {
	var docs []document.Document
	err := s.db.View(func(txn *badgerdb.Txn) error {
		it := txn.NewIterator(badgerdb.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			if err := item.Value(func(val []byte) error {
				var d document.Document
				if err := json.Unmarshal(val, &d); err != nil {
					return err
				}
				docs = append(docs, d)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return docs, err
}

func (s *Store) SimilaritySearch(_ context.Context, vector []float32, k int, filter vectorstore.Filter) ([]vectorstore.RetrievedDoc, error) {
	docs, err := s.all()
	if err != nil {
		return nil, err
	}

	candidates := make([]vectorstore.RetrievedDoc, 0, len(docs))
	for _, d := range docs {
		meta := d.MetadataMap()
		if !matchFilter(meta, filter) {
			continue
		}
		candidates = append(candidates, vectorstore.RetrievedDoc{
			Content:  d.Content,
			Metadata: meta,
			Score:    vectorstore.Dot(vector, d.Embedding),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// HybridSearch combines the vector score with a naive lexical overlap score
// (fraction of lowercase query tokens present in the document), then
// sorts by their equal-weighted sum (0.5 each) — BadgerDB has no native full-text index, so
// this is the best this backend can do natively rather than degrading to
// pure similarity (§6 "hybrid falls back to similarity" is the floor, not a
// ceiling).
func (s *Store) HybridSearch(_ context.Context, text string, vector []float32, k int, filter vectorstore.Filter) ([]vectorstore.RetrievedDoc, error) {
	docs, err := s.all()
	if err != nil {
		return nil, err
	}
	queryTokens := strings.Fields(strings.ToLower(text))

	candidates := make([]vectorstore.RetrievedDoc, 0, len(docs))
	for _, d := range docs {
		meta := d.MetadataMap()
		if !matchFilter(meta, filter) {
			continue
		}
		lexical := lexicalOverlap(queryTokens, d.Content)
		semantic := vectorstore.Dot(vector, d.Embedding)
		candidates = append(candidates, vectorstore.RetrievedDoc{
			Content:  d.Content,
			Metadata: meta,
			Score:    0.5*semantic + 0.5*lexical,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

func lexicalOverlap(queryTokens []string, content string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	hits := 0
	for _, t := range queryTokens {
		if strings.Contains(lower, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(queryTokens))
}

func (s *Store) FileExists(_ context.Context, sha256Hex string, size int64, modTime time.Time) (bool, error) {
	docs, err := s.all()
	if err != nil {
		return false, err
	}
	for _, d := range docs {
		if d.File.FileSHA256 == sha256Hex && d.File.FileSize == size && d.File.LastModified.Equal(modTime) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListDocuments(_ context.Context, opts vectorstore.ListOptions) ([]vectorstore.DocRow, error) {
	docs, err := s.all()
	if err != nil {
		return nil, err
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	rows := make([]vectorstore.DocRow, 0, len(docs))
	for _, d := range docs {
		meta := d.MetadataMap()
		if !matchFilter(meta, opts.Filter) {
			continue
		}
		rows = append(rows, vectorstore.DocRow{ID: d.ID, Content: d.Content, Metadata: meta})
	}
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

func (s *Store) DeleteDocuments(_ context.Context, opts vectorstore.DeleteOptions) error {
	return s.db.Update(func(txn *badgerdb.Txn) error {
		for _, id := range opts.IDs {
			if err := txn.Delete([]byte(id)); err != nil && err != badgerdb.ErrKeyNotFound {
				return err
			}
		}
		if opts.Filter != nil {
			it := txn.NewIterator(badgerdb.DefaultIteratorOptions)
			defer it.Close()
			var toDelete [][]byte
			for it.Rewind(); it.Valid(); it.Next() {
				item := it.Item()
				if err := item.Value(func(val []byte) error {
					var d document.Document
					if err := json.Unmarshal(val, &d); err != nil {
						return err
					}
					if matchFilter(d.MetadataMap(), opts.Filter) {
						toDelete = append(toDelete, append([]byte(nil), item.Key()...))
					}
					return nil
				}); err != nil {
					return err
				}
			}
			for _, key := range toDelete {
				if err := txn.Delete(key); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *Store) Health(_ context.Context) error {
	return nil
}

func matchFilter(metadata map[string]any, filter vectorstore.Filter) bool {
	for k, v := range filter {
		if metadata[k] != v {
			return false
		}
	}
	return true
}
