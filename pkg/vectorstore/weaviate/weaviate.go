// Package weaviate implements vectorstore.VectorStore over a Weaviate
// document-vector collection — the hosted/self-hosted vector service named
// in §1/§6 as an external collaborator with a contract only. It uses
// Weaviate's native hybrid search (BM25 + vector, RRF-fused) for the
// hybrid retrieval strategy (§4.5) instead of the fallback-to-similarity
// path other backends take.
package weaviate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/iamabhishek-n/vectra-go/pkg/document"
	"github.com/iamabhishek-n/vectra-go/pkg/vectorstore"
)

// Client wraps a Weaviate instance as a vectorstore.VectorStore.
type Client struct {
	wv        *weaviate.Client
	className string
}

// Config holds Weaviate connection settings.
type Config struct {
	Scheme    string // "http" or "https"
	Host      string // host:port
	APIKey    string // optional
	ClassName string // Weaviate class used as the document collection
}

// New connects to a Weaviate instance and ensures the document class exists.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("weaviate: host is required")
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "http"
	}
	className := cfg.ClassName
	if className == "" {
		className = "Document"
	}

	wvCfg := weaviate.Config{Scheme: scheme, Host: cfg.Host}
	if cfg.APIKey != "" {
		wvCfg.AuthConfig = nil // API-key auth is wired via headers below when needed
		wvCfg.Headers = map[string]string{"Authorization": "Bearer " + cfg.APIKey}
	}
	wv, err := weaviate.NewClient(wvCfg)
	if err != nil {
		return nil, fmt.Errorf("weaviate: connect: %w", err)
	}

	c := &Client{wv: wv, className: className}
	if err := c.ensureClass(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

var _ vectorstore.VectorStore = (*Client)(nil)
var _ vectorstore.Upserter = (*Client)(nil)
var _ vectorstore.HybridSearcher = (*Client)(nil)
var _ vectorstore.Deleter = (*Client)(nil)

func (c *Client) ensureClass(ctx context.Context) error {
	exists, err := c.wv.Schema().ClassExistenceChecker().WithClassName(c.className).Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate: check class: %w", err)
	}
	if exists {
		return nil
	}
	class := &models.Class{
		Class:      c.className,
		Vectorizer: "none", // embeddings are supplied by the orchestrator
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}},
			{Name: "metadataJSON", DataType: []string{"text"}},
			{Name: "absolutePath", DataType: []string{"text"}},
			{Name: "fileSHA256", DataType: []string{"text"}},
		},
	}
	if err := c.wv.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("weaviate: create class: %w", err)
	}
	return nil
}

func (c *Client) Health(ctx context.Context) error {
	ready, err := c.wv.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate: health check: %w", err)
	}
	if !ready {
		return fmt.Errorf("weaviate: not ready")
	}
	return nil
}

func (c *Client) AddDocuments(ctx context.Context, docs []document.Document) error {
	return c.write(ctx, docs)
}

// UpsertDocuments relies on the content-addressed id: Weaviate's batch
// object creator uses the object id as the Weaviate UUID, so re-adding an
// id replaces the prior object (§3 invariant 1, §4.3 mode=replace).
func (c *Client) UpsertDocuments(ctx context.Context, docs []document.Document) error {
	return c.write(ctx, docs)
}

func (c *Client) write(ctx context.Context, docs []document.Document) error {
	if len(docs) == 0 {
		return nil
	}
	objs := make([]*models.Object, 0, len(docs))
	for _, d := range docs {
		metadataJSON := mustJSON(d.MetadataMap())
		vec := make([]float32, len(d.Embedding))
		copy(vec, d.Embedding)
		objs = append(objs, &models.Object{
			Class: c.className,
			ID:    weaviateID(d.ID),
			Properties: map[string]any{
				"content":      d.Content,
				"metadataJSON": metadataJSON,
				"absolutePath": d.File.AbsolutePath,
				"fileSHA256":   d.File.FileSHA256,
			},
			Vector: vec,
		})
	}
	_, err := c.wv.Batch().ObjectsBatcher().WithObjects(objs...).Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate: batch write: %w", err)
	}
	return nil
}

func (c *Client) SimilaritySearch(ctx context.Context, vector []float32, k int, filter vectorstore.Filter) ([]vectorstore.RetrievedDoc, error) {
	nearVector := c.wv.GraphQL().NearVectorArgBuilder().WithVector(vector)

	builder := c.wv.GraphQL().Get().
		WithClassName(c.className).
		WithNearVector(nearVector).
		WithLimit(k).
		WithFields(
			graphql.Field{Name: "content"},
			graphql.Field{Name: "metadataJSON"},
			graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
		)

	if where := buildFilter(filter); where != nil {
		builder = builder.WithWhere(where)
	}

	resp, err := builder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate: similarity search: %w", err)
	}
	return parseGetResponse(resp, c.className)
}

// HybridSearch uses Weaviate's native hybrid search, which internally fuses
// BM25 lexical scoring with vector similarity via Reciprocal Rank Fusion —
// the native hybrid fusion the hybrid strategy (§4.5) defers to.
func (c *Client) HybridSearch(ctx context.Context, text string, vector []float32, k int, filter vectorstore.Filter) ([]vectorstore.RetrievedDoc, error) {
	hybrid := c.wv.GraphQL().HybridArgumentBuilder().
		WithQuery(text).
		WithVector(vector)

	builder := c.wv.GraphQL().Get().
		WithClassName(c.className).
		WithHybrid(hybrid).
		WithLimit(k).
		WithFields(
			graphql.Field{Name: "content"},
			graphql.Field{Name: "metadataJSON"},
			graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "score"}}},
		)

	if where := buildFilter(filter); where != nil {
		builder = builder.WithWhere(where)
	}

	resp, err := builder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate: hybrid search: %w", err)
	}
	return parseGetResponse(resp, c.className)
}

func (c *Client) DeleteDocuments(ctx context.Context, opts vectorstore.DeleteOptions) error {
	for _, id := range opts.IDs {
		if err := c.wv.Data().Deleter().WithClassName(c.className).WithID(weaviateID(id)).Do(ctx); err != nil {
			return fmt.Errorf("weaviate: delete %s: %w", id, err)
		}
	}
	if opts.Filter != nil {
		where := buildFilter(opts.Filter)
		if where != nil {
			_, err := c.wv.Batch().ObjectsBatchDeleter().
				WithClassName(c.className).
				WithWhere(where).
				Do(ctx)
			if err != nil {
				return fmt.Errorf("weaviate: delete by filter: %w", err)
			}
		}
	}
	return nil
}

func buildFilter(filter vectorstore.Filter) *filters.WhereBuilder {
	if len(filter) == 0 {
		return nil
	}
	var operands []*filters.WhereBuilder
	for k, v := range filter {
		operands = append(operands, filters.Where().
			WithPath([]string{k}).
			WithOperator(filters.Equal).
			WithValueText(fmt.Sprintf("%v", v)))
	}
	if len(operands) == 1 {
		return operands[0]
	}
	return filters.Where().WithOperator(filters.And).WithOperands(operands)
}

func weaviateID(id string) string {
	return id
}

func mustJSON(m map[string]any) string {
	if m == nil {
		return "{}"
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}
