// Package qdrant implements vectorstore.VectorStore over a Qdrant
// collection — the hosted/self-hosted vector service named in §1/§6 as an
// external collaborator with a contract only. It is adapted from the
// teacher's Qdrant retrieval client: payload fields are built and decoded
// per-key (qd.Value variants) rather than one JSON blob, so metadata
// filters compile to native Qdrant match conditions instead of an
// in-process scan.
package qdrant

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"context"

	qd "github.com/qdrant/go-client/qdrant"

	"github.com/iamabhishek-n/vectra-go/pkg/document"
	"github.com/iamabhishek-n/vectra-go/pkg/vectorstore"
)

// Client wraps a Qdrant collection as a vectorstore.VectorStore.
type Client struct {
	client         *qd.Client
	collectionName string
	vectorDim      uint64
	ensured        bool
}

// Config holds Qdrant connection settings.
type Config struct {
	URL             string // e.g. "http://localhost:6334"
	APIKey          string // optional
	CollectionName  string
	VectorDimension int
}

// New parses the Qdrant URL into host/port and opens a client. The
// collection itself is created lazily on first use (a write, FileExists or
// EnsureIndexes), as the pgvector backend creates its table lazily.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant: url is required")
	}
	collection := cfg.CollectionName
	if collection == "" {
		collection = "documents"
	}
	dim := cfg.VectorDimension
	if dim <= 0 {
		dim = 1536
	}

	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("qdrant: invalid url: %w", err)
	}
	port := 6334
	if p := parsed.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("qdrant: invalid port %q: %w", p, err)
		}
		port = n
	}

	client, err := qd.NewClient(&qd.Config{
		Host:   parsed.Hostname(),
		Port:   port,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: connect: %w", err)
	}

	return &Client{
		client:         client,
		collectionName: collection,
		vectorDim:      uint64(dim),
	}, nil
}

var _ vectorstore.VectorStore = (*Client)(nil)
var _ vectorstore.Upserter = (*Client)(nil)
var _ vectorstore.IndexEnsurer = (*Client)(nil)
var _ vectorstore.FileExistsChecker = (*Client)(nil)
var _ vectorstore.Deleter = (*Client)(nil)
var _ vectorstore.Healther = (*Client)(nil)

func (c *Client) Health(ctx context.Context) error {
	if _, err := c.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant: health check: %w", err)
	}
	return nil
}

// EnsureIndexes creates the collection if it does not already exist (§4.3
// step 7, best-effort from the Ingestion Coordinator's point of view).
func (c *Client) EnsureIndexes(ctx context.Context) error {
	return c.ensureCollection(ctx)
}

func (c *Client) ensureCollection(ctx context.Context) error {
	if c.ensured {
		return nil
	}
	exists, err := c.client.CollectionExists(ctx, c.collectionName)
	if err != nil {
		return fmt.Errorf("qdrant: check collection: %w", err)
	}
	if !exists {
		if err := c.client.CreateCollection(ctx, &qd.CreateCollection{
			CollectionName: c.collectionName,
			VectorsConfig: qd.NewVectorsConfig(&qd.VectorParams{
				Size:     c.vectorDim,
				Distance: qd.Distance_Cosine,
			}),
		}); err != nil {
			return fmt.Errorf("qdrant: create collection: %w", err)
		}
	}
	c.ensured = true
	return nil
}

func (c *Client) AddDocuments(ctx context.Context, docs []document.Document) error {
	return c.write(ctx, docs)
}

// UpsertDocuments relies on the content-addressed id: the point id is set
// to the document id, so re-adding an id replaces the prior point (§3
// invariant 1, §4.3 mode=replace).
func (c *Client) UpsertDocuments(ctx context.Context, docs []document.Document) error {
	return c.write(ctx, docs)
}

func (c *Client) write(ctx context.Context, docs []document.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := c.ensureCollection(ctx); err != nil {
		return err
	}
	points := make([]*qd.PointStruct, 0, len(docs))
	for _, d := range docs {
		if c.vectorDim != 0 && len(d.Embedding) != int(c.vectorDim) {
			return fmt.Errorf("qdrant: dimension mismatch: expected %d, got %d", c.vectorDim, len(d.Embedding))
		}
		vec := make([]float32, len(d.Embedding))
		copy(vec, d.Embedding)
		points = append(points, &qd.PointStruct{
			Id: &qd.PointId{PointIdOptions: &qd.PointId_Uuid{Uuid: d.ID}},
			Vectors: &qd.Vectors{
				VectorsOptions: &qd.Vectors_Vector{Vector: &qd.Vector{Data: vec}},
			},
			Payload: buildPayload(d),
		})
	}
	wait := true
	if _, err := c.client.Upsert(ctx, &qd.UpsertPoints{
		CollectionName: c.collectionName,
		Points:         points,
		Wait:           &wait,
	}); err != nil {
		return fmt.Errorf("qdrant: upsert: %w", err)
	}
	return nil
}

func buildPayload(d document.Document) map[string]*qd.Value {
	payload := map[string]*qd.Value{
		"content": qd.NewValueString(d.Content),
	}
	for key, value := range d.MetadataMap() {
		switch v := value.(type) {
		case string:
			payload[key] = qd.NewValueString(v)
		case int:
			payload[key] = qd.NewValueInt(int64(v))
		case int64:
			payload[key] = qd.NewValueInt(v)
		case float64:
			payload[key] = qd.NewValueDouble(v)
		case bool:
			payload[key] = qd.NewValueBool(v)
		case time.Time:
			payload[key] = qd.NewValueString(v.Format(time.RFC3339))
		default:
			payload[key] = qd.NewValueString(fmt.Sprintf("%v", v))
		}
	}
	return payload
}

func (c *Client) SimilaritySearch(ctx context.Context, vector []float32, k int, filter vectorstore.Filter) ([]vectorstore.RetrievedDoc, error) {
	limit := uint64(k)
	req := &qd.QueryPoints{
		CollectionName: c.collectionName,
		Query:          qd.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qd.NewWithPayload(true),
	}
	if where := buildFilter(filter); where != nil {
		req.Filter = where
	}
	points, err := c.client.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("qdrant: query: %w", err)
	}
	return convertPoints(points), nil
}

// FileExists implements the content-addressed idempotency check (§4.3 step
// 2) as a native filtered query on fileSHA256, then a size comparison.
func (c *Client) FileExists(ctx context.Context, sha256Hex string, size int64, modTime time.Time) (bool, error) {
	if err := c.ensureCollection(ctx); err != nil {
		return false, err
	}
	limit := uint64(8)
	points, err := c.client.Query(ctx, &qd.QueryPoints{
		CollectionName: c.collectionName,
		Filter:         buildFilter(vectorstore.Filter{"fileSHA256": sha256Hex}),
		Limit:          &limit,
		WithPayload:    qd.NewWithPayload(true),
	})
	if err != nil {
		return false, fmt.Errorf("qdrant: file-exists query: %w", err)
	}
	for _, p := range points {
		if fs, ok := p.Payload["fileSize"]; ok && fs.GetIntegerValue() == size {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) DeleteDocuments(ctx context.Context, opts vectorstore.DeleteOptions) error {
	ids := append([]string{}, opts.IDs...)
	if len(opts.Filter) > 0 {
		limit := uint64(10000)
		matches, err := c.client.Query(ctx, &qd.QueryPoints{
			CollectionName: c.collectionName,
			Filter:         buildFilter(opts.Filter),
			Limit:          &limit,
			WithPayload:    qd.NewWithPayload(false),
		})
		if err != nil {
			return fmt.Errorf("qdrant: filter scan for delete: %w", err)
		}
		for _, p := range matches {
			if uid := p.Id.GetUuid(); uid != "" {
				ids = append(ids, uid)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}
	pointIDs := make([]*qd.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = &qd.PointId{PointIdOptions: &qd.PointId_Uuid{Uuid: id}}
	}
	wait := true
	op := qd.NewPointsUpdateDeletePoints(&qd.PointsUpdateOperation_DeletePoints{
		Points: &qd.PointsSelector{
			PointsSelectorOneOf: &qd.PointsSelector_Points{
				Points: &qd.PointsIdsList{Ids: pointIDs},
			},
		},
	})
	if _, err := c.client.UpdateBatch(ctx, &qd.UpdateBatchPoints{
		CollectionName: c.collectionName,
		Operations:     []*qd.PointsUpdateOperation{op},
		Wait:           &wait,
	}); err != nil {
		return fmt.Errorf("qdrant: delete: %w", err)
	}
	return nil
}

func buildFilter(filter vectorstore.Filter) *qd.Filter {
	if len(filter) == 0 {
		return nil
	}
	conditions := make([]*qd.Condition, 0, len(filter))
	for key, value := range filter {
		conditions = append(conditions, qd.NewMatch(key, fmt.Sprintf("%v", value)))
	}
	return &qd.Filter{Must: conditions}
}

func convertPoints(points []*qd.ScoredPoint) []vectorstore.RetrievedDoc {
	docs := make([]vectorstore.RetrievedDoc, 0, len(points))
	for _, p := range points {
		meta := map[string]any{}
		content := ""
		for key, value := range p.Payload {
			extracted := extractValue(value)
			if extracted == nil {
				continue
			}
			if key == "content" {
				content, _ = extracted.(string)
				continue
			}
			meta[key] = extracted
		}
		docs = append(docs, vectorstore.RetrievedDoc{
			Content:  content,
			Metadata: meta,
			Score:    float64(p.Score),
		})
	}
	return docs
}

// extractValue mirrors the teacher client's payload decoding: probe each
// accessor in turn since qd.Value has no exported discriminant, only
// GetXxxValue() methods that return the zero value when unset.
func extractValue(v *qd.Value) any {
	if s := v.GetStringValue(); s != "" {
		return s
	}
	if i := v.GetIntegerValue(); i != 0 {
		return i
	}
	if d := v.GetDoubleValue(); d != 0 {
		return d
	}
	if v.GetBoolValue() {
		return true
	}
	return nil
}
