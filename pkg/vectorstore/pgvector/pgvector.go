// Package pgvector implements vectorstore.VectorStore over PostgreSQL with
// the pgvector extension — the SQL-with-vector-extension backend named in
// §1/§6 as an external collaborator with a contract only. The table name
// comes from the column-mapping contract (§6) and is validated against the
// SQL-identifier pattern (§9) before being interpolated into any query;
// column names are fixed in the code, and metadata filter keys are quoted
// with doubled single quotes rather than validated.
package pgvector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/iamabhishek-n/vectra-go/pkg/config"
	"github.com/iamabhishek-n/vectra-go/pkg/document"
	"github.com/iamabhishek-n/vectra-go/pkg/vectorstore"
)

// Client is a pgvector-backed vectorstore.VectorStore.
type Client struct {
	pool            *pgxpool.Pool
	tableName       string
	vectorDimension int
	schemaEnsured   bool
}

// Config holds pgvector connection and schema settings.
type Config struct {
	ConnectionString string
	TableName        string
	VectorDimension  int
}

// New opens a pgx pool, registers pgvector types, and verifies the
// extension is installed. It does not create the table — that happens
// lazily on first AddDocuments/UpsertDocuments call.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ConnectionString == "" {
		return nil, fmt.Errorf("pgvector: connection string is required")
	}
	tableName := cfg.TableName
	if tableName == "" {
		tableName = "documents"
	}
	if !config.ValidIdentifier(tableName) {
		return nil, fmt.Errorf("pgvector: table name %q is not a safe SQL identifier", tableName)
	}
	dim := cfg.VectorDimension
	if dim <= 0 {
		dim = 1536
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("pgvector: parse connection string: %w", err)
	}
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("pgvector: create pool: %w", err)
	}

	var extExists bool
	if err := pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector')").Scan(&extExists); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgvector: check extension: %w", err)
	}
	if !extExists {
		pool.Close()
		return nil, fmt.Errorf("pgvector: extension not installed — run CREATE EXTENSION vector")
	}

	return &Client{pool: pool, tableName: tableName, vectorDimension: dim}, nil
}

var _ vectorstore.VectorStore = (*Client)(nil)
var _ vectorstore.Upserter = (*Client)(nil)
var _ vectorstore.IndexEnsurer = (*Client)(nil)
var _ vectorstore.FileExistsChecker = (*Client)(nil)
var _ vectorstore.Lister = (*Client)(nil)
var _ vectorstore.Deleter = (*Client)(nil)

func (c *Client) Close() error {
	c.pool.Close()
	return nil
}

func (c *Client) Health(ctx context.Context) error {
	var result int
	return c.pool.QueryRow(ctx, "SELECT 1").Scan(&result)
}

func (c *Client) ensureTable(ctx context.Context) error {
	if c.schemaEnsured {
		return nil
	}

	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			metadata JSONB,
			embedding vector(%d),
			file_sha256 TEXT,
			file_size BIGINT,
			last_modified TIMESTAMPTZ,
			absolute_path TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`, c.tableName, c.vectorDimension)
	if _, err := c.pool.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("pgvector: create table: %w", err)
	}

	if err := c.EnsureIndexes(ctx); err != nil {
		return err
	}
	c.schemaEnsured = true
	return nil
}

// EnsureIndexes creates the IVFFlat cosine-similarity index (§4.3 step 7,
// best-effort from the caller's perspective — it is the caller's job to
// swallow the error).
func (c *Client) EnsureIndexes(ctx context.Context) error {
	createIndexSQL := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
		c.tableName, c.tableName)
	_, err := c.pool.Exec(ctx, createIndexSQL)
	return err
}

func (c *Client) AddDocuments(ctx context.Context, docs []document.Document) error {
	return c.write(ctx, docs, false)
}

func (c *Client) UpsertDocuments(ctx context.Context, docs []document.Document) error {
	return c.write(ctx, docs, true)
}

func (c *Client) write(ctx context.Context, docs []document.Document, upsert bool) error {
	if len(docs) == 0 {
		return nil
	}
	if err := c.ensureTable(ctx); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, d := range docs {
		if err := vectorstore.CheckDimension(ctx, d.Embedding, c.vectorDimension); err != nil {
			return err
		}
		metadataJSON, err := json.Marshal(d.MetadataMap())
		if err != nil {
			return fmt.Errorf("pgvector: marshal metadata for %s: %w", d.ID, err)
		}

		var sql string
		if upsert {
			sql = fmt.Sprintf(`
				INSERT INTO %s (id, content, metadata, embedding, file_sha256, file_size, last_modified, absolute_path)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (id) DO UPDATE SET
					content = EXCLUDED.content, metadata = EXCLUDED.metadata,
					embedding = EXCLUDED.embedding, file_sha256 = EXCLUDED.file_sha256,
					file_size = EXCLUDED.file_size, last_modified = EXCLUDED.last_modified,
					absolute_path = EXCLUDED.absolute_path`, c.tableName)
		} else {
			sql = fmt.Sprintf(`
				INSERT INTO %s (id, content, metadata, embedding, file_sha256, file_size, last_modified, absolute_path)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (id) DO NOTHING`, c.tableName)
		}

		batch.Queue(sql, d.ID, d.Content, metadataJSON, pgvector.NewVector(d.Embedding),
			d.File.FileSHA256, d.File.FileSize, d.File.LastModified, d.File.AbsolutePath)
	}

	results := c.pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("pgvector: write document %d: %w", i, err)
		}
	}
	return nil
}

func (c *Client) SimilaritySearch(ctx context.Context, vector []float32, k int, filter vectorstore.Filter) ([]vectorstore.RetrievedDoc, error) {
	where, args := filterClause(filter, 2)
	querySQL := fmt.Sprintf(`
		SELECT content, metadata, 1 - (embedding <=> $1) AS similarity
		FROM %s
		%s
		ORDER BY embedding <=> $1
		LIMIT %d`, c.tableName, where, k)

	args = append([]any{pgvector.NewVector(vector)}, args...)
	rows, err := c.pool.Query(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("pgvector: similarity search: %w", err)
	}
	defer rows.Close()
	return scanRetrieved(rows)
}

// HybridSearch combines pgvector cosine similarity with PostgreSQL full-text
// rank as an equal-weighted sum (0.5 each) — the native lexical+semantic fusion the
// hybrid strategy (§4.5) expects from a SQL backend.
func (c *Client) HybridSearch(ctx context.Context, text string, vector []float32, k int, filter vectorstore.Filter) ([]vectorstore.RetrievedDoc, error) {
	where, args := filterClause(filter, 3)
	querySQL := fmt.Sprintf(`
		SELECT content, metadata,
			(1 - (embedding <=> $1)) * 0.5 + COALESCE(ts_rank(to_tsvector('english', content), plainto_tsquery('english', $2)), 0) * 0.5 AS score
		FROM %s
		%s
		ORDER BY score DESC
		LIMIT %d`, c.tableName, where, k)

	args = append([]any{pgvector.NewVector(vector), text}, args...)
	rows, err := c.pool.Query(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("pgvector: hybrid search: %w", err)
	}
	defer rows.Close()
	return scanRetrieved(rows)
}

func scanRetrieved(rows pgx.Rows) ([]vectorstore.RetrievedDoc, error) {
	var out []vectorstore.RetrievedDoc
	for rows.Next() {
		var content string
		var metadataJSON []byte
		var score float64
		if err := rows.Scan(&content, &metadataJSON, &score); err != nil {
			return nil, fmt.Errorf("pgvector: scan row: %w", err)
		}
		var metadata map[string]any
		if len(metadataJSON) > 0 {
			_ = json.Unmarshal(metadataJSON, &metadata)
		}
		out = append(out, vectorstore.RetrievedDoc{Content: content, Metadata: metadata, Score: score})
	}
	return out, rows.Err()
}

func (c *Client) FileExists(ctx context.Context, sha256Hex string, size int64, modTime time.Time) (bool, error) {
	var exists bool
	querySQL := fmt.Sprintf(`
		SELECT EXISTS(SELECT 1 FROM %s WHERE file_sha256 = $1 AND file_size = $2 AND last_modified = $3)`,
		c.tableName)
	err := c.pool.QueryRow(ctx, querySQL, sha256Hex, size, modTime).Scan(&exists)
	return exists, err
}

func (c *Client) ListDocuments(ctx context.Context, opts vectorstore.ListOptions) ([]vectorstore.DocRow, error) {
	where, args := filterClause(opts.Filter, 1)
	querySQL := fmt.Sprintf(`
		SELECT id, content, metadata, created_at FROM %s %s
		ORDER BY id LIMIT %d OFFSET %d`, c.tableName, where, limitOrDefault(opts.Limit), opts.Offset)

	rows, err := c.pool.Query(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("pgvector: list documents: %w", err)
	}
	defer rows.Close()

	var out []vectorstore.DocRow
	for rows.Next() {
		var row vectorstore.DocRow
		var metadataJSON []byte
		if err := rows.Scan(&row.ID, &row.Content, &metadataJSON, &row.Created); err != nil {
			return nil, fmt.Errorf("pgvector: scan list row: %w", err)
		}
		if len(metadataJSON) > 0 {
			_ = json.Unmarshal(metadataJSON, &row.Metadata)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (c *Client) DeleteDocuments(ctx context.Context, opts vectorstore.DeleteOptions) error {
	if len(opts.IDs) > 0 {
		sql := fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1)", c.tableName)
		if _, err := c.pool.Exec(ctx, sql, opts.IDs); err != nil {
			return fmt.Errorf("pgvector: delete by id: %w", err)
		}
	}
	if opts.Filter != nil {
		where, args := filterClause(opts.Filter, 1)
		if where != "" {
			sql := fmt.Sprintf("DELETE FROM %s %s", c.tableName, where)
			if _, err := c.pool.Exec(ctx, sql, args...); err != nil {
				return fmt.Errorf("pgvector: delete by filter: %w", err)
			}
		}
	}
	return nil
}

// filterClause builds a "WHERE metadata->>'k' = $n" clause from a
// conjunctive equality filter, starting parameter numbering at argStart.
func filterClause(filter vectorstore.Filter, argStart int) (string, []any) {
	if len(filter) == 0 {
		return "", nil
	}
	clause := " WHERE "
	args := make([]any, 0, len(filter))
	i := 0
	for k, v := range filter {
		if i > 0 {
			clause += " AND "
		}
		clause += fmt.Sprintf("metadata->>'%s' = $%d", strings.ReplaceAll(k, "'", "''"), argStart+i)
		args = append(args, fmt.Sprintf("%v", v))
		i++
	}
	return clause, args
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return 100
	}
	return limit
}
