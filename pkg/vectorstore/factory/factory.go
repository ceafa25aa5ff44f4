// Package factory dispatches on a DatabaseConfig's Type to build a
// concrete vectorstore.VectorStore. It lives outside pkg/vectorstore
// because it imports every backend adapter, each of which imports
// vectorstore itself (§4.1, §6).
package factory

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/iamabhishek-n/vectra-go/pkg/config"
	"github.com/iamabhishek-n/vectra-go/pkg/vectorstore"
	"github.com/iamabhishek-n/vectra-go/pkg/vectorstore/badger"
	"github.com/iamabhishek-n/vectra-go/pkg/vectorstore/pgvector"
	"github.com/iamabhishek-n/vectra-go/pkg/vectorstore/qdrant"
	"github.com/iamabhishek-n/vectra-go/pkg/vectorstore/weaviate"
)

// New builds a VectorStore from a DatabaseConfig, dispatching on Type
// (§4.1, §6). Connection details that don't fit the column-mapping
// contract (DSNs, hosts) are read from ColumnMap overrides; pgvector falls
// back to DATABASE_URL, qdrant to QDRANT_URL and badger to ./vectra-data,
// while weaviate has no fallback.
func New(ctx context.Context, cfg config.DatabaseConfig) (vectorstore.VectorStore, error) {
	switch cfg.Type {
	case "pgvector":
		conn := cfg.ColumnMap["connectionString"]
		if conn == "" {
			conn = os.Getenv("DATABASE_URL")
		}
		return pgvector.New(ctx, pgvector.Config{
			ConnectionString: conn,
			TableName:        cfg.TableName,
		})
	case "weaviate":
		return weaviate.New(ctx, weaviate.Config{
			Host:      cfg.ColumnMap["host"],
			Scheme:    cfg.ColumnMap["scheme"],
			APIKey:    cfg.ColumnMap["apiKey"],
			ClassName: cfg.TableName,
		})
	case "qdrant":
		url := cfg.ColumnMap["url"]
		if url == "" {
			url = os.Getenv("QDRANT_URL")
		}
		dim := 0
		if d, err := strconv.Atoi(cfg.ColumnMap["vectorDimension"]); err == nil {
			dim = d
		}
		return qdrant.New(qdrant.Config{
			URL:             url,
			APIKey:          cfg.ColumnMap["apiKey"],
			CollectionName:  cfg.TableName,
			VectorDimension: dim,
		})
	case "badger":
		path := cfg.ColumnMap["path"]
		if path == "" {
			path = "./vectra-data"
		}
		return badger.New(path)
	case "mock":
		return vectorstore.NewMock(), nil
	default:
		return nil, fmt.Errorf("vectorstore: unknown type %q", cfg.Type)
	}
}
