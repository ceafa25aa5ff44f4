// Package ingest implements the Ingestion Coordinator (§4.3): stat files,
// compute a content fingerprint, detect duplicates, batch-embed with
// bounded concurrency and retry, enrich metadata, and upsert to the
// configured VectorStore.
package ingest

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iamabhishek-n/vectra-go/pkg/config"
	"github.com/iamabhishek-n/vectra-go/pkg/docloader"
	"github.com/iamabhishek-n/vectra-go/pkg/document"
	"github.com/iamabhishek-n/vectra-go/pkg/embedcache"
	"github.com/iamabhishek-n/vectra-go/pkg/llmbackend"
	"github.com/iamabhishek-n/vectra-go/pkg/retry"
	"github.com/iamabhishek-n/vectra-go/pkg/vectorstore"
)

// Summary is the result of ingesting a directory (§4.3).
type Summary struct {
	Processed int
	Succeeded int
	Failed    int
	Errors    []error
}

// Coordinator runs the ingestion pipeline against a single VectorStore.
type Coordinator struct {
	Store         vectorstore.VectorStore
	Loader        *docloader.Registry
	Cache         *embedcache.Cache
	EmbedBackend  llmbackend.LanguageBackend
	ChunkBackend  llmbackend.LanguageBackend // only used when chunking.strategy=agentic
	EnrichBackend llmbackend.LanguageBackend // only used when metadata.enrichment=true
	Config        config.Config
	Callbacks     *Callbacks
}

// isSkippable reports whether a file name should be silently skipped
// during directory traversal: hidden files and temp markers (§4.3).
func isSkippable(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	if strings.HasPrefix(name, "~$") {
		return true
	}
	for _, suffix := range []string{".tmp", ".temp", ".crdownload", ".part"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// IngestDirectory walks dir non-recursively (§9 open question: the source
// is non-recursive in implementation despite recursive documentation — the
// implementation behavior is preserved here), ingesting every regular,
// non-skippable file, in directory order, isolating per-file failures into
// the returned Summary (§4.3, §5).
func (c *Coordinator) IngestDirectory(ctx context.Context, dir string) (Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Summary{}, fmt.Errorf("ingest: read dir %s: %w", dir, err)
	}

	var summary Summary
	for _, entry := range entries {
		if entry.IsDir() || isSkippable(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		summary.Processed++

		if err := c.IngestFile(ctx, path); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Errorf("%s: %w", path, err))
			c.Callbacks.onError(path, err)
			continue
		}
		summary.Succeeded++
	}

	c.Callbacks.ingestSummary(summary)
	return summary, nil
}

// IngestFile runs the full per-file pipeline described by §4.3 steps 1-9.
func (c *Coordinator) IngestFile(ctx context.Context, path string) error {
	c.Callbacks.ingestStart(path)
	defer c.Callbacks.ingestEnd(path)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	md5Hex, sha256Hex, err := hashFile(path)
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}

	mode := c.Config.Ingestion.Mode
	if mode == config.ModeSkip {
		if exists, err := c.fileExists(ctx, sha256Hex, info.Size(), info.ModTime()); err == nil && exists {
			c.Callbacks.ingestSkipped(path)
			return nil
		}
	}

	loaded, err := c.Loader.Load(ctx, path)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	c.Callbacks.chunkingStart(path)
	chunkBackend := c.ChunkBackend
	if c.Config.Chunking.Strategy != config.ChunkingAgentic {
		chunkBackend = nil
	}
	chunks := document.ChunkText(ctx, loaded.Text, c.Config.Chunking, chunkBackend)
	chunks = document.ComputePositions(loaded.Text, chunks)

	fileMeta := document.FileMetadata{
		Source:       filepath.Base(path),
		AbsolutePath: mustAbs(path),
		FileMD5:      md5Hex,
		FileSHA256:   sha256Hex,
		FileSize:     info.Size(),
		LastModified: info.ModTime(),
	}
	docTitle := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	fileType := filepath.Ext(path)

	docs, err := c.embedAndBuild(ctx, path, loaded, chunks, fileMeta, fileType, docTitle)
	if err != nil {
		return err
	}

	if ensurer, ok := vectorstore.HasEnsureIndexes(c.Store); ok {
		_ = ensurer.EnsureIndexes(ctx) // best-effort (§4.3 step 7)
	}

	if mode == config.ModeSkip {
		if exists, err := c.fileExists(ctx, sha256Hex, info.Size(), info.ModTime()); err == nil && exists {
			c.Callbacks.ingestSkipped(path)
			return nil
		}
	}

	return c.writeDocs(ctx, mode, fileMeta.AbsolutePath, docs)
}

func (c *Coordinator) fileExists(ctx context.Context, sha256Hex string, size int64, modTime time.Time) (bool, error) {
	checker, ok := vectorstore.HasFileExists(c.Store)
	if !ok {
		return false, nil // degrade gracefully per §6
	}
	return checker.FileExists(ctx, sha256Hex, size, modTime)
}

// embedAndBuild hashes every chunk, batches the cache misses with bounded
// concurrency and retry, populates the cache, optionally enriches
// metadata, and returns the fully built Document slice (§4.3 steps 4-6).
func (c *Coordinator) embedAndBuild(ctx context.Context, path string, loaded docloader.Loaded, chunks []document.Chunk, fileMeta document.FileMetadata, fileType, docTitle string) ([]document.Document, error) {
	hashes := make([]string, len(chunks))
	for i, ch := range chunks {
		hashes[i] = ch.SHA256
	}
	missing := c.Cache.Missing(hashes)

	if len(missing) > 0 {
		if err := c.embedMissing(ctx, path, chunks, missing); err != nil {
			return nil, err
		}
	}

	docs := make([]document.Document, len(chunks))
	for i, ch := range chunks {
		vec, ok := c.Cache.Get(ch.SHA256)
		if !ok {
			return nil, fmt.Errorf("chunk %d: embedding missing from cache after embed step", ch.ChunkIndex)
		}
		vec = vectorstore.Normalize(vec)

		meta := document.BuildChunkMetadata(loaded.Text, loaded.Pages, fileType, docTitle, ch)
		if c.Config.Metadata.Enrichment {
			summary, keywords, hq := document.Enrich(ctx, ch.Content, c.EnrichBackend)
			meta.Summary, meta.Keywords, meta.HypotheticalQuestions = summary, keywords, hq
		}

		docs[i] = document.Document{
			ID:        document.DeterministicID(fileMeta.FileSHA256, ch.ChunkIndex),
			Content:   ch.Content,
			Embedding: vec,
			File:      fileMeta,
			Chunk:     meta,
		}
	}
	return docs, nil
}

// embedMissing batches content-hash misses into groups sized by
// concurrencyLimit (when rate limiting is enabled, else one batch holding
// everything), embedding each batch with the fixed retry/backoff schedule
// (§4.3 step 4, §7).
func (c *Coordinator) embedMissing(ctx context.Context, path string, chunks []document.Chunk, missing []string) error {
	missingSet := make(map[string]bool, len(missing))
	for _, h := range missing {
		missingSet[h] = true
	}

	var toEmbed []document.Chunk
	for _, ch := range chunks {
		if missingSet[ch.SHA256] {
			toEmbed = append(toEmbed, ch)
		}
	}

	limit := len(toEmbed)
	if c.Config.Ingestion.RateLimitEnabled {
		limit = c.Config.Ingestion.ConcurrencyLimit
	}
	if limit <= 0 {
		limit = len(toEmbed)
	}

	for start := 0; start < len(toEmbed); start += limit {
		end := start + limit
		if end > len(toEmbed) {
			end = len(toEmbed)
		}
		batch := toEmbed[start:end]
		c.Callbacks.embeddingStart(path, len(batch))

		texts := make([]string, len(batch))
		for i, ch := range batch {
			texts[i] = ch.Content
		}

		var vectors [][]float32
		err := retry.Do(ctx, isRetryableProviderError, func(int) error {
			v, err := c.EmbedBackend.EmbedDocuments(ctx, texts)
			if err != nil {
				return err
			}
			vectors = v
			return nil
		})
		if err != nil {
			return fmt.Errorf("embed batch: %w", err)
		}

		for i, ch := range batch {
			c.Cache.Set(ch.SHA256, vectors[i])
		}
	}
	return nil
}

func isRetryableProviderError(err error) bool {
	if pe, ok := err.(*llmbackend.ProviderError); ok {
		return pe.Retryable
	}
	return true // unknown error shapes are treated as retryable by default
}

// writeDocs dispatches on ingestion mode (§4.3 step 9): replace deletes
// existing records for this file before upserting; append/skip just add.
// The upsert/add call itself is attempted up to 3 times (retry.Do).
func (c *Coordinator) writeDocs(ctx context.Context, mode config.IngestionMode, absolutePath string, docs []document.Document) error {
	if mode == config.ModeReplace {
		if deleter, ok := vectorstore.HasDelete(c.Store); ok {
			if err := deleter.DeleteDocuments(ctx, vectorstore.DeleteOptions{
				Filter: vectorstore.Filter{"absolutePath": absolutePath},
			}); err != nil {
				return fmt.Errorf("delete existing: %w", err)
			}
		}
	}

	return retry.Do(ctx, alwaysRetryable, func(int) error {
		if up, ok := vectorstore.HasUpsert(c.Store); ok {
			return up.UpsertDocuments(ctx, docs)
		}
		return c.Store.AddDocuments(ctx, docs)
	})
}

func alwaysRetryable(error) bool { return true }

func hashFile(path string) (md5Hex, sha256Hex string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	md5h := md5.New()
	sha := sha256.New()
	if _, err := io.Copy(io.MultiWriter(md5h, sha), f); err != nil {
		return "", "", err
	}
	return hex.EncodeToString(md5h.Sum(nil)), hex.EncodeToString(sha.Sum(nil)), nil
}

func mustAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
