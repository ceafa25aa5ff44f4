// Package document defines the immutable data model shared by ingestion and
// retrieval: Chunk, ChunkMetadata, and the persisted Document record (§3).
package document

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// namespace is the fixed DNS-namespaced UUID derived from the literal string
// "vectra-js". Every content-addressed document id is a UUIDv5 under this
// namespace — preserved exactly for cross-implementation id stability (§6).
var namespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("vectra-js"))

// Chunk is an immutable text segment derived from a single source document.
type Chunk struct {
	Content      string
	PositionFrom int // byte offset, inclusive
	PositionTo   int // byte offset, exclusive
	ChunkIndex   int // non-negative, dense within a file
	SHA256       string
}

// NewChunk computes the content hash and returns a Chunk.
func NewChunk(content string, from, to, index int) Chunk {
	return Chunk{
		Content:      content,
		PositionFrom: from,
		PositionTo:   to,
		ChunkIndex:   index,
		SHA256:       Sha256Hex(content),
	}
}

// Sha256Hex returns the hex digest of content's SHA-256 sum.
func Sha256Hex(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// ChunkMetadata carries per-chunk positional and enrichment metadata (§3).
type ChunkMetadata struct {
	FileType  string
	DocTitle  string
	PageFrom  int // 1-based; 0 means "not paged"
	PageTo    int // 1-based; 0 means "not paged"
	Section   string

	// Enrichment triple, populated only when metadata.enrichment is on.
	Summary               string
	Keywords              []string
	HypotheticalQuestions []string
}

// FileMetadata carries the per-file attributes that must be present on every
// chunk's metadata for that file (§3 invariant 4).
type FileMetadata struct {
	Source       string
	AbsolutePath string
	FileMD5      string
	FileSHA256   string
	FileSize     int64
	LastModified time.Time
}

// Document is the stored, embedded record persisted to a VectorStore.
type Document struct {
	ID        string
	Content   string
	Embedding []float32 // L2-normalized, fixed dimension D
	File      FileMetadata
	Chunk     ChunkMetadata
	Metadata  map[string]any // free-form passthrough for VectorStore filters
}

// DeterministicID returns the UUIDv5 id for a (fileSHA256, chunkIndex) pair.
// For a given pair the id is deterministic and stable across re-ingests
// (§3 invariant 1, §8 scenario 1).
func DeterministicID(fileSHA256 string, chunkIndex int) string {
	name := fmt.Sprintf("%s:%d", fileSHA256, chunkIndex)
	return uuid.NewSHA1(namespace, []byte(name)).String()
}

// MetadataMap flattens File and Chunk metadata into the map[string]any shape
// persisted alongside content and embedding (§6 column-mapping contract).
func (d Document) MetadataMap() map[string]any {
	m := map[string]any{
		"source":        d.File.Source,
		"absolutePath":  d.File.AbsolutePath,
		"fileMD5":       d.File.FileMD5,
		"fileSHA256":    d.File.FileSHA256,
		"fileSize":      d.File.FileSize,
		"lastModified":  d.File.LastModified,
		"fileType":      d.Chunk.FileType,
		"docTitle":      d.Chunk.DocTitle,
		"section":       d.Chunk.Section,
	}
	if d.Chunk.PageFrom > 0 {
		m["pageFrom"] = d.Chunk.PageFrom
		m["pageTo"] = d.Chunk.PageTo
	}
	if d.Chunk.Summary != "" {
		m["summary"] = d.Chunk.Summary
	}
	if len(d.Chunk.Keywords) > 0 {
		m["keywords"] = d.Chunk.Keywords
	}
	if len(d.Chunk.HypotheticalQuestions) > 0 {
		m["hypotheticalQuestions"] = d.Chunk.HypotheticalQuestions
	}
	for k, v := range d.Metadata {
		m[k] = v
	}
	return m
}
