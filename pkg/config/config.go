// Package config validates and normalizes the orchestrator's configuration
// tree. A Config is built once at startup via Load or Default and is treated as
// immutable afterward; every enumerated choice (chunking strategy, retrieval
// strategy, ingestion mode, memory kind) is checked against its allowed set
// so that unsupported combinations fail fast at construction instead of at
// first use.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/iamabhishek-n/vectra-go/pkg/calque"
)

// ChunkingStrategy selects how raw document text is split into chunks.
type ChunkingStrategy string

const (
	ChunkingRecursive ChunkingStrategy = "recursive"
	ChunkingAgentic   ChunkingStrategy = "agentic"
)

// RetrievalStrategy selects the retriever dispatch path.
type RetrievalStrategy string

const (
	RetrievalNaive      RetrievalStrategy = "naive"
	RetrievalHyDE       RetrievalStrategy = "hyde"
	RetrievalMultiQuery RetrievalStrategy = "multi-query"
	RetrievalHybrid     RetrievalStrategy = "hybrid"
	RetrievalMMR        RetrievalStrategy = "mmr"
)

// IngestionMode selects upsert semantics for re-ingested files.
type IngestionMode string

const (
	ModeSkip    IngestionMode = "skip"
	ModeAppend  IngestionMode = "append"
	ModeReplace IngestionMode = "replace"
)

// MemoryKind selects the HistoryStore backend family.
type MemoryKind string

const (
	MemoryInMemory   MemoryKind = "in-memory"
	MemoryKV         MemoryKind = "kv"
	MemoryRelational MemoryKind = "relational"
)

// OutputFormat selects how the generation driver post-processes the answer.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// EmbeddingConfig configures the embedding-capable LanguageBackend.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"apiKey,omitempty"`
	Dimensions int    `yaml:"dimensions,omitempty"`
}

// LLMConfig configures a generation-capable LanguageBackend.
type LLMConfig struct {
	Provider       string            `yaml:"provider"`
	Model          string            `yaml:"model"`
	APIKey         string            `yaml:"apiKey,omitempty"`
	Temperature    float64           `yaml:"temperature"`
	MaxTokens      int               `yaml:"maxTokens"`
	BaseURL        string            `yaml:"baseUrl,omitempty"`
	DefaultHeaders map[string]string `yaml:"defaultHeaders,omitempty"`
}

// ChunkingConfig configures the Document Processor (§4.2).
type ChunkingConfig struct {
	Strategy     ChunkingStrategy `yaml:"strategy"`
	ChunkSize    int              `yaml:"chunkSize"`
	ChunkOverlap int              `yaml:"chunkOverlap"`
	Separators   []string         `yaml:"separators,omitempty"`
	AgenticLLM   *LLMConfig       `yaml:"agenticLlm,omitempty"`
}

// RetrievalConfig configures the Retriever (§4.5).
type RetrievalConfig struct {
	Strategy  RetrievalStrategy `yaml:"strategy"`
	LLM       *LLMConfig        `yaml:"llmConfig,omitempty"`
	MMRLambda float64           `yaml:"mmrLambda"`
	MMRFetchK int               `yaml:"mmrFetchK"`
}

// RerankingConfig configures the Reranker (§4.6).
type RerankingConfig struct {
	Enabled    bool       `yaml:"enabled"`
	TopN       int        `yaml:"topN"`
	WindowSize int        `yaml:"windowSize"`
	LLM        *LLMConfig `yaml:"llmConfig,omitempty"`
}

// MetadataConfig configures ingestion-time metadata enrichment (§4.3 step 6).
type MetadataConfig struct {
	Enrichment bool `yaml:"enrichment"`
}

// QueryPlanningConfig configures the Context Planner (§4.7).
type QueryPlanningConfig struct {
	TokenBudget          int  `yaml:"tokenBudget"`
	PreferSummariesBelow int  `yaml:"preferSummariesBelow"`
	IncludeCitations     bool `yaml:"includeCitations"`
}

// GroundingConfig configures Grounding (§4.8).
type GroundingConfig struct {
	Enabled     bool `yaml:"enabled"`
	Strict      bool `yaml:"strict"`
	MaxSnippets int  `yaml:"maxSnippets"`
}

// GenerationConfig configures the Generation Driver (§4.9).
type GenerationConfig struct {
	OutputFormat OutputFormat `yaml:"outputFormat"`

	// Schema is a JSON Schema document (the dialect
	// github.com/google/jsonschema-go/jsonschema implements) the parsed
	// answer's top-level object must satisfy when OutputFormat is "json".
	// Left nil, no schema check runs.
	Schema map[string]any `yaml:"schema,omitempty"`
}

// PromptsConfig carries optional prompt template overrides.
type PromptsConfig struct {
	Query string `yaml:"query,omitempty"`
}

// IngestionConfig configures the Ingestion Coordinator (§4.3).
type IngestionConfig struct {
	Mode             IngestionMode `yaml:"mode"`
	RateLimitEnabled bool          `yaml:"rateLimitEnabled"`
	ConcurrencyLimit int           `yaml:"concurrencyLimit"`
}

// MemoryConfig configures the History Adapter (§4.11 / §6).
type MemoryConfig struct {
	Enabled     bool       `yaml:"enabled"`
	Kind        MemoryKind `yaml:"kind"`
	MaxMessages int        `yaml:"maxMessages"`
}

// DatabaseConfig describes the column-mapping contract for a VectorStore
// backend that persists through a SQL-like or table-shaped client.
type DatabaseConfig struct {
	Type           string            `yaml:"type"`
	ClientInstance any               `yaml:"-"`
	TableName      string            `yaml:"tableName"`
	ColumnMap      map[string]string `yaml:"columnMap"`
}

// Config is the fully validated, normalized configuration tree.
type Config struct {
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	LLM           LLMConfig           `yaml:"llm"`
	Chunking      ChunkingConfig      `yaml:"chunking"`
	Retrieval     RetrievalConfig     `yaml:"retrieval"`
	Reranking     RerankingConfig     `yaml:"reranking"`
	Metadata      MetadataConfig      `yaml:"metadata"`
	QueryPlanning QueryPlanningConfig `yaml:"queryPlanning"`
	Grounding     GroundingConfig     `yaml:"grounding"`
	Generation    GenerationConfig    `yaml:"generation"`
	Prompts       PromptsConfig       `yaml:"prompts"`
	Ingestion     IngestionConfig     `yaml:"ingestion"`
	Memory        MemoryConfig        `yaml:"memory"`
	Database      DatabaseConfig      `yaml:"database"`
}

// identifierPattern is the SQL-identifier safety check from spec §9: any
// backend that admits user-supplied table/column names must validate
// against this before interpolating them into a query.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name is safe to use as a bare SQL
// identifier (table or column name) without quoting-related injection risk.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// Default returns a Config with the same baseline defaults the orchestrator
// falls back to when a field is left at its zero value by the caller.
func Default() Config {
	return Config{
		Chunking: ChunkingConfig{
			Strategy:     ChunkingRecursive,
			ChunkSize:    1000,
			ChunkOverlap: 100,
		},
		Retrieval: RetrievalConfig{
			Strategy:  RetrievalNaive,
			MMRLambda: 0.5,
			MMRFetchK: 20,
		},
		Reranking: RerankingConfig{
			WindowSize: 5,
		},
		QueryPlanning: QueryPlanningConfig{
			TokenBudget:          2000,
			PreferSummariesBelow: 200,
		},
		Grounding: GroundingConfig{
			MaxSnippets: 3,
		},
		Generation: GenerationConfig{
			OutputFormat: OutputText,
		},
		Ingestion: IngestionConfig{
			Mode:             ModeAppend,
			ConcurrencyLimit: 4,
		},
		Memory: MemoryConfig{
			MaxMessages: 20,
		},
	}
}

// Validate normalizes and checks a Config tree, returning an InvalidConfig
// *calque.Error for the first problem found. It enumerates every choice
// exactly as spec.md §4.1 requires: chunking.agenticLlm is required iff
// strategy=agentic, retrieval.llmConfig is required iff strategy is hyde or
// multi-query, and every enumerated field must be one of its allowed values.
func Validate(c *Config) error {
	if err := validateEnum("chunking.strategy", string(c.Chunking.Strategy), []string{
		string(ChunkingRecursive), string(ChunkingAgentic),
	}); err != nil {
		return err
	}
	if c.Chunking.Strategy == ChunkingAgentic && c.Chunking.AgenticLLM == nil {
		return invalidConfig("chunking.agenticLlm", "required when chunking.strategy is agentic")
	}
	if c.Chunking.ChunkSize <= 0 {
		return invalidConfig("chunking.chunkSize", "must be positive")
	}
	if c.Chunking.ChunkOverlap < 0 {
		return invalidConfig("chunking.chunkOverlap", "must be non-negative")
	}

	if err := validateEnum("retrieval.strategy", string(c.Retrieval.Strategy), []string{
		string(RetrievalNaive), string(RetrievalHyDE), string(RetrievalMultiQuery),
		string(RetrievalHybrid), string(RetrievalMMR),
	}); err != nil {
		return err
	}
	needsLLM := c.Retrieval.Strategy == RetrievalHyDE || c.Retrieval.Strategy == RetrievalMultiQuery
	if needsLLM && c.Retrieval.LLM == nil {
		return invalidConfig("retrieval.llmConfig", "required when retrieval.strategy is hyde or multi-query")
	}
	if c.Retrieval.MMRLambda < 0 || c.Retrieval.MMRLambda > 1 {
		return invalidConfig("retrieval.mmrLambda", "must be within [0,1]")
	}

	if c.Reranking.Enabled && c.Reranking.LLM == nil {
		return invalidConfig("reranking.llmConfig", "required when reranking.enabled is true")
	}

	if err := validateEnum("ingestion.mode", string(c.Ingestion.Mode), []string{
		string(ModeSkip), string(ModeAppend), string(ModeReplace),
	}); err != nil {
		return err
	}
	if c.Ingestion.ConcurrencyLimit <= 0 {
		return invalidConfig("ingestion.concurrencyLimit", "must be positive")
	}

	if c.Memory.Enabled {
		if err := validateEnum("memory.kind", string(c.Memory.Kind), []string{
			string(MemoryInMemory), string(MemoryKV), string(MemoryRelational),
		}); err != nil {
			return err
		}
		if c.Memory.MaxMessages <= 0 {
			return invalidConfig("memory.maxMessages", "must be positive")
		}
	}

	if err := validateEnum("generation.outputFormat", string(c.Generation.OutputFormat), []string{
		string(OutputText), string(OutputJSON),
	}); err != nil {
		return err
	}

	if c.Database.TableName != "" && !ValidIdentifier(c.Database.TableName) {
		return invalidConfig("database.tableName", "must match ^[A-Za-z_][A-Za-z0-9_]*$")
	}
	for col := range c.Database.ColumnMap {
		if !ValidIdentifier(col) {
			return invalidConfig("database.columnMap", fmt.Sprintf("column identifier %q is not a safe SQL identifier", col))
		}
	}

	return nil
}

func validateEnum(path, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return invalidConfig(path, fmt.Sprintf("must be one of %v, got %q", allowed, value))
}

// invalidConfig builds the fatal, never-retried InvalidConfig error from §7.
func invalidConfig(path, reason string) error {
	return calque.NewErr(context.Background(), fmt.Sprintf("invalid config at %s: %s", path, reason)).
		Tag(slog.String("field", path)).Tag(slog.String("reason", reason))
}
