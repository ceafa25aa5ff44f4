package config

import "testing"

func TestValidate_DefaultConfigIsValid(t *testing.T) {
	c := Default()
	if err := Validate(&c); err != nil {
		t.Fatalf("Default() config should validate cleanly: %v", err)
	}
}

func TestValidate_AgenticChunkingRequiresLLM(t *testing.T) {
	c := Default()
	c.Chunking.Strategy = ChunkingAgentic
	c.Chunking.AgenticLLM = nil
	if err := Validate(&c); err == nil {
		t.Fatal("expected InvalidConfig when agentic chunking has no agenticLlm")
	}
	c.Chunking.AgenticLLM = &LLMConfig{Provider: "openai", Model: "gpt-4o-mini"}
	if err := Validate(&c); err != nil {
		t.Errorf("agentic chunking with agenticLlm set should validate, got %v", err)
	}
}

func TestValidate_HydeRequiresLLMConfig(t *testing.T) {
	c := Default()
	c.Retrieval.Strategy = RetrievalHyDE
	c.Retrieval.LLM = nil
	if err := Validate(&c); err == nil {
		t.Fatal("expected InvalidConfig when hyde strategy has no llmConfig")
	}
	c.Retrieval.LLM = &LLMConfig{Provider: "openai", Model: "gpt-4o-mini"}
	if err := Validate(&c); err != nil {
		t.Errorf("hyde with llmConfig set should validate, got %v", err)
	}
}

func TestValidate_MultiQueryRequiresLLMConfig(t *testing.T) {
	c := Default()
	c.Retrieval.Strategy = RetrievalMultiQuery
	c.Retrieval.LLM = nil
	if err := Validate(&c); err == nil {
		t.Fatal("expected InvalidConfig when multi-query strategy has no llmConfig")
	}
}

func TestValidate_NaiveStrategyDoesNotRequireLLM(t *testing.T) {
	c := Default()
	c.Retrieval.Strategy = RetrievalNaive
	c.Retrieval.LLM = nil
	if err := Validate(&c); err != nil {
		t.Errorf("naive strategy should not require llmConfig, got %v", err)
	}
}

func TestValidate_MMRLambdaOutOfRange(t *testing.T) {
	for _, lambda := range []float64{-0.1, 1.1} {
		c := Default()
		c.Retrieval.MMRLambda = lambda
		if err := Validate(&c); err == nil {
			t.Errorf("expected InvalidConfig for mmrLambda=%v", lambda)
		}
	}
}

func TestValidate_RerankingEnabledRequiresLLM(t *testing.T) {
	c := Default()
	c.Reranking.Enabled = true
	c.Reranking.LLM = nil
	if err := Validate(&c); err == nil {
		t.Fatal("expected InvalidConfig when reranking is enabled without llmConfig")
	}
}

func TestValidate_UnknownIngestionModeRejected(t *testing.T) {
	c := Default()
	c.Ingestion.Mode = "overwrite-everything"
	if err := Validate(&c); err == nil {
		t.Fatal("expected InvalidConfig for an unenumerated ingestion mode")
	}
}

func TestValidate_MemoryEnabledRequiresKnownKind(t *testing.T) {
	c := Default()
	c.Memory.Enabled = true
	c.Memory.Kind = "filesystem"
	if err := Validate(&c); err == nil {
		t.Fatal("expected InvalidConfig for an unenumerated memory kind")
	}
}

func TestValidate_DatabaseIdentifiersMustBeSafe(t *testing.T) {
	c := Default()
	c.Database.TableName = "documents; DROP TABLE users;--"
	if err := Validate(&c); err == nil {
		t.Fatal("expected InvalidConfig for an unsafe table name")
	}
}

func TestValidate_DatabaseColumnMapKeysMustBeSafe(t *testing.T) {
	c := Default()
	c.Database.TableName = "documents"
	c.Database.ColumnMap = map[string]string{"content; DROP TABLE x": "value"}
	if err := Validate(&c); err == nil {
		t.Fatal("expected InvalidConfig for an unsafe column identifier")
	}
}

func TestValidIdentifier(t *testing.T) {
	valid := []string{"documents", "_private", "col_1"}
	invalid := []string{"1col", "a-b", "a;b", ""}
	for _, v := range valid {
		if !ValidIdentifier(v) {
			t.Errorf("ValidIdentifier(%q) = false, want true", v)
		}
	}
	for _, v := range invalid {
		if ValidIdentifier(v) {
			t.Errorf("ValidIdentifier(%q) = true, want false", v)
		}
	}
}
