package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/iamabhishek-n/vectra-go/pkg/helpers"
	"github.com/joho/godotenv"
)

// Load reads a YAML configuration file, merges it onto Default(), overlays
// API keys and ingestion settings from the process environment (via an
// optional .env file, loaded best-effort), and validates the result.
//
// Example:
//
//	cfg, err := config.Load("vectra.yaml")
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // best-effort; absence of .env is not an error

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, invalidConfig(path, fmt.Sprintf("yaml parse error: %v", err))
	}

	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides replaces the API keys, ingestion concurrency limit and
// rate-limit flag with the values of well-known environment variables when
// those are set and non-empty (an unparseable int or bool is ignored),
// matching the teacher's GetStringFromEnv pattern.
func applyEnvOverrides(cfg *Config) {
	cfg.Embedding.APIKey = helpers.GetStringFromEnv("VECTRA_EMBEDDING_API_KEY", cfg.Embedding.APIKey)
	cfg.LLM.APIKey = helpers.GetStringFromEnv("VECTRA_LLM_API_KEY", cfg.LLM.APIKey)
	cfg.Ingestion.ConcurrencyLimit = helpers.GetIntFromEnv("VECTRA_INGEST_CONCURRENCY", cfg.Ingestion.ConcurrencyLimit)
	cfg.Ingestion.RateLimitEnabled = helpers.GetBoolFromEnv("VECTRA_INGEST_RATE_LIMIT", cfg.Ingestion.RateLimitEnabled)
}
