// Package generate implements the Generation Driver (§4.9): prompt
// assembly, conversation-history merging, and invoking generation
// (non-streaming or streaming) against a LanguageBackend.
package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	googleschema "github.com/google/jsonschema-go/jsonschema"

	"github.com/iamabhishek-n/vectra-go/pkg/config"
	"github.com/iamabhishek-n/vectra-go/pkg/history"
	"github.com/iamabhishek-n/vectra-go/pkg/llmbackend"
)

// SystemInstruction is the literal system prompt every generation call
// carries (§4.9).
const SystemInstruction = "You are a helpful RAG assistant."

const defaultQueryPrompt = "Answer the question using the provided summaries and cite titles/sections/pages where relevant."

// Result is the non-streaming generation outcome (§4.9): answer plus
// source metadata for every doc that fed the context.
type Result struct {
	Answer  any
	Sources []map[string]any
}

// BuildPrompt substitutes {{context}} and {{question}} into the configured
// template (all occurrences), falling back to the documented default
// template when none is configured (§4.9). When memory is enabled and a
// transcript is supplied, it is prepended as "Conversation:\n" + history
// (§4.9).
func BuildPrompt(cfg config.PromptsConfig, context, question, transcript string) string {
	template := cfg.Query
	if template == "" {
		template = defaultQueryPrompt + "\n\nContext:\n{{context}}\n\nQuestion:\n{{question}}"
	}
	prompt := strings.ReplaceAll(template, "{{context}}", context)
	prompt = strings.ReplaceAll(prompt, "{{question}}", question)

	if transcript != "" {
		prompt = "Conversation:\n" + transcript + "\n\n" + prompt
	}
	return prompt
}

// Generate runs the non-streaming path (§4.9): invoke the backend, persist
// the (user, assistant) turn to history when enabled, and post-process the
// answer for outputFormat=json (swallowing a parse failure by returning
// the raw string, per §7 ParseError policy).
func Generate(ctx context.Context, backend llmbackend.LanguageBackend, prompt, question string, sources []map[string]any, cfg config.GenerationConfig, mem config.MemoryConfig, store history.Store, sessionID string) (Result, error) {
	answer, err := backend.Generate(ctx, prompt, SystemInstruction)
	if err != nil {
		return Result{}, err
	}

	if mem.Enabled && sessionID != "" && store != nil {
		_ = store.AddMessage(ctx, sessionID, history.RoleUser, question)
		_ = store.AddMessage(ctx, sessionID, history.RoleAssistant, answer)
	}

	var parsedAnswer any = answer
	if cfg.OutputFormat == config.OutputJSON {
		var parsed any
		if err := json.Unmarshal([]byte(answer), &parsed); err == nil {
			parsedAnswer = parsed
			if len(cfg.Schema) > 0 {
				if err := validateAgainstSchema(cfg.Schema, parsed); err != nil {
					return Result{}, fmt.Errorf("generate: answer does not satisfy configured schema: %w", err)
				}
			}
		}
		// A parse failure leaves parsedAnswer as the raw string, per §7's
		// ParseError policy: the answer still reaches the caller.
	}

	return Result{Answer: parsedAnswer, Sources: sources}, nil
}

// validateAgainstSchema checks that parsed's required top-level properties
// are present and, where declared, type-correct, against schemaDoc decoded
// as a googleschema.Schema (draft 2020-12, the only dialect the answer
// shape needs here: required-field and primitive-type checks).
func validateAgainstSchema(schemaDoc map[string]any, parsed any) error {
	raw, err := json.Marshal(schemaDoc)
	if err != nil {
		return err
	}
	var schema googleschema.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return fmt.Errorf("decode schema: %w", err)
	}

	obj, ok := parsed.(map[string]any)
	if !ok {
		if schema.Type == "object" {
			return fmt.Errorf("expected a JSON object, got %T", parsed)
		}
		return nil
	}

	for _, name := range schema.Required {
		if _, present := obj[name]; !present {
			return fmt.Errorf("missing required field %q", name)
		}
	}
	for name, propSchema := range schema.Properties {
		val, present := obj[name]
		if !present || propSchema == nil || propSchema.Type == "" {
			continue
		}
		if err := checkJSONType(name, string(propSchema.Type), val); err != nil {
			return err
		}
	}
	return nil
}

func checkJSONType(field, want string, val any) error {
	var ok bool
	switch want {
	case "string":
		_, ok = val.(string)
	case "number", "integer":
		_, ok = val.(float64)
	case "boolean":
		_, ok = val.(bool)
	case "array":
		_, ok = val.([]any)
	case "object":
		_, ok = val.(map[string]any)
	default:
		ok = true
	}
	if !ok {
		return fmt.Errorf("field %q: expected type %q, got %T", field, want, val)
	}
	return nil
}

// StreamEvent is one element of a streaming generation (§4.9): a
// pass-through of the backend's delta, plus the driver's accumulated
// answer once the stream completes.
type StreamEvent struct {
	Delta        string
	FinishReason string
	Usage        *llmbackend.Usage
	Done         bool
	FullAnswer   string // populated only on the final (Done) event
}

// GenerateStream wraps backend.GenerateStream, accumulating the full
// answer and persisting the (user, assistant) turn to history once the
// stream completes successfully (§4.9). The returned channel is closed
// after the final event or on error; a non-nil error is sent on errc
// before closing. Cancelling ctx aborts the stream without mutating
// history (§5).
func GenerateStream(ctx context.Context, backend llmbackend.LanguageBackend, prompt, question string, mem config.MemoryConfig, store history.Store, sessionID string) (<-chan StreamEvent, <-chan error) {
	out := make(chan StreamEvent)
	errc := make(chan error, 1)

	chunks, backendErrc := backend.GenerateStream(ctx, prompt, SystemInstruction)

	go func() {
		defer close(out)
		defer close(errc)

		var full strings.Builder
		for chunk := range chunks {
			full.WriteString(chunk.Delta)
			select {
			case out <- StreamEvent{Delta: chunk.Delta, FinishReason: chunk.FinishReason, Usage: chunk.Usage}:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}

		if err := <-backendErrc; err != nil {
			errc <- err
			return
		}

		if mem.Enabled && sessionID != "" && store != nil {
			_ = store.AddMessage(ctx, sessionID, history.RoleUser, question)
			_ = store.AddMessage(ctx, sessionID, history.RoleAssistant, full.String())
		}

		out <- StreamEvent{Done: true, FullAnswer: full.String()}
	}()

	return out, errc
}
