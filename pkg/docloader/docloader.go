// Package docloader implements the DocumentLoader capability (§6): load a
// source file into raw text plus, for paged formats, an ordered array of
// page texts so the Document Processor can map chunk offsets to pages
// (§4.2). Concrete file-format parsers (PDF/DOCX/XLSX) are explicitly out
// of scope (§1) — this package ships the plain-text/markdown loader the
// core needs for its own tests and examples, plus the Loader interface the
// orchestrator programs against so a host application can plug in real
// parsers for other formats.
package docloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Loaded is the result of loading a source file (§6).
type Loaded struct {
	Text string
	// Pages is the ordered array of page texts for paged formats. Empty for
	// unpaged formats (plain text, markdown) — chunk-to-page mapping then
	// never applies (§4.2).
	Pages []string
}

// Loader is the DocumentLoader capability (§6).
type Loader interface {
	Load(ctx context.Context, path string) (Loaded, error)
}

// PlainText loads .txt and .md files directly off disk; neither format is
// paged.
type PlainText struct{}

var _ Loader = PlainText{}

func (PlainText) Load(_ context.Context, path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Loaded{Text: string(data)}, nil
}

// Registry dispatches Load to a Loader by file extension, so the Ingestion
// Coordinator can stay format-agnostic. Unregistered extensions fall back
// to Default if set, else fail with an IOFailure-shaped error (§7).
type Registry struct {
	byExt   map[string]Loader
	Default Loader
}

// NewRegistry returns a Registry pre-populated with the plain-text loader
// for .txt and .md; callers register additional formats (PDF/DOCX/XLSX
// adapters — out of scope here) via Register.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Loader)}
	pt := PlainText{}
	r.Register(".txt", pt)
	r.Register(".md", pt)
	r.Register(".markdown", pt)
	return r
}

// Register installs loader for the given extension (including the leading
// dot, e.g. ".pdf").
func (r *Registry) Register(ext string, loader Loader) {
	r.byExt[ext] = loader
}

// Load dispatches on filepath.Ext(path).
func (r *Registry) Load(ctx context.Context, path string) (Loaded, error) {
	ext := filepath.Ext(path)
	if loader, ok := r.byExt[ext]; ok {
		return loader.Load(ctx, path)
	}
	if r.Default != nil {
		return r.Default.Load(ctx, path)
	}
	return Loaded{}, fmt.Errorf("docloader: no loader registered for extension %q", ext)
}
