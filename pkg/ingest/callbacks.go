package ingest

// Callbacks are fire-and-forget lifecycle hooks (§7): a handler panic must
// not affect the pipeline, so every call site below is wrapped through
// safeCall.
type Callbacks struct {
	OnIngestStart   func(path string)
	OnIngestEnd     func(path string)
	OnIngestSkipped func(path string)
	OnIngestSummary func(s Summary)
	OnChunkingStart func(path string)
	OnEmbeddingStart func(path string, batchSize int)
	OnError         func(path string, err error)
}

func (c *Callbacks) ingestStart(path string) {
	if c != nil && c.OnIngestStart != nil {
		safeCall(func() { c.OnIngestStart(path) })
	}
}

func (c *Callbacks) ingestEnd(path string) {
	if c != nil && c.OnIngestEnd != nil {
		safeCall(func() { c.OnIngestEnd(path) })
	}
}

func (c *Callbacks) ingestSkipped(path string) {
	if c != nil && c.OnIngestSkipped != nil {
		safeCall(func() { c.OnIngestSkipped(path) })
	}
}

func (c *Callbacks) ingestSummary(s Summary) {
	if c != nil && c.OnIngestSummary != nil {
		safeCall(func() { c.OnIngestSummary(s) })
	}
}

func (c *Callbacks) chunkingStart(path string) {
	if c != nil && c.OnChunkingStart != nil {
		safeCall(func() { c.OnChunkingStart(path) })
	}
}

func (c *Callbacks) embeddingStart(path string, batchSize int) {
	if c != nil && c.OnEmbeddingStart != nil {
		safeCall(func() { c.OnEmbeddingStart(path, batchSize) })
	}
}

func (c *Callbacks) onError(path string, err error) {
	if c != nil && c.OnError != nil {
		safeCall(func() { c.OnError(path, err) })
	}
}

// safeCall recovers from a panicking callback so a misbehaving handler
// cannot abort ingestion (§7: "handler exceptions must not affect the
// pipeline").
func safeCall(fn func()) {
	defer func() { _ = recover() }()
	fn()
}
