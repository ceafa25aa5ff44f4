// Package embedcache implements the process-local embedding cache (§4.3,
// §9): a content-hash -> vector map that is unbounded, monotone (entries
// never change, only accumulate), and non-persistent. It may be discarded
// at any time without correctness loss. The teacher's source keeps this as
// global state; per §9's design note it is made an instance field of the
// orchestrator here, so tests and multi-tenant callers get isolation.
package embedcache

import "sync"

// Cache maps a chunk's SHA-256 content hash to its embedding vector.
//
// Reads are safe for concurrent use. Writes are idempotent: the same key is
// always written with an identical value, so concurrent writers racing on
// the same key is harmless (last writer wins with identical data).
type Cache struct {
	mu   sync.RWMutex
	data map[string][]float32
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{data: make(map[string][]float32)}
}

// Get returns the cached vector for sha256Hex, if present.
func (c *Cache) Get(sha256Hex string) ([]float32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[sha256Hex]
	return v, ok
}

// Set stores vector under sha256Hex.
func (c *Cache) Set(sha256Hex string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[sha256Hex] = vector
}

// Missing returns, in input order, the hashes that are not yet cached and
// so require embedding.
func (c *Cache) Missing(hashes []string) (missing []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, h := range hashes {
		if _, ok := c.data[h]; !ok {
			missing = append(missing, h)
		}
	}
	return missing
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
