package embed

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the default number of fingerprint embeddings to keep.
// At 384 dimensions * 4 bytes * 10k entries this is ~15MB.
const DefaultCacheSize = 10000

// FingerprintCache caches embeddings keyed by record fingerprint.
// Fingerprints are stable across re-snapshots of logically the same element,
// so a re-render does not force re-embedding an unchanged page.
type FingerprintCache struct {
	cache *lru.Cache[string, []float32]
}

// NewFingerprintCache creates a cache holding up to capacity embeddings.
func NewFingerprintCache(capacity int) *FingerprintCache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	cache, _ := lru.New[string, []float32](capacity)
	return &FingerprintCache{cache: cache}
}

// Put stores an embedding for a fingerprint.
func (c *FingerprintCache) Put(fingerprint string, vector []float32) {
	c.cache.Add(fingerprint, vector)
}

// Get returns the cached embedding, promoting the entry.
func (c *FingerprintCache) Get(fingerprint string) ([]float32, bool) {
	return c.cache.Get(fingerprint)
}

// Peek returns the cached embedding without touching the eviction order.
func (c *FingerprintCache) Peek(fingerprint string) ([]float32, bool) {
	return c.cache.Peek(fingerprint)
}

// Missing returns the fingerprints that are not in the cache, preserving
// input order.
func (c *FingerprintCache) Missing(fingerprints []string) []string {
	var missing []string
	for _, fp := range fingerprints {
		if !c.cache.Contains(fp) {
			missing = append(missing, fp)
		}
	}
	return missing
}

// Size returns the number of cached embeddings.
func (c *FingerprintCache) Size() int {
	return c.cache.Len()
}

// Clear drops every cached embedding.
func (c *FingerprintCache) Clear() {
	c.cache.Purge()
}
