package semantic

import (
	"context"
	"log/slog"

	"github.com/Aman-CERP/uiground/internal/embed"
	"github.com/Aman-CERP/uiground/internal/errors"
	"github.com/Aman-CERP/uiground/internal/query"
	"github.com/Aman-CERP/uiground/internal/snapshot"
)

// Engine is the top-level facade over the snapshot store, the lexical
// executor and the semantic orchestrator. Callers that do not care
// about the individual stages work only with this type.
type Engine struct {
	store  *snapshot.Store
	orch   *Orchestrator
	cache  *embed.FingerprintCache
	vindex *VectorIndex
}

// NewEngine wires a store, an optional embedder and an embedding cache
// into one queryable engine. A nil embedder yields a purely lexical
// engine; semantic query sections then fall back to lexical results.
// Extra options are forwarded to the orchestrator.
func NewEngine(embedder embed.Embedder, cacheCapacity int, opts ...Option) *Engine {
	if cacheCapacity <= 0 {
		cacheCapacity = embed.DefaultCacheSize
	}
	store := snapshot.NewStore()
	cache := embed.NewFingerprintCache(cacheCapacity)

	var vindex *VectorIndex
	if embedder != nil {
		vindex = NewVectorIndex(embedder.Dimensions())
	}
	orchOpts := append([]Option{
		WithCache(cache),
		WithVectorIndex(vindex),
	}, opts...)
	orch := NewOrchestrator(store, embedder, orchOpts...)
	return &Engine{store: store, orch: orch, cache: cache, vindex: vindex}
}

// Store exposes the underlying record store.
func (e *Engine) Store() *snapshot.Store { return e.store }

// Ingest replaces the indexed snapshot with records. The vector index is
// dropped with the old snapshot; the fingerprint cache survives, since
// fingerprints are stable across re-snapshots of the same elements.
func (e *Engine) Ingest(records []snapshot.Record) {
	e.store.Ingest(records)
	if e.vindex != nil {
		e.vindex.Reset()
	}
	slog.Debug("snapshot ingested", "records", len(records))
}

// Query parses a JSON query and executes it, applying semantic
// re-ranking when the query requests it and an embedder is available.
func (e *Engine) Query(ctx context.Context, queryJSON []byte) (*query.Result, error) {
	ast, err := query.Parse(queryJSON)
	if err != nil {
		return nil, errors.New(errors.ErrCodeInvalidQuery, "parse query", err)
	}
	return e.orch.Query(ctx, ast)
}

// Size returns the number of indexed records.
func (e *Engine) Size() int { return e.store.Size() }

// GetRecord returns the record with the given snapshot id, or nil.
func (e *Engine) GetRecord(id uint32) *snapshot.Record {
	return e.store.GetRecord(id)
}

// Reset clears the snapshot, the embedding cache and the vector index.
func (e *Engine) Reset() {
	e.store.Reset()
	e.cache.Clear()
	if e.vindex != nil {
		e.vindex.Reset()
	}
}

// ComputeAllEmbeddings warms the embedding cache for every indexed
// record, returning the number of embeddings computed.
func (e *Engine) ComputeAllEmbeddings(ctx context.Context) (int, error) {
	return e.orch.ComputeAllEmbeddings(ctx)
}

// SemanticRerank reranks candidate records against a query vector using
// only already-cached embeddings.
func (e *Engine) SemanticRerank(queryVec []float32, candidateIDs []uint32, topK int) []Scored {
	return e.orch.SemanticRerank(queryVec, candidateIDs, topK)
}

// CachePut stores an externally computed embedding under a fingerprint.
func (e *Engine) CachePut(fingerprint string, vector []float32) {
	e.cache.Put(fingerprint, vector)
}

// CacheGet returns the cached embedding for a fingerprint, if present.
func (e *Engine) CacheGet(fingerprint string) ([]float32, bool) {
	return e.cache.Get(fingerprint)
}

// CacheMissing filters fingerprints down to those without a cached
// embedding.
func (e *Engine) CacheMissing(fingerprints []string) []string {
	return e.cache.Missing(fingerprints)
}

// CacheSize returns the number of cached embeddings.
func (e *Engine) CacheSize() int { return e.cache.Size() }
