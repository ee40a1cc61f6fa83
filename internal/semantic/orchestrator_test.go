package semantic

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/uiground/internal/embed"
	"github.com/Aman-CERP/uiground/internal/query"
	"github.com/Aman-CERP/uiground/internal/snapshot"
)

// keywordEmbedder maps texts onto fixed unit axes by keyword, giving tests
// full control over similarities: texts sharing a keyword are identical,
// others orthogonal.
type keywordEmbedder struct {
	ready bool
	calls int
}

func (e *keywordEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		switch {
		case strings.Contains(lower, "cart"):
			out[i] = []float32{1, 0, 0}
		case strings.Contains(lower, "search"):
			out[i] = []float32{0, 1, 0}
		default:
			out[i] = []float32{0, 0, 1}
		}
	}
	return out, nil
}

func (e *keywordEmbedder) Dimensions() int { return 3 }
func (e *keywordEmbedder) Ready() bool     { return e.ready }

func semanticRecords() []snapshot.Record {
	return []snapshot.Record{
		{ID: 0, Role: snapshot.RoleButton, Name: "Add to Cart",
			Fingerprint: "fp-cart",
			StateBits:   snapshot.StateVisible | snapshot.StateEnabled},
		{ID: 1, Role: snapshot.RoleTextbox, Name: "Search products",
			Fingerprint: "fp-search",
			StateBits:   snapshot.StateVisible | snapshot.StateEnabled},
		{ID: 2, Role: snapshot.RoleLink, Name: "Imprint",
			Fingerprint: "fp-other",
			StateBits:   snapshot.StateVisible | snapshot.StateEnabled},
	}
}

func newSemanticFixture(t *testing.T, ready bool) (*Orchestrator, *keywordEmbedder, *embed.FingerprintCache) {
	t.Helper()
	store := snapshot.NewStore()
	store.Ingest(semanticRecords())
	embedder := &keywordEmbedder{ready: ready}
	cache := embed.NewFingerprintCache(100)
	orch := NewOrchestrator(store, embedder, WithCache(cache), WithBatchSize(2))
	return orch, embedder, cache
}

func TestQuery_LexicalWhenSemanticAbsent(t *testing.T) {
	orch, embedder, _ := newSemanticFixture(t, true)

	result, err := orch.Query(context.Background(), &query.AST{Where: []query.Clause{
		query.RoleClause{Roles: []snapshot.Role{snapshot.RoleButton}},
	}})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Zero(t, embedder.calls)
}

func TestQuery_LexicalWhenEmbedderNotReady(t *testing.T) {
	orch, embedder, _ := newSemanticFixture(t, false)

	result, err := orch.Query(context.Background(), &query.AST{
		Semantic: &query.Semantic{Enabled: true, Text: "cart"},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Zero(t, embedder.calls)
}

func TestQuery_SemanticReranks(t *testing.T) {
	orch, _, _ := newSemanticFixture(t, true)

	result, err := orch.Query(context.Background(), &query.AST{
		Semantic: &query.Semantic{Enabled: true, Text: "put item in cart"},
	})

	require.NoError(t, err)
	// Only the cart record passes the similarity threshold
	require.Len(t, result.Matches, 1)
	assert.Equal(t, uint32(0), result.Matches[0].ID)
	assert.Equal(t, 1.0, result.Matches[0].Score)

	found := false
	for _, f := range result.Explain.FiltersApplied {
		if strings.HasPrefix(f, "semantic(") {
			found = true
		}
	}
	assert.True(t, found, "explain should record the semantic stage")
}

func TestQuery_SemanticKeepsStructuralFilters(t *testing.T) {
	orch, _, _ := newSemanticFixture(t, true)

	// Role filter excludes the cart button; nothing else is cart-like
	result, err := orch.Query(context.Background(), &query.AST{
		Where: []query.Clause{
			query.RoleClause{Roles: []snapshot.Role{snapshot.RoleTextbox}},
		},
		Semantic: &query.Semantic{Enabled: true, Text: "cart"},
	})

	require.NoError(t, err)
	assert.Empty(t, result.Matches)
}

func TestQuery_SemanticTextFallsBackToNameClause(t *testing.T) {
	orch, _, _ := newSemanticFixture(t, true)

	// No explicit semantic text: the name clause value is embedded instead
	result, err := orch.Query(context.Background(), &query.AST{
		Where: []query.Clause{
			query.NameClause{TextFilter: query.TextFilter{Match: query.MatchContains, Value: "search"}},
		},
		Semantic: &query.Semantic{Enabled: true},
	})

	require.NoError(t, err)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, uint32(1), result.Matches[0].ID)
}

func TestQuery_SemanticCacheReuse(t *testing.T) {
	orch, embedder, cache := newSemanticFixture(t, true)
	ast := &query.AST{Semantic: &query.Semantic{Enabled: true, Text: "cart"}}

	_, err := orch.Query(context.Background(), ast)
	require.NoError(t, err)
	firstCalls := embedder.calls
	assert.Equal(t, 3, cache.Size())

	// Second run embeds only the query text, candidates come from cache
	_, err = orch.Query(context.Background(), ast)
	require.NoError(t, err)
	assert.Equal(t, firstCalls+1, embedder.calls)
}

func TestComputeAllEmbeddings(t *testing.T) {
	store := snapshot.NewStore()
	records := semanticRecords()
	// Duplicate fingerprint: embedded once
	records = append(records, snapshot.Record{
		ID: 3, Role: snapshot.RoleButton, Name: "Add to Cart", Fingerprint: "fp-cart",
		StateBits: snapshot.StateVisible | snapshot.StateEnabled,
	})
	store.Ingest(records)

	embedder := &keywordEmbedder{ready: true}
	cache := embed.NewFingerprintCache(100)
	vindex := NewVectorIndex(3)
	orch := NewOrchestrator(store, embedder, WithCache(cache), WithVectorIndex(vindex))

	n, err := orch.ComputeAllEmbeddings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, vindex.Len())

	// Warm cache: nothing left to embed
	n, err = orch.ComputeAllEmbeddings(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestComputeAllEmbeddings_NotReady(t *testing.T) {
	orch, _, _ := newSemanticFixture(t, false)

	_, err := orch.ComputeAllEmbeddings(context.Background())
	assert.Error(t, err)
}

func TestQuery_IndexFastPath(t *testing.T) {
	store := snapshot.NewStore()
	store.Ingest(semanticRecords())
	embedder := &keywordEmbedder{ready: true}
	cache := embed.NewFingerprintCache(100)
	vindex := NewVectorIndex(3)
	orch := NewOrchestrator(store, embedder, WithCache(cache), WithVectorIndex(vindex))

	_, err := orch.ComputeAllEmbeddings(context.Background())
	require.NoError(t, err)

	// Whole-snapshot semantic query with a fully warmed index
	result, err := orch.Query(context.Background(), &query.AST{
		Semantic: &query.Semantic{Enabled: true, Text: "cart"},
	})
	require.NoError(t, err)

	require.NotEmpty(t, result.Matches)
	assert.Equal(t, uint32(0), result.Matches[0].ID)
	require.NotEmpty(t, result.Explain.FiltersApplied)
	assert.True(t, strings.HasPrefix(result.Explain.FiltersApplied[0], "semantic-index("))
}

func TestQuery_StaleIndexFallsBackToRerank(t *testing.T) {
	store := snapshot.NewStore()
	store.Ingest(semanticRecords())
	embedder := &keywordEmbedder{ready: true}
	cache := embed.NewFingerprintCache(100)

	// The index is as large as the snapshot, but holds fingerprints from
	// a previous one. The fast path must not trust it.
	vindex := NewVectorIndex(3)
	for _, fp := range []string{"fp-old-1", "fp-old-2", "fp-old-3"} {
		require.NoError(t, vindex.Add(fp, []float32{0, 0, 1}))
	}
	orch := NewOrchestrator(store, embedder, WithCache(cache), WithVectorIndex(vindex))

	result, err := orch.Query(context.Background(), &query.AST{
		Semantic: &query.Semantic{Enabled: true, Text: "cart"},
	})
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	assert.Equal(t, uint32(0), result.Matches[0].ID)
	require.NotEmpty(t, result.Explain.FiltersApplied)
	last := result.Explain.FiltersApplied[len(result.Explain.FiltersApplied)-1]
	assert.True(t, strings.HasPrefix(last, "semantic("),
		"stale index must not serve the query, got %q", last)
}

func TestQuery_SemanticTuningOptions(t *testing.T) {
	store := snapshot.NewStore()
	store.Ingest([]snapshot.Record{
		{ID: 0, Role: snapshot.RoleButton, Name: "Add to Cart",
			Fingerprint: "fp-c1",
			StateBits:   snapshot.StateVisible | snapshot.StateEnabled},
		{ID: 1, Role: snapshot.RoleLink, Name: "View Cart",
			Fingerprint: "fp-c2",
			StateBits:   snapshot.StateVisible | snapshot.StateEnabled},
		{ID: 2, Role: snapshot.RoleButton, Name: "Empty Cart",
			Fingerprint: "fp-c3",
			StateBits:   snapshot.StateVisible | snapshot.StateEnabled},
	})
	orch := NewOrchestrator(store, &keywordEmbedder{ready: true},
		WithCache(embed.NewFingerprintCache(100)),
		WithSemanticDefaults(0.5, 2))

	result, err := orch.Query(context.Background(), &query.AST{
		Semantic: &query.Semantic{Enabled: true, Text: "cart"},
	})
	require.NoError(t, err)

	// All three records clear the threshold; top-k keeps two, Total
	// still counts everything above the threshold.
	assert.Len(t, result.Matches, 2)
	assert.Equal(t, 3, result.Total)
}

func TestSemanticRerank_UsesOnlyCachedVectors(t *testing.T) {
	orch, _, cache := newSemanticFixture(t, true)

	// Only the cart fingerprint is cached
	cache.Put("fp-cart", []float32{1, 0, 0})

	scored := orch.SemanticRerank([]float32{1, 0, 0}, []uint32{0, 1, 2, 99}, 10)

	require.Len(t, scored, 1)
	assert.Equal(t, uint32(0), scored[0].ID)
	assert.InDelta(t, 1.0, scored[0].Similarity, 1e-6)
}
