package semantic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	uierrors "github.com/Aman-CERP/uiground/internal/errors"
	"github.com/Aman-CERP/uiground/internal/snapshot"
)

func TestEngine_IngestAndQuery(t *testing.T) {
	e := NewEngine(&keywordEmbedder{ready: true}, 100)
	e.Ingest(semanticRecords())
	require.Equal(t, 3, e.Size())

	result, err := e.Query(context.Background(),
		[]byte(`{"where":[{"role":"button"}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, "Add to Cart", result.Matches[0].Name)
}

func TestEngine_QueryParseError(t *testing.T) {
	e := NewEngine(nil, 100)

	_, err := e.Query(context.Background(), []byte(`{"where":`))
	require.Error(t, err)
	assert.Equal(t, uierrors.ErrCodeInvalidQuery, uierrors.GetCode(err))
}

func TestEngine_NilEmbedderDegradesToLexical(t *testing.T) {
	e := NewEngine(nil, 100)
	e.Ingest(semanticRecords())

	result, err := e.Query(context.Background(),
		[]byte(`{"semantic":{"enabled":true,"text":"cart"}}`))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
}

func TestEngine_GetRecord(t *testing.T) {
	e := NewEngine(nil, 100)
	e.Ingest(semanticRecords())

	rec := e.GetRecord(1)
	require.NotNil(t, rec)
	assert.Equal(t, snapshot.RoleTextbox, rec.Role)
	assert.Nil(t, e.GetRecord(42))
}

func TestEngine_ResetClearsSnapshotAndCache(t *testing.T) {
	e := NewEngine(&keywordEmbedder{ready: true}, 100)
	e.Ingest(semanticRecords())

	n, err := e.ComputeAllEmbeddings(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, 3, e.CacheSize())

	e.Reset()

	assert.Equal(t, 0, e.Size())
	assert.Equal(t, 0, e.CacheSize())
}

func TestEngine_SemanticQueryAfterReingest(t *testing.T) {
	// Warming one snapshot must not leave the vector index answering
	// semantic queries against a later snapshot.
	e := NewEngine(&keywordEmbedder{ready: true}, 100)
	e.Ingest(semanticRecords()[:2])

	n, err := e.ComputeAllEmbeddings(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)

	e.Ingest([]snapshot.Record{
		{ID: 0, Role: snapshot.RoleButton, Name: "Login",
			Fingerprint: "fp-login",
			StateBits:   snapshot.StateVisible | snapshot.StateEnabled},
	})

	result, err := e.Query(context.Background(),
		[]byte(`{"semantic":{"enabled":true,"text":"Login"}}`))
	require.NoError(t, err)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "Login", result.Matches[0].Name)
}

func TestEngine_CacheSurface(t *testing.T) {
	e := NewEngine(nil, 100)

	e.CachePut("fp-1", []float32{1, 0})
	vec, ok := e.CacheGet("fp-1")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 0}, vec)

	assert.Equal(t, []string{"fp-2"}, e.CacheMissing([]string{"fp-1", "fp-2"}))
	assert.Equal(t, 1, e.CacheSize())
}

func TestEngine_SemanticRerank(t *testing.T) {
	e := NewEngine(&keywordEmbedder{ready: true}, 100)
	e.Ingest(semanticRecords())
	_, err := e.ComputeAllEmbeddings(context.Background())
	require.NoError(t, err)

	scored := e.SemanticRerank([]float32{1, 0, 0}, []uint32{0, 1, 2}, 2)

	require.NotEmpty(t, scored)
	assert.Equal(t, uint32(0), scored[0].ID)
	assert.LessOrEqual(t, len(scored), 2)
}
