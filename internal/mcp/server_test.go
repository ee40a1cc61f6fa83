package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/uiground/internal/config"
	"github.com/Aman-CERP/uiground/internal/semantic"
	"github.com/Aman-CERP/uiground/internal/snapshot"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	engine := semantic.NewEngine(nil, 100)
	srv, err := NewServer(engine, config.Defaults())
	require.NoError(t, err)
	return srv
}

func testRecords() []snapshot.Record {
	return []snapshot.Record{
		{
			ID:          0,
			Role:        snapshot.RoleButton,
			Name:        "Add to Cart",
			StateBits:   snapshot.StateVisible | snapshot.StateEnabled,
			Attrs:       map[string]string{snapshot.AttrTestID: "add-to-cart"},
			Rect:        snapshot.Rect{X: 100, Y: 400, Width: 120, Height: 40},
			Fingerprint: "fp-add",
		},
		{
			ID:          1,
			Role:        snapshot.RoleLink,
			Name:        "View Cart",
			StateBits:   snapshot.StateVisible | snapshot.StateEnabled,
			Rect:        snapshot.Rect{X: 600, Y: 50, Width: 80, Height: 20},
			Fingerprint: "fp-view",
		},
	}
}

func TestServer_RequiresEngine(t *testing.T) {
	_, err := NewServer(nil, config.Defaults())
	assert.Error(t, err)
}

func TestHandleIngest(t *testing.T) {
	srv := newTestServer(t)

	_, out, err := srv.handleIngest(context.Background(), nil, IngestInput{Records: testRecords()})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Indexed)
}

func TestHandleQuery(t *testing.T) {
	srv := newTestServer(t)
	_, _, err := srv.handleIngest(context.Background(), nil, IngestInput{Records: testRecords()})
	require.NoError(t, err)

	_, out, err := srv.handleQuery(context.Background(), nil, QueryInput{
		Query: map[string]any{
			"where": []any{map[string]any{"role": "button"}},
		},
	})
	require.NoError(t, err)
	require.Len(t, out.Matches, 1)
	assert.Equal(t, uint32(0), out.Matches[0].ID)
	assert.Equal(t, 1, out.Total)
}

func TestHandleQuery_MissingQuery(t *testing.T) {
	srv := newTestServer(t)

	_, _, err := srv.handleQuery(context.Background(), nil, QueryInput{})
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
}

func TestHandleQuery_InvalidQueryDocument(t *testing.T) {
	srv := newTestServer(t)

	// where must be an object, not a scalar
	_, _, err := srv.handleQuery(context.Background(), nil, QueryInput{
		Query: map[string]any{"where": "button"},
	})
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
}

func TestHandleGetRecord(t *testing.T) {
	srv := newTestServer(t)
	_, _, err := srv.handleIngest(context.Background(), nil, IngestInput{Records: testRecords()})
	require.NoError(t, err)

	_, out, err := srv.handleGetRecord(context.Background(), nil, GetRecordInput{ID: 1})
	require.NoError(t, err)
	require.True(t, out.Found)
	assert.Equal(t, "View Cart", out.Record.Name)

	_, out, err = srv.handleGetRecord(context.Background(), nil, GetRecordInput{ID: 99})
	require.NoError(t, err)
	assert.False(t, out.Found)
	assert.Nil(t, out.Record)
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(t)
	_, _, err := srv.handleIngest(context.Background(), nil, IngestInput{Records: testRecords()})
	require.NoError(t, err)

	_, out, err := srv.handleStatus(context.Background(), nil, statusInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Records)
	assert.Equal(t, 0, out.CachedVectors)
	assert.True(t, out.SemanticEnabled)
	assert.NotEmpty(t, out.Version)
}

func TestHandleWarm_NoEmbedder(t *testing.T) {
	srv := newTestServer(t)
	_, _, err := srv.handleIngest(context.Background(), nil, IngestInput{Records: testRecords()})
	require.NoError(t, err)

	// Without an embedding provider warming surfaces the not-ready error
	_, _, err = srv.handleWarm(context.Background(), nil, warmInput{})
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeEmbeddingFailed, mcpErr.Code)
}

func TestServe_UnknownTransport(t *testing.T) {
	srv := newTestServer(t)
	err := srv.Serve(context.Background(), "tcp")
	assert.Error(t, err)
}
