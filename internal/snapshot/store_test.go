package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id uint32, role Role, name string, opts ...func(*Record)) Record {
	r := Record{
		ID:        id,
		Role:      role,
		Name:      name,
		StateBits: StateVisible | StateEnabled,
		Rect:      Rect{X: 10, Y: 20, Width: 100, Height: 30},
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func withTestID(testID string) func(*Record) {
	return func(r *Record) {
		if r.Attrs == nil {
			r.Attrs = map[string]string{}
		}
		r.Attrs[AttrTestID] = testID
	}
}

func withContext(ctx ...string) func(*Record) {
	return func(r *Record) { r.Context = ctx }
}

func TestStore_IngestBuildsIndices(t *testing.T) {
	// Given: a snapshot with roles, shared tokens and a test id
	s := NewStore()
	s.Ingest([]Record{
		rec(0, RoleButton, "Add to Cart", withTestID("add-cart")),
		rec(1, RoleButton, "Buy Now"),
		rec(2, RoleLink, "View Cart"),
	})

	// When / Then: each index answers position lookups
	assert.Equal(t, 3, s.Size())
	assert.Equal(t, []int{0, 1}, s.PositionsByRole(RoleButton))
	assert.Equal(t, []int{2}, s.PositionsByRole(RoleLink))
	assert.Equal(t, []int{0, 2}, s.PositionsByToken("cart"))

	pos, ok := s.PositionByTestID("add-cart")
	require.True(t, ok)
	assert.Equal(t, 0, pos)
}

func TestStore_IngestReplacesState(t *testing.T) {
	// Given: a store holding snapshot A
	s := NewStore()
	s.Ingest([]Record{
		rec(0, RoleButton, "Alpha", withTestID("alpha")),
		rec(1, RoleLink, "Beta"),
	})
	require.Equal(t, 2, s.Size())

	// When: snapshot B is ingested
	s.Ingest([]Record{
		rec(0, RoleTextbox, "Gamma"),
	})

	// Then: only B is reachable, through every index
	assert.Equal(t, 1, s.Size())
	assert.Empty(t, s.PositionsByRole(RoleButton))
	assert.Empty(t, s.PositionsByRole(RoleLink))
	assert.Empty(t, s.PositionsByToken("alpha"))
	assert.Equal(t, []int{0}, s.PositionsByRole(RoleTextbox))

	_, ok := s.PositionByTestID("alpha")
	assert.False(t, ok)
}

func TestStore_TokensDeduplicatedPerRecord(t *testing.T) {
	// Given: a record repeating the same token in name and context
	s := NewStore()
	s.Ingest([]Record{
		rec(0, RoleButton, "cart cart", withContext("Cart panel")),
	})

	// Then: the record appears once in the token posting list
	assert.Equal(t, []int{0}, s.PositionsByToken("cart"))
}

func TestStore_GetRecord(t *testing.T) {
	s := NewStore()
	s.Ingest([]Record{
		rec(7, RoleButton, "Submit"),
		rec(9, RoleLink, "Home"),
	})

	got := s.GetRecord(9)
	require.NotNil(t, got)
	assert.Equal(t, "Home", got.Name)

	assert.Nil(t, s.GetRecord(42))
}

func TestStore_SnapshotViewSurvivesReingest(t *testing.T) {
	// Given: a view taken before a re-ingest
	s := NewStore()
	s.Ingest([]Record{rec(0, RoleButton, "Old")})
	view := s.Snapshot()

	// When: the snapshot is replaced
	s.Ingest([]Record{rec(0, RoleLink, "New"), rec(1, RoleLink, "Other")})

	// Then: the old view still describes the old snapshot coherently
	require.Len(t, view.Records, 1)
	assert.Equal(t, "Old", view.Records[0].Name)
	assert.Equal(t, []int{0}, view.RoleIndex[RoleButton])
}

func TestStore_Reset(t *testing.T) {
	s := NewStore()
	s.Ingest([]Record{rec(0, RoleButton, "Submit")})

	s.Reset()

	assert.Equal(t, 0, s.Size())
	assert.Empty(t, s.PositionsByRole(RoleButton))
}
