package snapshot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateBits_Has(t *testing.T) {
	bits := StateVisible | StateEnabled | StateChecked

	assert.True(t, bits.Has(StateVisible))
	assert.True(t, bits.Has(StateVisible|StateEnabled))
	assert.False(t, bits.Has(StateFocused))
	assert.False(t, bits.Has(StateVisible|StateFocused))
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleButton.Valid())
	assert.True(t, RoleGeneric.Valid())
	assert.False(t, Role("sproing").Valid())
	assert.False(t, Role("").Valid())
}

func TestDeriveActionability(t *testing.T) {
	tests := []struct {
		name string
		role Role
		bits StateBits
		want Actionability
	}{
		{
			name: "enabled visible checkbox checks but does not type",
			role: RoleCheckbox,
			bits: StateVisible | StateEnabled,
			want: Actionability{Click: true, Check: true, Scroll: true},
		},
		{
			name: "enabled visible textbox types",
			role: RoleTextbox,
			bits: StateVisible | StateEnabled,
			want: Actionability{Type: true, Scroll: true},
		},
		{
			name: "disabled button only scrolls",
			role: RoleButton,
			bits: StateVisible,
			want: Actionability{Scroll: true},
		},
		{
			name: "hidden button does nothing",
			role: RoleButton,
			bits: StateEnabled,
			want: Actionability{},
		},
		{
			name: "enabled visible option clicks and selects",
			role: RoleOption,
			bits: StateVisible | StateEnabled,
			want: Actionability{Click: true, Select: true, Scroll: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Record{Role: tt.role, StateBits: tt.bits}
			assert.Equal(t, tt.want, DeriveActionability(&r))
		})
	}
}

func TestDeriveStates_OptionalFlagsOnlyWhenSet(t *testing.T) {
	// Given: a checked, visible, enabled record
	r := Record{StateBits: StateVisible | StateEnabled | StateChecked}

	states := DeriveStates(&r)

	assert.True(t, states.Visible)
	assert.True(t, states.Enabled)
	require.NotNil(t, states.Checked)
	assert.True(t, *states.Checked)
	assert.Nil(t, states.Expanded)
	assert.Nil(t, states.Focused)
	assert.Nil(t, states.Selected)

	// And: unset optional flags are absent from the JSON encoding
	data, err := json.Marshal(states)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"checked":true`)
	assert.NotContains(t, string(data), "expanded")
}

func TestRecord_TestID(t *testing.T) {
	r := Record{Attrs: map[string]string{AttrTestID: "submit-btn"}}
	id, ok := r.TestID()
	require.True(t, ok)
	assert.Equal(t, "submit-btn", id)

	none := Record{}
	_, ok = none.TestID()
	assert.False(t, ok)
}

func TestRect_Center(t *testing.T) {
	r := Rect{X: 10, Y: 20, Width: 100, Height: 40}
	assert.Equal(t, 60.0, r.CenterX())
	assert.Equal(t, 40.0, r.CenterY())
}
