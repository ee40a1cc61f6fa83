package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_CompactJSONWhenNotTerminal(t *testing.T) {
	// Given: a writer over a buffer (never a terminal)
	buf := &bytes.Buffer{}
	w := New(buf)
	assert.False(t, w.Pretty())

	// When: writing a value
	require.NoError(t, w.JSON(map[string]int{"total": 3}))

	// Then: output is one compact line
	out := strings.TrimSpace(buf.String())
	assert.Equal(t, `{"total":3}`, out)
	assert.NotContains(t, out, "\n")
}

func TestWriter_StatusMessages(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Success("snapshot ingested")
	w.Warning("semantic unavailable")
	w.Error("records file missing")
	w.Statusf("🔍", "%d matches", 4)
	w.Status("", "indented detail")

	out := buf.String()
	assert.Contains(t, out, "✅ snapshot ingested")
	assert.Contains(t, out, "semantic unavailable")
	assert.Contains(t, out, "❌ records file missing")
	assert.Contains(t, out, "🔍 4 matches")
	assert.Contains(t, out, "   indented detail")
}

func TestIsTerminal_NonFileWriter(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
