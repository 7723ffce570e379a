package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLogCheckpoint_Defaults(t *testing.T) {
	c := NewLogCheckpoint("/var/log/install/node-1.log")
	assert.Equal(t, int64(0), c.Position)
	assert.Empty(t, c.PartialLine)
	assert.Equal(t, SeverityInfo, c.Severity)
	assert.Equal(t, DefaultLineMatcher, c.LineMatcherName)
}

func TestAdvance_CompletesCarriedPartialLine(t *testing.T) {
	c := &LogCheckpoint{Position: 120, PartialLine: "abc"}

	lines := c.Advance("def\nghi\n")

	assert.Equal(t, []string{"abcdef", "ghi"}, lines)
	assert.Equal(t, int64(128), c.Position)
	assert.Empty(t, c.PartialLine)
}

func TestAdvance_RetainsNewTrailingFragment(t *testing.T) {
	c := NewLogCheckpoint("/var/log/install/node-1.log")

	lines := c.Advance("first line\nsecond li")

	assert.Equal(t, []string{"first line"}, lines)
	assert.Equal(t, int64(20), c.Position)
	assert.Equal(t, "second li", c.PartialLine)

	// The next chunk picks up exactly where the fragment left off.
	lines = c.Advance("ne\n")
	assert.Equal(t, []string{"second line"}, lines)
	assert.Equal(t, int64(23), c.Position)
	assert.Empty(t, c.PartialLine)
}

func TestAdvance_NoNewlineAccumulates(t *testing.T) {
	c := NewLogCheckpoint("/var/log/install/node-1.log")

	assert.Nil(t, c.Advance("par"))
	assert.Nil(t, c.Advance("tial"))
	assert.Equal(t, "partial", c.PartialLine)
	assert.Equal(t, int64(7), c.Position)
}

func TestAdvance_EmptyChunkIsNoOp(t *testing.T) {
	c := &LogCheckpoint{Position: 50, PartialLine: "tail"}
	assert.Nil(t, c.Advance(""))
	assert.Equal(t, int64(50), c.Position)
	assert.Equal(t, "tail", c.PartialLine)
}

func TestAdvance_NoBytesLostOrDuplicated(t *testing.T) {
	// Feeding arbitrary splits of a document must yield the same lines and
	// account for every byte exactly once.
	doc := "alpha\nbeta\ngamma\ndelta"
	c := NewLogCheckpoint("/var/log/install/node-2.log")

	var lines []string
	for _, chunk := range []string{"alp", "ha\nbe", "ta\ngamma\n", "delta"} {
		lines = append(lines, c.Advance(chunk)...)
	}

	assert.Equal(t, []string{"alpha", "beta", "gamma"}, lines)
	assert.Equal(t, int64(len(doc)), c.Position)
	assert.Equal(t, "delta", c.PartialLine)
}
