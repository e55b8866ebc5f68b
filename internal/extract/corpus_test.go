package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssembleCorpusJoinsInOrder(t *testing.T) {
	c := AssembleCorpus([]string{"first block", "second block"}, 100)
	assert.Equal(t, "first block\n\nsecond block", c.Text)
	assert.Equal(t, 2, c.Files)
	assert.False(t, c.Truncated)
}

func TestAssembleCorpusSkipsBlankBlocks(t *testing.T) {
	c := AssembleCorpus([]string{"", "  \n", "real content"}, 100)
	assert.Equal(t, "real content", c.Text)
	assert.Equal(t, 1, c.Files)
}

func TestAssembleCorpusTruncatesWithHeadroom(t *testing.T) {
	first := strings.Repeat("a", 10_000)
	second := strings.Repeat("b", 20_000)

	c := AssembleCorpus([]string{first, second}, 20_000)
	assert.True(t, c.Truncated)
	assert.Equal(t, 2, c.Files)
	assert.True(t, strings.HasSuffix(c.Text, "[TRUNCATED - Document too large]"))
	assert.Contains(t, c.Text, strings.Repeat("b", 100))
}

func TestAssembleCorpusSkipsBlockWithoutHeadroom(t *testing.T) {
	first := strings.Repeat("a", 18_000)
	second := strings.Repeat("b", 20_000)

	// Remaining budget is 2000 chars, under the 5000-char headroom floor:
	// the second block is dropped whole rather than truncated.
	c := AssembleCorpus([]string{first, second}, 20_000)
	assert.True(t, c.Truncated)
	assert.Equal(t, 1, c.Files)
	assert.NotContains(t, c.Text, "b")
	assert.NotContains(t, c.Text, "TRUNCATED")
}

func TestAssembleCorpusExactFitAddsNoMarker(t *testing.T) {
	block := strings.Repeat("a", 10_000)
	c := AssembleCorpus([]string{block}, 10_000)
	assert.Equal(t, block, c.Text)
	assert.False(t, c.Truncated)
}

func TestAssembleCorpusDeterministic(t *testing.T) {
	blocks := []string{strings.Repeat("x", 7000), strings.Repeat("y", 9000), strings.Repeat("z", 11000)}
	a := AssembleCorpus(blocks, 12_000)
	b := AssembleCorpus(blocks, 12_000)
	assert.Equal(t, a, b)
}

func TestCorpusThin(t *testing.T) {
	assert.True(t, Corpus{Text: "tiny"}.Thin())
	assert.False(t, Corpus{Text: strings.Repeat("a", MinCorpusChars)}.Thin())
}
