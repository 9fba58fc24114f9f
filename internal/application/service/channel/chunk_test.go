package channel

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkShortTextUnchanged(t *testing.T) {
	assert.Equal(t, []string{"hello world"}, Chunk("hello world", 100))
	assert.Equal(t, []string{""}, Chunk("", 100))
}

func TestChunkBreaksOnWordBoundaries(t *testing.T) {
	chunks := Chunk("one two three four five", 9)
	require.Len(t, chunks, 3)
	assert.Equal(t, []string{"one two", "three", "four five"}, chunks)

	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 9)
	}
}

func TestChunkHardSplitsOversizedWords(t *testing.T) {
	word := strings.Repeat("x", 25)
	chunks := Chunk(word, 10)
	require.Len(t, chunks, 3)
	assert.Equal(t, 10, len(chunks[0]))
	assert.Equal(t, 10, len(chunks[1]))
	assert.Equal(t, 5, len(chunks[2]))
}

func TestChunkPreservesContent(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog"
	chunks := Chunk(text, 12)
	assert.Equal(t, strings.ReplaceAll(text, " ", ""),
		strings.ReplaceAll(strings.Join(chunks, ""), " ", ""))
}
