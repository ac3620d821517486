package ingest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sentenceOf builds a sentence of roughly n characters from distinct words.
func sentenceOf(i, n int) string {
	var b strings.Builder
	w := 0
	for b.Len() < n-1 {
		fmt.Fprintf(&b, "word%d_%d ", i, w)
		w++
	}
	return strings.TrimSpace(b.String()) + "."
}

func TestSplitSentences(t *testing.T) {
	t.Run("mixed terminators", func(t *testing.T) {
		got := splitSentences("One two. Three four! Five six? Seven")
		assert.Equal(t, []string{"One two.", "Three four!", "Five six?", "Seven"}, got)
	})

	t.Run("ellipsis stays whole", func(t *testing.T) {
		got := splitSentences("Wait... then go.")
		assert.Equal(t, []string{"Wait...", "then go."}, got)
	})

	t.Run("no terminator", func(t *testing.T) {
		got := splitSentences("just a fragment")
		assert.Equal(t, []string{"just a fragment"}, got)
	})

	t.Run("trailing period without space", func(t *testing.T) {
		got := splitSentences("One. Two.")
		assert.Equal(t, []string{"One.", "Two."}, got)
	})
}

func TestChunkerSingleChunk(t *testing.T) {
	c := NewChunker(ChunkerConfig{})
	text := "This is a single paragraph that easily fits inside one chunk of the default budget."
	chunks := c.Split(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestChunkerDropsTinyChunks(t *testing.T) {
	c := NewChunker(ChunkerConfig{})
	assert.Empty(t, c.Split("Too short."))
}

func TestChunkerMinLengthCountsRunes(t *testing.T) {
	c := NewChunker(ChunkerConfig{})

	// 40 runes but 79 bytes: still below the 50-character floor.
	short := strings.Repeat("é", 39) + "."
	assert.Empty(t, c.Split(short))

	long := strings.Repeat("é", 51) + "."
	assert.Len(t, c.Split(long), 1)
}

func TestChunkerOverlap(t *testing.T) {
	// Twelve ~100-char sentences (~25 tokens each) against a 120-token
	// budget force several chunk boundaries.
	var sentences []string
	for i := 0; i < 12; i++ {
		sentences = append(sentences, sentenceOf(i, 100))
	}
	text := strings.Join(sentences, " ")
	require.GreaterOrEqual(t, len(text), 1100)

	c := NewChunker(ChunkerConfig{ChunkSize: 120, ChunkOverlap: 50})
	chunks := c.Split(text)
	require.GreaterOrEqual(t, len(chunks), 2)

	// Each chunk after the first starts with the trailing words of its
	// predecessor.
	for i := 1; i < len(chunks); i++ {
		prevWords := strings.Fields(chunks[i-1])
		keep := 25 // half the overlap budget, in words
		if keep > len(prevWords) {
			keep = len(prevWords)
		}
		tail := strings.Join(prevWords[len(prevWords)-keep:], " ")
		assert.True(t, strings.HasPrefix(chunks[i], tail),
			"chunk %d does not start with the tail of chunk %d", i, i-1)
	}
}

func TestChunkerTokenBound(t *testing.T) {
	var sentences []string
	for i := 0; i < 20; i++ {
		sentences = append(sentences, sentenceOf(i, 80))
	}
	c := NewChunker(ChunkerConfig{ChunkSize: 100, ChunkOverlap: 0})
	for _, ch := range c.Split(strings.Join(sentences, " ")) {
		total := 0
		for _, s := range splitSentences(ch) {
			total += estimateTokens(s)
		}
		assert.LessOrEqual(t, total, 100)
	}
}

func TestChunkerOversizedSentenceKept(t *testing.T) {
	// A single sentence past the budget still becomes its own chunk.
	big := sentenceOf(0, 1000)
	c := NewChunker(ChunkerConfig{ChunkSize: 50})
	chunks := c.Split(big)
	require.Len(t, chunks, 1)
	assert.Greater(t, estimateTokens(chunks[0]), 50)
}

func TestChunkerSentenceCoverage(t *testing.T) {
	// No sentence may be lost to a chunk boundary.
	var sentences []string
	for i := 0; i < 15; i++ {
		sentences = append(sentences, sentenceOf(i, 90))
	}
	c := NewChunker(ChunkerConfig{ChunkSize: 100, ChunkOverlap: 20})
	joined := strings.Join(c.Split(strings.Join(sentences, " ")), " ")
	for i, s := range sentences {
		assert.Contains(t, joined, s, "sentence %d missing from chunk output", i)
	}
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, estimateTokens(""))
	assert.Equal(t, 1, estimateTokens("abc"))
	assert.Equal(t, 1, estimateTokens("abcd"))
	assert.Equal(t, 2, estimateTokens("abcde"))
	assert.Equal(t, 25, estimateTokens(strings.Repeat("x", 100)))
}
