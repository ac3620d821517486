package ingest

import (
	"strings"
	"unicode/utf8"
)

// ChunkerConfig tunes how document text is split for embedding.
//
// ChunkSize:     approximate token budget per chunk.
// ChunkOverlap:  token overlap between consecutive chunks; the tail words of
//                a closed chunk seed the next one.
// MinChunkChars: chunks at or below this length are dropped as noise.
type ChunkerConfig struct {
	ChunkSize     int
	ChunkOverlap  int
	MinChunkChars int
}

// Chunker splits text into sentence-aligned, token-budgeted chunks.
// Chunk boundaries never split a sentence; a single sentence larger than
// the budget still becomes its own chunk.
type Chunker struct {
	cfg ChunkerConfig
}

func NewChunker(cfg ChunkerConfig) *Chunker {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 500
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 0
	}
	if cfg.MinChunkChars <= 0 {
		cfg.MinChunkChars = 50
	}
	return &Chunker{cfg: cfg}
}

// estimateTokens is a cheap token estimator (~4 chars per token).
func estimateTokens(s string) int {
	n := len([]rune(s))
	if n <= 0 {
		return 0
	}
	return (n + 3) / 4
}

// Split breaks text into chunks. Sentences accumulate greedily; when the
// next sentence would exceed the budget the chunk closes, and the new chunk
// is seeded with the trailing words of the closed one (about half the
// overlap budget, counted in words).
func (c *Chunker) Split(text string) []string {
	sentences := splitSentences(text)

	var chunks []string
	var cur string
	curTokens := 0

	for _, sentence := range sentences {
		st := estimateTokens(sentence)

		if curTokens+st > c.cfg.ChunkSize && cur != "" {
			chunks = append(chunks, strings.TrimSpace(cur))

			words := strings.Fields(cur)
			keep := (c.cfg.ChunkOverlap + 1) / 2
			if keep > len(words) {
				keep = len(words)
			}
			cur = strings.Join(words[len(words)-keep:], " ") + " " + sentence
			curTokens = estimateTokens(cur)
		} else {
			if cur != "" {
				cur += " "
			}
			cur += sentence
			curTokens += st
		}
	}

	if strings.TrimSpace(cur) != "" {
		chunks = append(chunks, strings.TrimSpace(cur))
	}

	out := chunks[:0]
	for _, ch := range chunks {
		// Same unit as the token estimator: runes, not bytes.
		if utf8.RuneCountInString(ch) > c.cfg.MinChunkChars {
			out = append(out, ch)
		}
	}
	return out
}

// splitSentences splits on sentence-ending punctuation followed by
// whitespace. The punctuation stays with its sentence; trailing runs like
// "..." or "?!" do not split internally.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		if !isSentenceEnd(text[i]) {
			continue
		}
		j := i + 1
		for j < len(text) && isSentenceEnd(text[j]) {
			j++
		}
		if j < len(text) && isSpaceByte(text[j]) {
			out = append(out, text[start:j])
			for j < len(text) && isSpaceByte(text[j]) {
				j++
			}
			start = j
		}
		i = j - 1
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

func isSentenceEnd(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == '\v'
}
