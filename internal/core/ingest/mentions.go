package ingest

import (
	"strings"
	"unicode/utf8"
)

// contextWindow is the number of characters captured on each side of a
// matched name.
const contextWindow = 100

// Mention is one occurrence of a catalog name inside a text, with the
// surrounding window. NormalizedName is the lowercased form used for
// grouping at query time.
type Mention struct {
	Name           string
	NormalizedName string
	Context        string
}

// MentionExtractor scans text for a fixed catalog of notable names.
type MentionExtractor struct {
	names []string
}

// NewMentionExtractor builds an extractor over the given catalog. A nil or
// empty catalog falls back to the compiled-in default list.
func NewMentionExtractor(names []string) *MentionExtractor {
	if len(names) == 0 {
		names = DefaultNotableNames
	}
	return &MentionExtractor{names: names}
}

// Find returns every occurrence of every catalog name, matched
// ASCII-case-insensitively.
// The scan advances one character past each match start, so adjacent and
// overlapping occurrences of different names are all captured. Capping the
// result count is the caller's responsibility.
func (m *MentionExtractor) Find(text string) []Mention {
	// ASCII-only folding keeps byte offsets identical between the folded
	// text and the original; full Unicode lowercasing can change byte
	// lengths (the Kelvin sign folds to a 1-byte 'k') and shift every
	// index after it.
	lower := foldASCII(text)

	var out []Mention
	for _, name := range m.names {
		nameLower := foldASCII(name)
		idx := 0
		for {
			rel := strings.Index(lower[idx:], nameLower)
			if rel < 0 {
				break
			}
			at := idx + rel

			start := at - contextWindow
			if start < 0 {
				start = 0
			}
			for start > 0 && !utf8.RuneStart(text[start]) {
				start--
			}
			end := at + len(name) + contextWindow
			if end > len(text) {
				end = len(text)
			}
			for end < len(text) && !utf8.RuneStart(text[end]) {
				end++
			}

			out = append(out, Mention{
				Name:           name,
				NormalizedName: nameLower,
				Context:        strings.TrimSpace(text[start:end]),
			})
			idx = at + 1
		}
	}
	return out
}

// foldASCII lowercases ASCII letters in place, leaving every other byte
// untouched.
func foldASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
