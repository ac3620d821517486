package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMentionExtractorFindsCaseInsensitive(t *testing.T) {
	m := NewMentionExtractor([]string{"Bill Gates"})
	text := "A deposition states that BILL GATES visited the island twice, " +
		"and later bill gates denied it."

	got := m.Find(text)
	require.Len(t, got, 2)
	for _, mn := range got {
		assert.Equal(t, "Bill Gates", mn.Name)
		assert.Equal(t, "bill gates", mn.NormalizedName)
		assert.Contains(t, strings.ToLower(mn.Context), "bill gates")
	}
}

func TestMentionExtractorContextWindow(t *testing.T) {
	m := NewMentionExtractor([]string{"Palm Beach"})
	pad := strings.Repeat("x", 300)
	text := pad + " Palm Beach " + pad

	got := m.Find(text)
	require.Len(t, got, 1)
	// 100 chars each side plus the name itself, minus trimmed whitespace.
	assert.LessOrEqual(t, len(got[0].Context), len("Palm Beach")+2*contextWindow)
	assert.Contains(t, got[0].Context, "Palm Beach")
}

func TestMentionExtractorTextShorterThanWindow(t *testing.T) {
	m := NewMentionExtractor([]string{"Zorro Ranch"})
	got := m.Find("Flew to Zorro Ranch.")
	require.Len(t, got, 1)
	assert.Equal(t, "Flew to Zorro Ranch.", got[0].Context)
}

func TestMentionExtractorMultipleNames(t *testing.T) {
	m := NewMentionExtractor([]string{"Alice Adams", "Bob Brown"})
	text := "Alice Adams met Bob Brown. Then Bob Brown left."

	got := m.Find(text)
	require.Len(t, got, 3)

	counts := map[string]int{}
	for _, mn := range got {
		counts[mn.NormalizedName]++
	}
	assert.Equal(t, 1, counts["alice adams"])
	assert.Equal(t, 2, counts["bob brown"])
}

func TestMentionExtractorNoMatch(t *testing.T) {
	m := NewMentionExtractor([]string{"Elon Musk"})
	assert.Empty(t, m.Find("Nothing of note in this passage."))
}

func TestMentionExtractorDefaultsCatalog(t *testing.T) {
	m := NewMentionExtractor(nil)
	got := m.Find("Records place Jeffrey Epstein at Little St. James.")
	names := map[string]bool{}
	for _, mn := range got {
		names[mn.NormalizedName] = true
	}
	assert.True(t, names["jeffrey epstein"])
	assert.True(t, names["little st. james"])
}

func TestMentionExtractorContextStaysValidUTF8(t *testing.T) {
	// Curly quotes are three bytes each, so both window edges land inside
	// a rune and must be rounded out before slicing.
	m := NewMentionExtractor([]string{"Bill Gates"})
	text := strings.Repeat("“", 60) + "Bill Gates" + strings.Repeat("”", 60)

	got := m.Find(text)
	require.Len(t, got, 1)
	assert.True(t, utf8.ValidString(got[0].Context))
	assert.Contains(t, got[0].Context, "Bill Gates")
}

func TestMentionExtractorOffsetsSurviveUnicodeFolding(t *testing.T) {
	// The Kelvin sign lowercases to a one-byte 'k'; folding must not
	// shrink the searched text or every later match offset shifts.
	m := NewMentionExtractor([]string{"Bill Gates"})
	text := "Noted 301K on the dial. " + strings.Repeat("x", 150) +
		" Bill Gates spoke at length. " + strings.Repeat("y", 150)

	got := m.Find(text)
	require.Len(t, got, 1)

	at := strings.Index(text, "Bill Gates")
	want := strings.TrimSpace(text[at-100 : at+len("Bill Gates")+100])
	assert.Equal(t, want, got[0].Context)
}

func TestFoldASCII(t *testing.T) {
	assert.Equal(t, "bill gates", foldASCII("BILL Gates"))
	assert.Equal(t, "301K cafÉ", foldASCII("301K CafÉ"))
	assert.Len(t, foldASCII("301K"), len("301K"))
}

func TestLoadNames(t *testing.T) {
	t.Run("skips blanks and comments", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "names.txt")
		content := "# watch list\nJane Doe\n\n  John Roe  \n# trailing comment\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		names, err := LoadNames(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"Jane Doe", "John Roe"}, names)
	})

	t.Run("empty file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "names.txt")
		require.NoError(t, os.WriteFile(path, []byte("# only comments\n"), 0o644))

		_, err := LoadNames(path)
		assert.Error(t, err)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := LoadNames(filepath.Join(t.TempDir(), "absent.txt"))
		assert.Error(t, err)
	})
}
