package ingest

// The readability gate decides whether extracted text is usable prose or
// extraction noise. It is a cheap heuristic filter, not a language model:
// OCR garbage and binary junk score low on common-word density and on
// alphanumeric density, which is all we check.

// commonWords is a fixed set of frequent English function words used for
// the quality ratio.
var commonWords = map[string]bool{
	"the": true, "be": true, "to": true, "of": true, "and": true,
	"a": true, "in": true, "that": true, "have": true, "i": true,
	"it": true, "for": true, "not": true, "on": true, "with": true,
	"he": true, "as": true, "you": true, "do": true, "at": true,
	"this": true, "but": true, "his": true, "by": true, "from": true,
	"they": true, "we": true, "say": true, "her": true, "she": true,
	"or": true, "an": true, "will": true, "my": true, "one": true,
	"all": true, "would": true, "there": true, "their": true, "what": true,
	"so": true, "up": true, "out": true, "if": true, "about": true,
	"who": true, "get": true, "which": true, "go": true, "me": true,
	"when": true, "make": true, "can": true, "like": true, "time": true,
	"no": true, "just": true, "him": true, "know": true, "take": true,
	"people": true, "into": true, "year": true, "your": true, "good": true,
	"some": true, "could": true, "them": true, "see": true, "other": true,
	"than": true, "then": true, "now": true, "look": true, "only": true,
	"come": true, "its": true, "over": true, "think": true, "also": true,
	"back": true, "after": true, "use": true, "two": true, "how": true,
	"our": true, "work": true, "first": true, "well": true, "way": true,
	"even": true, "new": true, "want": true, "because": true, "any": true,
	"these": true, "give": true, "day": true, "most": true, "us": true,
	"is": true, "was": true, "are": true, "been": true, "has": true,
	"had": true, "were": true, "said": true, "did": true, "made": true,
}

// ClassifierConfig holds the readability thresholds. The source datasets
// were processed with slightly different values over time, so all three are
// tunable rather than baked in.
type ClassifierConfig struct {
	MinTextLength int     // minimum characters before anything else is checked
	MinWordRatio  float64 // minimum fraction of words in the common set
	MinAlphaRatio float64 // minimum fraction of alphanumeric characters
}

// Classifier applies the readability gate.
type Classifier struct {
	cfg ClassifierConfig
}

func NewClassifier(cfg ClassifierConfig) *Classifier {
	if cfg.MinTextLength <= 0 {
		cfg.MinTextLength = 50
	}
	if cfg.MinWordRatio <= 0 {
		cfg.MinWordRatio = 0.2
	}
	if cfg.MinAlphaRatio <= 0 {
		cfg.MinAlphaRatio = 0.4
	}
	return &Classifier{cfg: cfg}
}

// IsReadable reports whether text looks like usable prose. The verdict is
// deterministic for a given input and configuration.
func (c *Classifier) IsReadable(text string) bool {
	runes := []rune(text)
	if len(runes) < c.cfg.MinTextLength {
		return false
	}

	words := alphaWords(runes)
	if len(words) < 5 {
		return false
	}

	common := 0
	for _, w := range words {
		if commonWords[w] {
			common++
		}
	}
	if float64(common)/float64(len(words)) < c.cfg.MinWordRatio {
		return false
	}

	alnum := 0
	for _, r := range runes {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			alnum++
		}
	}
	return float64(alnum)/float64(len(runes)) >= c.cfg.MinAlphaRatio
}

// alphaWords extracts lowercase alphabetic runs of length >= 2. Digits and
// punctuation break words, so "asdf1234" yields only "asdf".
func alphaWords(runes []rune) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) >= 2 {
			words = append(words, string(cur))
		}
		cur = cur[:0]
	}
	for _, r := range runes {
		switch {
		case r >= 'a' && r <= 'z':
			cur = append(cur, r)
		case r >= 'A' && r <= 'Z':
			cur = append(cur, r+('a'-'A'))
		default:
			flush()
		}
	}
	flush()
	return words
}
