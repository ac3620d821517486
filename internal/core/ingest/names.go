package ingest

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// DefaultNotableNames is the compiled-in catalog of names and places the
// mention extractor tracks. A run can swap it out via LoadNames without a
// rebuild.
var DefaultNotableNames = []string{
	"Bill Gates", "Donald Trump", "Bill Clinton", "Hillary Clinton",
	"Prince Andrew", "Alan Dershowitz", "Ghislaine Maxwell", "Les Wexner",
	"Stephen Hawking", "Elon Musk", "Kevin Spacey", "Chris Tucker",
	"Naomi Campbell", "Jean-Luc Brunel", "Ehud Barak", "Larry Summers",
	"Leon Black", "Marvin Minsky", "Reid Hoffman", "George Mitchell",
	"Glenn Dubin", "Eva Dubin", "Sarah Kellen", "Nadia Marcinkova",
	"Virginia Giuffre", "Virginia Roberts", "Jeffrey Epstein",
	"Palm Beach", "Little St. James", "Zorro Ranch",
}

// LoadNames reads a name catalog from a file, one name per line. Blank
// lines and lines starting with '#' are skipped.
func LoadNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open names file: %w", err)
	}
	defer f.Close()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read names file: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("names file %s contains no names", path)
	}
	return names, nil
}
