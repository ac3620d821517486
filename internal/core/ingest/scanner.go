package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// folderPatterns match the corpus dataset folder naming conventions under
// the corpus root.
var folderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^DataSet \d+$`),
	regexp.MustCompile(`(?i)^VOL\d+$`),
	regexp.MustCompile(`(?i)^dataset\d+`),
}

// Scanner discovers source folders and the PDFs inside them.
type Scanner struct {
	root string
}

func NewScanner(root string) *Scanner {
	return &Scanner{root: root}
}

// SourceFolders scans the immediate children of the corpus root and returns
// the directories matching the dataset naming patterns, sorted. Only an
// unreadable root is an error; that is a startup-fatal condition.
func (s *Scanner) SourceFolders() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read corpus root %s: %w", s.root, err)
	}

	var folders []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		for _, pattern := range folderPatterns {
			if pattern.MatchString(entry.Name()) {
				folders = append(folders, filepath.Join(s.root, entry.Name()))
				break
			}
		}
	}
	sort.Strings(folders)
	return folders, nil
}

// FindPDFs walks a source folder to any depth and returns every PDF path.
// The traversal uses an explicit stack rather than recursion; corpus
// folders can nest deeply and hold hundreds of thousands of files.
// Unreadable directories are skipped, not fatal.
func (s *Scanner) FindPDFs(folder string) []string {
	var pdfs []string
	stack := []string{folder}

	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			full := filepath.Join(dir, entry.Name())
			if entry.IsDir() {
				stack = append(stack, full)
			} else if strings.HasSuffix(strings.ToLower(entry.Name()), ".pdf") {
				pdfs = append(pdfs, full)
			}
		}
	}
	return pdfs
}
