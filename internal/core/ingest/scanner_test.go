package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkdirAll(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(path, 0o755))
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
}

func TestSourceFolders(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{
		"DataSet 1", "DataSet 12", "VOL00010", "vol002",
		"dataset9-prod", "Dataset3",
		"notes", "DataSetX", "archive 1",
	} {
		mkdirAll(t, filepath.Join(root, name))
	}
	// A matching name that is a file, not a directory, is ignored.
	touch(t, filepath.Join(root, "DataSet 99"))

	s := NewScanner(root)
	folders, err := s.SourceFolders()
	require.NoError(t, err)

	var names []string
	for _, f := range folders {
		names = append(names, filepath.Base(f))
	}
	assert.Equal(t, []string{
		"DataSet 1", "DataSet 12", "Dataset3", "VOL00010",
		"dataset9-prod", "vol002",
	}, names)
}

func TestSourceFoldersUnreadableRoot(t *testing.T) {
	s := NewScanner(filepath.Join(t.TempDir(), "missing"))
	_, err := s.SourceFolders()
	assert.Error(t, err)
}

func TestFindPDFs(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, "DataSet 1")
	mkdirAll(t, filepath.Join(folder, "sub", "deep"))
	mkdirAll(t, filepath.Join(folder, "images"))

	touch(t, filepath.Join(folder, "top.pdf"))
	touch(t, filepath.Join(folder, "UPPER.PDF"))
	touch(t, filepath.Join(folder, "sub", "mid.pdf"))
	touch(t, filepath.Join(folder, "sub", "deep", "bottom.pdf"))
	touch(t, filepath.Join(folder, "readme.txt"))
	touch(t, filepath.Join(folder, "images", "scan.png"))

	s := NewScanner(root)
	pdfs := s.FindPDFs(folder)

	var names []string
	for _, p := range pdfs {
		names = append(names, filepath.Base(p))
	}
	assert.ElementsMatch(t,
		[]string{"top.pdf", "UPPER.PDF", "mid.pdf", "bottom.pdf"}, names)
}

func TestFindPDFsMissingFolder(t *testing.T) {
	s := NewScanner(t.TempDir())
	assert.Empty(t, s.FindPDFs(filepath.Join(t.TempDir(), "absent")))
}
