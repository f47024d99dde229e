package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirSource_ExportCopiesTree(t *testing.T) {
	src := makeSourceDir(t, map[string]string{
		"cv.pdf":              "resume bytes",
		"nested/notes.txt":    "notes",
		"nested/deep/more.md": "more",
	})
	dest := filepath.Join(t.TempDir(), "out")

	s := NewDirSource("user_uploads", src)
	require.NoError(t, s.Export(context.Background(), dest))

	for _, rel := range []string{"cv.pdf", "nested/notes.txt", "nested/deep/more.md"} {
		data, err := os.ReadFile(filepath.Join(dest, rel))
		require.NoError(t, err, rel)
		assert.NotEmpty(t, data)
	}
}

func TestDirSource_MissingRoot(t *testing.T) {
	s := NewDirSource("user_uploads", filepath.Join(t.TempDir(), "absent"))
	err := s.Export(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source directory unavailable")
}

func TestDirSource_RootIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	s := NewDirSource("user_uploads", path)
	err := s.Export(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestSQLiteSource_ExportCopiesFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "platform.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("sqlite data"), 0o644))
	dest := filepath.Join(t.TempDir(), "out")

	s := NewSQLiteSource(dbPath)
	assert.Equal(t, "database", s.Name())
	require.NoError(t, s.Export(context.Background(), dest))

	data, err := os.ReadFile(filepath.Join(dest, "platform.db"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite data", string(data))
}

func TestSQLiteSource_MissingFile(t *testing.T) {
	s := NewSQLiteSource(filepath.Join(t.TempDir(), "absent.db"))
	err := s.Export(context.Background(), t.TempDir())
	require.Error(t, err)
}

func TestTreeStats_StableChecksum(t *testing.T) {
	files := map[string]string{
		"b.txt":        "bravo",
		"a.txt":        "alpha",
		"nested/c.txt": "charlie",
	}
	first := makeSourceDir(t, files)
	second := makeSourceDir(t, files)

	size1, sum1, err := treeStats(first)
	require.NoError(t, err)
	size2, sum2, err := treeStats(second)
	require.NoError(t, err)

	assert.Equal(t, int64(len("bravo")+len("alpha")+len("charlie")), size1)
	assert.Equal(t, size1, size2)
	assert.Equal(t, sum1, sum2, "checksum must depend on content, not location or walk order")
	assert.Len(t, sum1, 64)
}

func TestTreeStats_ContentChangesChecksum(t *testing.T) {
	dir := makeSourceDir(t, map[string]string{"a.txt": "alpha"})
	_, before, err := treeStats(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("ALPHA"), 0o644))
	_, after, err := treeStats(dir)
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}
