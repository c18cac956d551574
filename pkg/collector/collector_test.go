package collector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filesorter/internal/testutil"
)

// setupTestDir creates:
//
//	tmpDir/
//	  b.txt
//	  a.jpg
//	  .hidden
//	  Images/
//	    nested.jpg
func setupTestDir(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	testutil.CreateFiles(t, tmpDir, "b.txt", "a.jpg", ".hidden", "Images/nested.jpg")

	return tmpDir
}

func names(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}

	return out
}

func TestCollector_Collect_NonRecursive(t *testing.T) {
	tmpDir := setupTestDir(t)

	files, err := New(Options{}).Collect(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, []string{".hidden", "a.jpg", "b.txt"}, names(files))

	for _, f := range files {
		assert.Equal(t, filepath.Join(tmpDir, f.Name), f.Path)
		assert.Equal(t, tmpDir, f.Dir)
		assert.NotZero(t, f.Size, "file has zero Size")
		assert.False(t, f.ModTime.IsZero(), "file has zero ModTime")
	}
}

func TestCollector_Collect_SkipFiles(t *testing.T) {
	tmpDir := setupTestDir(t)

	files, err := New(Options{SkipFiles: []string{".hidden"}}).Collect(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.jpg", "b.txt"}, names(files))
}

func TestCollector_Collect_SkipPaths(t *testing.T) {
	tmpDir := setupTestDir(t)
	logPath := filepath.Join(tmpDir, "undo_log.json")
	testutil.CreateFile(t, logPath, "{}")

	files, err := New(Options{SkipPaths: []string{logPath}}).Collect(tmpDir)
	require.NoError(t, err)

	assert.NotContains(t, names(files), "undo_log.json")
	assert.Len(t, files, 3)
}

func TestCollector_Collect_SkipsSymlinks(t *testing.T) {
	tmpDir := setupTestDir(t)
	require.NoError(t, os.Symlink(filepath.Join(tmpDir, "a.jpg"), filepath.Join(tmpDir, "link.jpg")))
	require.NoError(t, os.Symlink(filepath.Join(tmpDir, "Images"), filepath.Join(tmpDir, "link-dir")))

	files, err := New(Options{}).Collect(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, []string{".hidden", "a.jpg", "b.txt"}, names(files))
}

func TestCollector_Collect_EmptyDir(t *testing.T) {
	files, err := New(Options{}).Collect(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestCollector_Collect_MissingDir(t *testing.T) {
	_, err := New(Options{}).Collect(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
