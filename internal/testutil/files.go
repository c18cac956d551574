package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// CreateFile writes content to path, creating parent directories.
func CreateFile(t *testing.T, path, content string) {
	t.Helper()
	createFile(t, path, []byte(content), false, time.Time{})
}

// CreateFileWithModTime writes content to path and sets its modification time.
func CreateFileWithModTime(t *testing.T, path, content string, modTime time.Time) {
	t.Helper()
	createFile(t, path, []byte(content), true, modTime)
}

// CreateFiles writes each name under dir with the name itself as content.
func CreateFiles(t *testing.T, dir string, names ...string) {
	t.Helper()

	for _, name := range names {
		CreateFile(t, filepath.Join(dir, name), name)
	}
}

// ReadFile returns the content of path as a string.
func ReadFile(t *testing.T, path string) string {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(content)
}

// ListNames returns the sorted entry names of dir. Directories get a
// trailing slash.
func ListNames(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

func createFile(t *testing.T, path string, content []byte, setModTime bool, modTime time.Time) {
	t.Helper()

	err := os.MkdirAll(filepath.Dir(path), 0o755)
	require.NoError(t, err)

	err = os.WriteFile(path, content, 0o644)
	require.NoError(t, err)

	if !setModTime {
		return
	}

	err = os.Chtimes(path, modTime, modTime)
	require.NoError(t, err)
}
