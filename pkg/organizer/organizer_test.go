package organizer

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filesorter/internal/testutil"
	"filesorter/pkg/category"
	"filesorter/pkg/collector"
)

func exampleTable() *category.Table {
	return category.New(
		category.Category{Name: "Images", Extensions: []string{".jpg"}},
		category.Category{Name: "Docs", Extensions: []string{".txt"}},
	)
}

func newOrganizer(t *testing.T, root string, table *category.Table, dryRun bool) *Organizer {
	t.Helper()

	o, err := New(root, table, dryRun)
	require.NoError(t, err)

	return o
}

func collectFiles(t *testing.T, root string) []collector.FileInfo {
	t.Helper()

	files, err := collector.New(collector.Options{}).Collect(root)
	require.NoError(t, err)

	return files
}

func TestOrganizer_ExampleScenario(t *testing.T) {
	o := newOrganizer(t, t.TempDir(), exampleTable(), false)
	root := o.Root()
	testutil.CreateFiles(t, root, "a.jpg", "b.txt", "c.exe")

	result, err := o.OrganizeFiles(collectFiles(t, root))
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalFiles)
	assert.Equal(t, 3, result.MovedCount)
	assert.Equal(t, 3, result.CreatedDirsCount)

	assert.Equal(t, "a.jpg", testutil.ReadFile(t, filepath.Join(root, "Images", "a.jpg")))
	assert.Equal(t, "b.txt", testutil.ReadFile(t, filepath.Join(root, "Docs", "b.txt")))
	assert.Equal(t, "c.exe", testutil.ReadFile(t, filepath.Join(root, category.Others, "c.exe")))
	assert.Equal(t, []string{"Docs/", "Images/", "Others/"}, testutil.ListNames(t, root))
}

func TestOrganizer_RecordsUndoLog(t *testing.T) {
	o := newOrganizer(t, t.TempDir(), exampleTable(), false)
	root := o.Root()
	testutil.CreateFiles(t, root, "a.jpg", "c.exe")

	result, err := o.OrganizeFiles(collectFiles(t, root))
	require.NoError(t, err)

	require.Equal(t, 2, result.Log.Len())
	entry, ok := result.Log.Lookup("a.jpg")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "a.jpg"), entry.Original)
	assert.Equal(t, filepath.Join(root, "Images", "a.jpg"), entry.Destination)

	entry, ok = result.Log.Lookup("c.exe")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "Others", "c.exe"), entry.Destination)

	require.Len(t, result.Operations, 2)
	assert.Equal(t, "Images", result.Operations[0].Category)
	assert.Equal(t, category.Others, result.Operations[1].Category)
}

func TestOrganizer_DefaultTable_EveryKnownFileLeavesRoot(t *testing.T) {
	o := newOrganizer(t, t.TempDir(), category.Default(), false)
	root := o.Root()
	testutil.CreateFiles(t, root, "holiday.JPG", "clip.mkv", "cv.pdf", "song.mp3", "backup.7z")

	result, err := o.OrganizeFiles(collectFiles(t, root))
	require.NoError(t, err)

	assert.Equal(t, 5, result.MovedCount)
	assert.Empty(t, collectFiles(t, root), "no flat files remain in the root")
	assert.FileExists(t, filepath.Join(root, "Images", "holiday.JPG"))
	assert.FileExists(t, filepath.Join(root, "Videos", "clip.mkv"))
	assert.FileExists(t, filepath.Join(root, "Documents", "cv.pdf"))
	assert.FileExists(t, filepath.Join(root, "Music", "song.mp3"))
	assert.FileExists(t, filepath.Join(root, "Archives", "backup.7z"))
}

func TestOrganizer_NoExtensionAndDotfiles_GoToOthers(t *testing.T) {
	o := newOrganizer(t, t.TempDir(), category.Default(), false)
	root := o.Root()
	testutil.CreateFiles(t, root, "Makefile", ".gitignore")

	result, err := o.OrganizeFiles(collectFiles(t, root))
	require.NoError(t, err)

	assert.Equal(t, 2, result.MovedCount)
	assert.FileExists(t, filepath.Join(root, "Others", "Makefile"))
	assert.FileExists(t, filepath.Join(root, "Others", ".gitignore"))
}

func TestOrganizer_FirstMatchWins(t *testing.T) {
	table := category.New(
		category.Category{Name: "Scans", Extensions: []string{".pdf"}},
		category.Category{Name: "Documents", Extensions: []string{".pdf"}},
	)
	o := newOrganizer(t, t.TempDir(), table, false)
	root := o.Root()
	testutil.CreateFiles(t, root, "invoice.pdf")

	_, err := o.OrganizeFiles(collectFiles(t, root))
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(root, "Scans", "invoice.pdf"))
	assert.NoDirExists(t, filepath.Join(root, "Documents"))
}

func TestOrganizer_ExistingCategoryFolderIsReused(t *testing.T) {
	o := newOrganizer(t, t.TempDir(), exampleTable(), false)
	root := o.Root()
	testutil.CreateFiles(t, root, "Images/old.jpg", "new.jpg")

	result, err := o.OrganizeFiles(collectFiles(t, root))
	require.NoError(t, err)

	assert.Equal(t, 1, result.MovedCount)
	assert.Equal(t, 0, result.CreatedDirsCount)
	assert.FileExists(t, filepath.Join(root, "Images", "old.jpg"))
	assert.FileExists(t, filepath.Join(root, "Images", "new.jpg"))
}

func TestOrganizer_SecondRunMovesNothing(t *testing.T) {
	o := newOrganizer(t, t.TempDir(), exampleTable(), false)
	root := o.Root()
	testutil.CreateFiles(t, root, "a.jpg", "b.txt", "c.exe")

	_, err := o.OrganizeFiles(collectFiles(t, root))
	require.NoError(t, err)

	result, err := o.OrganizeFiles(collectFiles(t, root))
	require.NoError(t, err)

	assert.Equal(t, 0, result.MovedCount)
	assert.Equal(t, 0, result.Log.Len())
}

func TestOrganizer_ExistingDestinationIsReplaced(t *testing.T) {
	o := newOrganizer(t, t.TempDir(), category.Default(), false)
	root := o.Root()
	testutil.CreateFile(t, filepath.Join(root, "Documents", "report.pdf"), "first")
	testutil.CreateFile(t, filepath.Join(root, "report.pdf"), "second")

	result, err := o.OrganizeFiles(collectFiles(t, root))
	require.NoError(t, err)

	assert.Equal(t, 1, result.MovedCount)
	assert.Equal(t, "second", testutil.ReadFile(t, filepath.Join(root, "Documents", "report.pdf")))
}

func TestOrganizer_DryRun_NoFilesystemChanges(t *testing.T) {
	o := newOrganizer(t, t.TempDir(), exampleTable(), true)
	root := o.Root()
	testutil.CreateFiles(t, root, "a.jpg", "c.exe")

	result, err := o.OrganizeFiles(collectFiles(t, root))
	require.NoError(t, err)

	assert.True(t, o.DryRun())
	assert.Equal(t, 2, result.MovedCount)
	assert.Equal(t, 2, result.CreatedDirsCount)
	assert.Equal(t, 2, result.Log.Len())
	assert.Equal(t, []string{"a.jpg", "c.exe"}, testutil.ListNames(t, root))
}

func TestOrganizer_StopsAtFirstError(t *testing.T) {
	o := newOrganizer(t, t.TempDir(), exampleTable(), false)
	root := o.Root()
	testutil.CreateFiles(t, root, "a.jpg", "b.txt", "c.exe")

	// A regular file where the Docs folder should be makes directory creation fail.
	testutil.CreateFile(t, filepath.Join(root, "Docs"), "blocker")

	files := collectFiles(t, root)
	// Drop the blocker itself from the scan.
	files = files[1:]
	require.Equal(t, "a.jpg", files[0].Name)

	result, err := o.OrganizeFiles(files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b.txt")

	assert.Equal(t, 1, result.MovedCount)
	assert.Equal(t, 1, result.Log.Len())
	assert.FileExists(t, filepath.Join(root, "Images", "a.jpg"), "earlier moves stay done")
	assert.FileExists(t, filepath.Join(root, "b.txt"))
	assert.FileExists(t, filepath.Join(root, "c.exe"), "later files are not touched")
}

func TestOrganizer_PermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	o := newOrganizer(t, t.TempDir(), exampleTable(), false)
	root := o.Root()
	testutil.CreateFiles(t, root, "a.jpg")
	require.NoError(t, os.Chmod(root, 0o555))
	t.Cleanup(func() {
		_ = os.Chmod(root, 0o755)
	})

	result, err := o.OrganizeFiles(collectFiles(t, root))
	require.Error(t, err)
	assert.Equal(t, 0, result.MovedCount)
}

func TestOrganizer_CategoryEscapingRootIsRejected(t *testing.T) {
	table := category.New(category.Category{Name: "../outside", Extensions: []string{".jpg"}})
	o := newOrganizer(t, t.TempDir(), table, false)
	root := o.Root()
	testutil.CreateFiles(t, root, "a.jpg")

	_, err := o.OrganizeFiles(collectFiles(t, root))
	require.Error(t, err)
	assert.FileExists(t, filepath.Join(root, "a.jpg"))
}

func TestOrganizer_Progress(t *testing.T) {
	o := newOrganizer(t, t.TempDir(), exampleTable(), false)
	root := o.Root()
	testutil.CreateFiles(t, root, "a.jpg", "b.txt")

	var calls [][2]int
	_, err := o.OrganizeFilesWithProgress(collectFiles(t, root), func(processed, total int) {
		calls = append(calls, [2]int{processed, total})
	})
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, calls)
}

func TestNew_RequiresTable(t *testing.T) {
	_, err := New(t.TempDir(), nil, false)
	require.ErrorIs(t, err, ErrInvalidTable)

	_, err = New(filepath.Join(t.TempDir(), "missing"), category.Default(), false)
	require.Error(t, err)
}
