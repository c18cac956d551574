package filelock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_AndClose(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "undo_log.json.lock")

	lock, err := Acquire(lockPath)
	require.NoError(t, err, "first acquire should succeed")
	require.NotNil(t, lock)

	assert.FileExists(t, lockPath, "lock file should exist while held")

	require.NoError(t, lock.Close(), "release should succeed")

	_, err = os.Stat(lockPath)
	assert.True(t, os.IsNotExist(err), "lock file should be removed after release")
}

func TestAcquire_SecondAcquireFails(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "undo_log.json.lock")

	lock1, err := Acquire(lockPath)
	require.NoError(t, err, "first acquire should succeed")

	t.Cleanup(func() {
		_ = lock1.Close()
	})

	lock2, err := Acquire(lockPath)
	require.ErrorIs(t, err, ErrLocked, "second acquire should fail while first is held")
	assert.Nil(t, lock2)
}

func TestAcquire_AfterRelease(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "undo_log.json.lock")

	lock1, err := Acquire(lockPath)
	require.NoError(t, err)
	require.NoError(t, lock1.Close())

	lock2, err := Acquire(lockPath)
	require.NoError(t, err, "lock can be taken again once released")
	require.NoError(t, lock2.Close())
}

func TestClose_NilLock(t *testing.T) {
	t.Parallel()

	var lock *Lock
	assert.NoError(t, lock.Close(), "release on nil lock should be no-op")
}
