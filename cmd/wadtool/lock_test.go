package main

import (
	"path/filepath"
	"testing"

	"github.com/juju/fslock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithLocks(t *testing.T) {
	t.Run("RemovesLockFiles", func(t *testing.T) {
		dir := t.TempDir()
		a := filepath.Join(dir, "a.wad")
		b := filepath.Join(dir, "b.wad")

		err := withLocks(func() error {
			assert.FileExists(t, a+LockExt)
			assert.FileExists(t, b+LockExt)
			return nil
		}, a, b, a)
		require.NoError(t, err)

		assert.NoFileExists(t, a+LockExt)
		assert.NoFileExists(t, b+LockExt)
	})

	t.Run("InUse", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "a.wad")

		other := fslock.New(path + LockExt)
		require.NoError(t, other.TryLock())
		defer other.Unlock()

		called := false
		err := withLocks(func() error {
			called = true
			return nil
		}, path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "in use")
		assert.False(t, called)
		assert.FileExists(t, path+LockExt)
	})

	t.Run("CommandLeavesNoLock", func(t *testing.T) {
		dir := t.TempDir()
		archive := filepath.Join(dir, "new.wad")
		_, err := wadtool(t, dir, "create", archive)
		require.NoError(t, err)

		matches, err := filepath.Glob(filepath.Join(dir, "*"+LockExt))
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}
