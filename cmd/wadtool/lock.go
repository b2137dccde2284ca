package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/juju/fslock"
)

// LockExt is appended to an archive path to name its lock file.
const LockExt = ".lock"

// withLocks holds an advisory lock on each archive for the duration of fn,
// so two invocations never rewrite the same file at once. Lock files are
// removed once released.
func withLocks(fn func() error, paths ...string) error {
	var held []string
	locks := make(map[string]*fslock.Lock, len(paths))
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			name := held[i]
			locks[name].Unlock()
			os.Remove(name)
		}
	}()

	seen := make(map[string]bool, len(paths))
	for _, path := range paths {
		if seen[path] {
			continue
		}
		seen[path] = true

		name := path + LockExt
		lck := fslock.New(name)
		if err := lck.TryLock(); err != nil {
			if errors.Is(err, fslock.ErrLocked) {
				return fmt.Errorf("%s is in use by another process", path)
			}
			return fmt.Errorf("lock %s: %w", path, err)
		}
		locks[name] = lck
		held = append(held, name)
	}
	return fn()
}
