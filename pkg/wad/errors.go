package wad

import (
	errors "gopkg.in/src-d/go-errors.v1"
)

// Error kinds returned by the codec, the model and the directory engines.
// Test membership with Kind.Is; causes from the os and io packages are
// attached with Kind.Wrap.
var (
	// ErrFormat is returned for a bad magic tag or a short header.
	ErrFormat = errors.NewKind("invalid archive format: %s")

	// ErrTruncatedArchive is returned when the directory or a payload it
	// references extends past the end of the file.
	ErrTruncatedArchive = errors.NewKind("truncated archive: %s")

	// ErrNamespaceNotFound is returned when a required *_START/*_END pair is missing.
	ErrNamespaceNotFound = errors.NewKind("namespace %s not found: missing %s")

	// ErrNoBackupFound is returned by restore when the archive was never merged.
	ErrNoBackupFound = errors.NewKind("no %s backup entry found")

	// ErrCollisionUnresolved is returned when a join finds name collisions
	// and the caller supplied no policy.
	ErrCollisionUnresolved = errors.NewKind("%d resources share a name with the primary archive (%s); a collision policy is required")

	// ErrAlreadyMerged is returned by operations that would invalidate the
	// backup entry of a merged archive.
	ErrAlreadyMerged = errors.NewKind("archive already carries a %s backup entry; restore it first")

	// ErrNoSuchEntry is returned when a named entry does not exist.
	ErrNoSuchEntry = errors.NewKind("no entry named %q")

	// ErrIO wraps an underlying read, write or seek failure.
	ErrIO = errors.NewKind("i/o error: %s")
)
