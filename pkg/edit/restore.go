package edit

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nwtools/wadtools/pkg/wad"
)

// RestoreResult describes the outcome of Restore.
type RestoreResult struct {
	Entries   int // Entries in the restored directory
	Patched   int // Entries whose byte range was reset to the pre-merge value
	Dropped   int // Entries added by the merge
	DirOffset int64
}

// Restore undoes a Merge by reinstating the directory held in the archive's
// backup entry. Payload bytes are never touched and trailing data added by
// the merge is left in place for Compact to reclaim.
func Restore(path string, opts ...Option) (*RestoreResult, error) {
	cfg := newConfig(opts)
	log := cfg.log.WithField("path", path)

	a, err := wad.Open(path)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	idx, ok := a.Backup()
	if !ok {
		return nil, wad.ErrNoBackupFound.New(wad.BackupName)
	}
	backup := a.Entries[idx]
	if backup.Length%wad.EntrySize != 0 {
		return nil, wad.ErrFormat.New(fmt.Sprintf("backup entry length %d is not a multiple of %d", backup.Length, wad.EntrySize))
	}
	if backup.End() > a.Size {
		return nil, wad.ErrTruncatedArchive.New(fmt.Sprintf("backup entry spans %d..%d, file is %d bytes", backup.Start, backup.End(), a.Size))
	}

	snapshot, err := wad.ReadEntries(a, int64(backup.Start), backup.Length/wad.EntrySize)
	if err != nil {
		return nil, err
	}
	restored := &wad.Archive{Header: a.Header, Entries: snapshot, Size: a.Size}
	if err := restored.CheckBounds(); err != nil {
		return nil, err
	}

	res := &RestoreResult{Entries: len(snapshot)}
	res.Patched, res.Dropped = compareDirectories(a.Entries, snapshot)

	// The snapshot already sits at the backup entry's offset; point the
	// header back at it unless a pre-merge payload lies beyond it. Then the
	// directory goes at end of file so the merged directory survives until
	// the header is rewritten.
	offset := int64(backup.Start)
	for _, e := range snapshot {
		if e.Length > 0 && e.End() > offset {
			offset = max(a.Size, backup.End())
			log.WithField("offset", offset).Warn("Pre-merge payloads extend past the backup directory; writing directory at end of file")
			break
		}
	}

	t, err := openTarget(path, cfg.inPlace, cfg.log)
	if err != nil {
		return nil, err
	}
	defer t.abort()

	mover := wad.NewMover(cfg.chunkSize)
	if err := t.seed(mover, a, a.Size); err != nil {
		return nil, err
	}
	if _, err := writeDirectory(t, a.Header.Magic, offset, snapshot); err != nil {
		return nil, err
	}
	if err := t.commit(); err != nil {
		return nil, err
	}

	res.DirOffset = offset
	log.WithFields(logrus.Fields{
		"entries": res.Entries,
		"patched": res.Patched,
		"dropped": res.Dropped,
	}).Info("Restored pre-merge directory")
	return res, nil
}

// compareDirectories counts the entries of current whose byte range differs
// from the first snapshot entry of the same name, and the entries left over
// once every snapshot entry has been matched to one current entry by name.
func compareDirectories(current, snapshot []wad.Entry) (patched, dropped int) {
	first := make(map[string]wad.Entry, len(snapshot))
	remaining := make(map[string]int, len(snapshot))
	for _, e := range snapshot {
		name := e.Name.String()
		if _, ok := first[name]; !ok {
			first[name] = e
		}
		remaining[name]++
	}

	seen := make(map[string]bool, len(current))
	for _, e := range current {
		name := e.Name.String()
		if remaining[name] == 0 {
			dropped++
			continue
		}
		remaining[name]--

		if seen[name] {
			continue
		}
		seen[name] = true
		if old := first[name]; old.Start != e.Start || old.Length != e.Length {
			patched++
		}
	}
	return patched, dropped
}
