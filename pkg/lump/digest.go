package lump

import (
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/nwtools/wadtools/pkg/wad"
)

// Digest returns the xxhash64 of the payload of e.
func Digest(r io.ReaderAt, e wad.Entry) (uint64, error) {
	h := xxhash.New()
	n, err := io.Copy(h, io.NewSectionReader(r, int64(e.Start), int64(e.Length)))
	if err != nil {
		return 0, wad.ErrIO.Wrap(err, "read "+e.Name.String())
	}
	if n != int64(e.Length) {
		return 0, wad.ErrTruncatedArchive.New("entry " + e.Name.String() + " extends past end of file")
	}
	return h.Sum64(), nil
}

// Change classifies a Difference.
type Change int

const (
	Added Change = iota
	Removed
	Renamed
	Modified
)

func (c Change) String() string {
	switch c {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Renamed:
		return "renamed"
	default:
		return "modified"
	}
}

// Difference is a directory position at which two archives differ.
type Difference struct {
	Index  int
	Change Change
	Old    wad.Entry // Zero for Added
	New    wad.Entry // Zero for Removed
}

// Diff compares two archives position by position. Entries at the same
// index differ when their names differ or their payload contents differ;
// offsets are ignored.
func Diff(a *wad.Archive, ra io.ReaderAt, b *wad.Archive, rb io.ReaderAt) ([]Difference, error) {
	var diffs []Difference

	n := max(len(a.Entries), len(b.Entries))
	for i := 0; i < n; i++ {
		switch {
		case i >= len(a.Entries):
			diffs = append(diffs, Difference{Index: i, Change: Added, New: b.Entries[i]})
			continue
		case i >= len(b.Entries):
			diffs = append(diffs, Difference{Index: i, Change: Removed, Old: a.Entries[i]})
			continue
		}

		old, cur := a.Entries[i], b.Entries[i]
		if old.Name != cur.Name {
			diffs = append(diffs, Difference{Index: i, Change: Renamed, Old: old, New: cur})
			continue
		}
		if old.Length != cur.Length {
			diffs = append(diffs, Difference{Index: i, Change: Modified, Old: old, New: cur})
			continue
		}

		da, err := Digest(ra, old)
		if err != nil {
			return nil, err
		}
		db, err := Digest(rb, cur)
		if err != nil {
			return nil, err
		}
		if da != db {
			diffs = append(diffs, Difference{Index: i, Change: Modified, Old: old, New: cur})
		}
	}
	return diffs, nil
}
