package wad

import (
	"fmt"
	"os"
)

// Archive is the in-memory model of an archive: its header and its ordered
// directory. Order is significant (namespaces, level lumps).
type Archive struct {
	Header  Header
	Entries []Entry
	Size    int64 // Length of the underlying file
}

// ReaderAt is the subset of *os.File the model reads through.
type ReaderAt interface {
	ReadAt(p []byte, off int64) (n int, err error)
}

// ReadArchive reads the header and directory from r, whose total length is size.
func ReadArchive(r ReaderAt, size int64) (*Archive, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	if h.DirEnd() > size {
		return nil, ErrTruncatedArchive.New(fmt.Sprintf(
			"directory of %d entries at offset %d ends at %d, file is %d bytes",
			h.NumEntries, h.DirOffset, h.DirEnd(), size))
	}

	entries, err := ReadEntries(r, int64(h.DirOffset), h.NumEntries)
	if err != nil {
		return nil, err
	}

	return &Archive{Header: h, Entries: entries, Size: size}, nil
}

// Index returns the index of the first entry named name, or -1.
func (a *Archive) Index(name string) int {
	for i := range a.Entries {
		if a.Entries[i].Is(name) {
			return i
		}
	}
	return -1
}

// LastIndex returns the index of the last entry named name, or -1.
// This is the lookup rule the game engines use.
func (a *Archive) LastIndex(name string) int {
	for i := len(a.Entries) - 1; i >= 0; i-- {
		if a.Entries[i].Is(name) {
			return i
		}
	}
	return -1
}

// Backup returns the index of the backup entry, if any.
func (a *Archive) Backup() (int, bool) {
	i := a.LastIndex(BackupName)
	return i, i >= 0
}

// UsedBytes returns the minimum file length that holds the header, every
// payload and the directory.
func (a *Archive) UsedBytes() int64 {
	used := int64(HeaderSize) + int64(len(a.Entries))*EntrySize
	for _, e := range a.Entries {
		used += int64(e.Length)
	}
	return used
}

// Waste returns the number of bytes compaction would reclaim, never negative.
func (a *Archive) Waste() int64 {
	if waste := a.Size - a.UsedBytes(); waste > 0 {
		return waste
	}
	return 0
}

// DirectoryIsLast reports whether no payload extends past the directory offset.
// Zero-length markers are ignored.
func (a *Archive) DirectoryIsLast() bool {
	for _, e := range a.Entries {
		if e.Length > 0 && e.End() > int64(a.Header.DirOffset) {
			return false
		}
	}
	return true
}

// WriteCursor returns the offset at which new payloads may be appended
// without overwriting live data: the directory offset when the directory
// is the last structure, otherwise the end of the file.
func (a *Archive) WriteCursor() int64 {
	if a.DirectoryIsLast() {
		return int64(a.Header.DirOffset)
	}
	return a.Size
}

// CheckBounds verifies that every payload lies within the file.
func (a *Archive) CheckBounds() error {
	for i, e := range a.Entries {
		if e.Length > 0 && e.End() > a.Size {
			return ErrTruncatedArchive.New(fmt.Sprintf(
				"entry %d (%s) spans %d..%d, file is %d bytes",
				i, e.Name, e.Start, e.End(), a.Size))
		}
	}
	return nil
}

// Collisions returns, for each side, the indices of entries whose name
// appears on the other side. Level lumps never collide.
func (a *Archive) Collisions(other []Entry) (mine, theirs map[int]bool) {
	names := make(map[string][]int, len(other))
	for j, e := range other {
		name := e.Name.String()
		if IsLevelLump(name) {
			continue
		}
		names[name] = append(names[name], j)
	}

	mine = make(map[int]bool)
	theirs = make(map[int]bool)
	for i, e := range a.Entries {
		js, ok := names[e.Name.String()]
		if !ok {
			continue
		}
		mine[i] = true
		for _, j := range js {
			theirs[j] = true
		}
	}
	return mine, theirs
}

// Clone returns a deep copy of the archive.
func (a *Archive) Clone() *Archive {
	c := *a
	c.Entries = append([]Entry(nil), a.Entries...)
	return &c
}

// File is an archive opened from disk.
type File struct {
	*Archive
	f    *os.File
	path string
}

// Open opens the archive at path read-only and reads its directory.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ErrIO.Wrap(err, "open "+path)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ErrIO.Wrap(err, "stat "+path)
	}

	a, err := ReadArchive(f, info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}

	return &File{Archive: a, f: f, path: path}, nil
}

// ReadAt reads from the underlying file.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	return f.f.ReadAt(p, off)
}

// Path returns the path the archive was opened from.
func (f *File) Path() string {
	return f.path
}

// Close closes the underlying file.
func (f *File) Close() error {
	return f.f.Close()
}
