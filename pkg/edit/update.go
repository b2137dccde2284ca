package edit

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/nwtools/wadtools/pkg/wad"
)

// draftEntry is a directory entry and, for entries added or replaced during
// the session, the payload to write.
type draftEntry struct {
	entry   wad.Entry
	data    []byte
	pending bool
}

// Draft is an editable copy of an archive's directory. Changes are written
// by Update when the editing function returns.
type Draft struct {
	entries []draftEntry
	changed bool
}

func newDraft(entries []wad.Entry) *Draft {
	d := &Draft{entries: make([]draftEntry, len(entries))}
	for i, e := range entries {
		d.entries[i].entry = e
	}
	return d
}

// Len returns the number of entries.
func (d *Draft) Len() int {
	return len(d.entries)
}

// Entries returns a copy of the current directory. Pending payloads have
// not been placed yet, so their Start is zero.
func (d *Draft) Entries() []wad.Entry {
	out := make([]wad.Entry, len(d.entries))
	for i, de := range d.entries {
		out[i] = de.entry
	}
	return out
}

// Index returns the index of the first entry named name, or -1.
func (d *Draft) Index(name string) int {
	for i, de := range d.entries {
		if de.entry.Is(name) {
			return i
		}
	}
	return -1
}

func (d *Draft) check(i int) error {
	if i < 0 || i >= len(d.entries) {
		return fmt.Errorf("entry index %d out of range [0, %d)", i, len(d.entries))
	}
	return nil
}

// Insert adds a new entry before index before. An index equal to Len appends.
func (d *Draft) Insert(before int, name string, data []byte) error {
	if before < 0 || before > len(d.entries) {
		return fmt.Errorf("insert position %d out of range [0, %d]", before, len(d.entries))
	}
	de := draftEntry{
		entry:   wad.NewEntry(name, 0, uint32(len(data))),
		data:    data,
		pending: true,
	}
	d.entries = append(d.entries, draftEntry{})
	copy(d.entries[before+1:], d.entries[before:])
	d.entries[before] = de
	d.changed = true
	return nil
}

// Append adds a new entry at the end of the directory.
func (d *Draft) Append(name string, data []byte) {
	d.Insert(len(d.entries), name, data)
}

// Replace sets the payload of entry i.
func (d *Draft) Replace(i int, data []byte) error {
	if err := d.check(i); err != nil {
		return err
	}
	de := &d.entries[i]
	de.entry.Start = 0
	de.entry.Length = uint32(len(data))
	de.data = data
	de.pending = true
	d.changed = true
	return nil
}

// Delete removes entry i. Its payload bytes stay in the file.
func (d *Draft) Delete(i int) error {
	if err := d.check(i); err != nil {
		return err
	}
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	d.changed = true
	return nil
}

// Rename sets the name of entry i.
func (d *Draft) Rename(i int, name string) error {
	if err := d.check(i); err != nil {
		return err
	}
	d.entries[i].entry.Name = wad.MakeName(name)
	d.changed = true
	return nil
}

// Swap exchanges the positions of entries i and j.
func (d *Draft) Swap(i, j int) error {
	if err := d.check(i); err != nil {
		return err
	}
	if err := d.check(j); err != nil {
		return err
	}
	d.entries[i], d.entries[j] = d.entries[j], d.entries[i]
	d.changed = true
	return nil
}

// UpdateResult describes the outcome of Update.
type UpdateResult struct {
	Entries   int   // Entries in the new directory
	Written   int64 // Payload bytes appended
	DirOffset int64
	Changed   bool
}

// Update runs fn on a draft of the archive's directory and commits the
// result. New payloads are appended at the write cursor and a fresh
// directory is written after them; existing payload bytes never move.
// If fn returns an error or makes no change, the archive is left untouched.
func Update(path string, fn func(*Draft) error, opts ...Option) (*UpdateResult, error) {
	cfg := newConfig(opts)
	log := cfg.log.WithField("path", path)

	a, err := wad.Open(path)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	d := newDraft(a.Entries)
	if err := fn(d); err != nil {
		return nil, err
	}
	res := &UpdateResult{Entries: len(d.entries), DirOffset: int64(a.Header.DirOffset)}
	if !d.changed {
		log.Debug("No changes to commit")
		return res, nil
	}

	cursor := a.WriteCursor()
	if !a.DirectoryIsLast() {
		log.Warn("Directory is not the last structure in the file; appending at end of file")
	}

	t, err := openTarget(path, cfg.inPlace, cfg.log)
	if err != nil {
		return nil, err
	}
	defer t.abort()

	if err := t.seed(wad.NewMover(cfg.chunkSize), a, cursor); err != nil {
		return nil, err
	}

	entries := make([]wad.Entry, len(d.entries))
	start := cursor
	for i, de := range d.entries {
		entries[i] = de.entry
		if !de.pending {
			continue
		}
		entries[i].Start = uint32(cursor)
		if len(de.data) == 0 {
			continue
		}
		if _, err := t.WriteAt(de.data, cursor); err != nil {
			return nil, wad.ErrIO.Wrap(err, "write "+de.entry.Name.String())
		}
		cursor += int64(len(de.data))
	}

	if _, err := writeDirectory(t, a.Header.Magic, cursor, entries); err != nil {
		return nil, err
	}
	if err := t.commit(); err != nil {
		return nil, err
	}

	res.Written = cursor - start
	res.DirOffset = cursor
	res.Changed = true

	log.WithFields(logrus.Fields{
		"entries": res.Entries,
		"written": res.Written,
	}).Infof("Committed directory changes (%s appended)", humanize.Bytes(uint64(res.Written)))
	return res, nil
}
