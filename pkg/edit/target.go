package edit

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nwtools/wadtools/pkg/wad"
)

// target is the file an operation writes its result to. By default the
// result is built in a temporary file beside path and renamed over it on
// commit, so a failed operation leaves the original untouched.
type target struct {
	path string // Final location
	tmp  string // Build location; empty when writing in place
	f    *os.File
	log  logrus.FieldLogger
	done bool
}

// createTarget starts a fresh build of path.
func createTarget(path string, log logrus.FieldLogger) (*target, error) {
	dir, base := filepath.Split(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", base, uuid.NewString()))

	f, err := os.OpenFile(tmp, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, wad.ErrIO.Wrap(err, "create "+tmp)
	}
	if info, err := os.Stat(path); err == nil {
		if err := f.Chmod(info.Mode().Perm()); err != nil {
			log.WithError(err).WithField("tmp", tmp).Warn("Could not copy file mode to output")
		}
	}

	log.WithField("tmp", tmp).Debug("Building output")
	return &target{path: path, tmp: tmp, f: f, log: log}, nil
}

// openTarget opens path for an append-only update. Unless inPlace is set,
// the caller must seed the build with the bytes it keeps.
func openTarget(path string, inPlace bool, log logrus.FieldLogger) (*target, error) {
	if !inPlace {
		return createTarget(path, log)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, wad.ErrIO.Wrap(err, "open "+path)
	}
	log.WithField("path", path).Warn("Writing in place; an interrupted operation leaves the archive corrupt")
	return &target{path: path, f: f, log: log}, nil
}

func (t *target) inPlace() bool {
	return t.tmp == ""
}

func (t *target) ReadAt(p []byte, off int64) (int, error) {
	return t.f.ReadAt(p, off)
}

func (t *target) WriteAt(p []byte, off int64) (int, error) {
	return t.f.WriteAt(p, off)
}

// seed copies the first n bytes of src into a fresh build. In place the
// bytes are already there.
func (t *target) seed(m *wad.Mover, src io.ReaderAt, n int64) error {
	if t.inPlace() {
		return nil
	}
	_, err := m.Copy(t, 0, src, 0, n)
	return err
}

// commit flushes the result and moves it to its final location.
func (t *target) commit() error {
	t.done = true

	if err := t.f.Sync(); err != nil {
		t.f.Close()
		t.remove()
		return wad.ErrIO.Wrap(err, "sync "+t.f.Name())
	}
	if err := t.f.Close(); err != nil {
		t.remove()
		return wad.ErrIO.Wrap(err, "close "+t.f.Name())
	}
	if t.inPlace() {
		return nil
	}
	if err := os.Rename(t.tmp, t.path); err != nil {
		t.remove()
		return wad.ErrIO.Wrap(err, "replace "+t.path)
	}
	return nil
}

// abort discards an uncommitted build. It is a no-op after commit.
func (t *target) abort() {
	if t.done {
		return
	}
	t.done = true
	t.f.Close()
	t.remove()
}

func (t *target) remove() {
	if t.inPlace() {
		return
	}
	if err := os.Remove(t.tmp); err != nil && !os.IsNotExist(err) {
		t.log.WithError(err).Warn("Failed to remove temporary file")
	}
}

// writeDirectory writes entries at offset and points the header at them.
// It returns the offset after the directory.
func writeDirectory(w io.WriterAt, magic [4]byte, offset int64, entries []wad.Entry) (int64, error) {
	if offset > math.MaxUint32 {
		return offset, wad.ErrFormat.New(fmt.Sprintf("directory offset %d does not fit in 32 bits", offset))
	}

	end, err := wad.WriteEntries(w, offset, entries)
	if err != nil {
		return offset, err
	}
	h := wad.NewHeader(magic, uint32(len(entries)), uint32(offset))
	if err := wad.WriteHeader(w, *h); err != nil {
		return offset, err
	}
	return end, nil
}

// copyPayloads copies the payload of every entry from src to w starting at
// cursor, re-pointing the entries as it goes. Zero-length entries get the
// cursor as their start. It returns the offset after the last payload.
func copyPayloads(m *wad.Mover, w io.WriterAt, cursor int64, src io.ReaderAt, entries []wad.Entry, log logrus.FieldLogger) (int64, error) {
	for i, e := range entries {
		if cursor > math.MaxUint32 {
			return cursor, wad.ErrFormat.New(fmt.Sprintf("payload offset %d does not fit in 32 bits", cursor))
		}
		moved, next, err := m.CopyEntry(w, cursor, src, e)
		if err != nil {
			return cursor, err
		}
		if e.Length > 0 {
			log.WithFields(logrus.Fields{
				"entry": e.Name.String(),
				"from":  e.Start,
				"to":    moved.Start,
			}).Debug("Relocated payload")
		}
		entries[i] = moved
		cursor = next
	}
	return cursor, nil
}
