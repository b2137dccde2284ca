// Package lump moves individual payloads in and out of archives: reading a
// payload by name, exporting every payload to a directory, building an
// archive back from such a directory, and fingerprinting payloads.
package lump

import (
	"errors"
	"fmt"
	"io"

	"github.com/nwtools/wadtools/pkg/wad"
)

// Read returns the payload of the last entry named name, the entry the
// game engine would load.
func Read(r io.ReaderAt, a *wad.Archive, name string) ([]byte, error) {
	i := a.LastIndex(name)
	if i < 0 {
		return nil, wad.ErrNoSuchEntry.New(name)
	}
	return ReadIndex(r, a.Entries[i])
}

// ReadIndex returns the payload of e.
func ReadIndex(r io.ReaderAt, e wad.Entry) ([]byte, error) {
	data := make([]byte, e.Length)
	if len(data) == 0 {
		return data, nil
	}
	n, err := r.ReadAt(data, int64(e.Start))
	if n < len(data) {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, wad.ErrTruncatedArchive.New(fmt.Sprintf("entry %s spans %d..%d", e.Name, e.Start, e.End()))
		}
		return nil, wad.ErrIO.Wrap(err, "read "+e.Name.String())
	}
	return data, nil
}
