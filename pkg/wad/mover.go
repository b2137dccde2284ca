package wad

import (
	"errors"
	"fmt"
	"io"
)

// DefaultChunkSize is the size of the intermediate buffer used by a Mover.
const DefaultChunkSize = 32000

// Mover copies byte ranges between files through a bounded buffer.
// A Mover is not safe for concurrent use; each operation owns its own.
type Mover struct {
	buf []byte
}

// NewMover returns a Mover with a chunkSize-byte buffer.
// Non-positive sizes select DefaultChunkSize.
func NewMover(chunkSize int) *Mover {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Mover{buf: make([]byte, chunkSize)}
}

// ChunkSize returns the buffer size.
func (m *Mover) ChunkSize() int {
	return len(m.buf)
}

// Copy copies length bytes from src at srcOff to dst at dstOff and returns
// the offset immediately after the written region. A zero length is a no-op.
// On failure the destination contents past dstOff are undefined.
func (m *Mover) Copy(dst io.WriterAt, dstOff int64, src io.ReaderAt, srcOff int64, length int64) (int64, error) {
	for length > 0 {
		chunk := m.buf
		if int64(len(chunk)) > length {
			chunk = chunk[:length]
		}

		n, err := src.ReadAt(chunk, srcOff)
		if n < len(chunk) {
			if err == nil || errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return dstOff, ErrIO.Wrap(err, fmt.Sprintf("read %d bytes at %d", len(chunk), srcOff))
		}

		if _, err := dst.WriteAt(chunk, dstOff); err != nil {
			return dstOff, ErrIO.Wrap(err, fmt.Sprintf("write %d bytes at %d", len(chunk), dstOff))
		}

		srcOff += int64(n)
		dstOff += int64(n)
		length -= int64(n)
	}
	return dstOff, nil
}

// CopyEntry copies the payload of e to dst at dstOff and returns e re-pointed
// at its new location, along with the offset after it.
func (m *Mover) CopyEntry(dst io.WriterAt, dstOff int64, src io.ReaderAt, e Entry) (Entry, int64, error) {
	next, err := m.Copy(dst, dstOff, src, int64(e.Start), int64(e.Length))
	if err != nil {
		return e, next, err
	}
	e.Start = uint32(dstOff)
	return e, next, nil
}
