// Package wad provides the on-disk format and in-memory model of WAD archives:
// the 12-byte header, the 16-byte directory records, namespace lookup and the
// chunked payload mover every directory operation is built on.
package wad

import (
	"encoding/binary"
	"fmt"
)

// Magic tags identifying master and patch archives.
var (
	MagicIWAD = [4]byte{'I', 'W', 'A', 'D'}
	MagicPWAD = [4]byte{'P', 'W', 'A', 'D'}
)

// HeaderSize is the fixed binary size of an archive header.
const HeaderSize = 12 // 4 + 4 + 4 bytes

// Header represents the header of a WAD archive.
type Header struct {
	Magic      [4]byte
	NumEntries uint32
	DirOffset  uint32 // Offset of the first directory record
}

// Validate checks the header for validity.
func (h *Header) Validate() error {
	if h.Magic != MagicIWAD && h.Magic != MagicPWAD {
		return ErrFormat.New(fmt.Sprintf("invalid magic %q", h.Magic[:]))
	}
	return nil
}

// IsIWAD reports whether the header carries the master archive tag.
func (h *Header) IsIWAD() bool {
	return h.Magic == MagicIWAD
}

// DirEnd returns the offset immediately after the directory.
func (h *Header) DirEnd() int64 {
	return int64(h.DirOffset) + int64(h.NumEntries)*EntrySize
}

// MarshalBinary encodes the header to binary format.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	h.EncodeTo(buf)
	return buf, nil
}

// EncodeTo writes the header to the given buffer.
// The buffer must be at least HeaderSize bytes.
func (h *Header) EncodeTo(buf []byte) {
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.NumEntries)
	binary.LittleEndian.PutUint32(buf[8:12], h.DirOffset)
}

// UnmarshalBinary decodes the header from binary format.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return ErrFormat.New(fmt.Sprintf("header too short: need %d bytes, got %d", HeaderSize, len(data)))
	}
	h.DecodeFrom(data)
	return h.Validate()
}

// DecodeFrom reads the header from the given buffer.
// Does not validate - use UnmarshalBinary for validation.
func (h *Header) DecodeFrom(data []byte) {
	copy(h.Magic[:], data[0:4])
	h.NumEntries = binary.LittleEndian.Uint32(data[4:8])
	h.DirOffset = binary.LittleEndian.Uint32(data[8:12])
}

// NewHeader creates a header for a directory of count records at offset.
func NewHeader(magic [4]byte, count uint32, offset uint32) *Header {
	return &Header{
		Magic:      magic,
		NumEntries: count,
		DirOffset:  offset,
	}
}
