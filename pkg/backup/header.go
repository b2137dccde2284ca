// Package backup provides compressed whole-archive snapshots, taken before
// operations that cannot be undone.
package backup

import (
	"encoding/binary"
	"fmt"
)

// Codec selects the compression scheme of a snapshot.
type Codec int

const (
	Zstd Codec = iota
	LZ4
)

// Magic bytes identifying the codec of a snapshot.
var (
	MagicZstd = [4]byte{0x5a, 0x53, 0x54, 0x44} // "ZSTD"
	MagicLZ4  = [4]byte{0x4c, 0x5a, 0x34, 0x20} // "LZ4 "
)

// ParseCodec parses "zstd" or "lz4".
func ParseCodec(s string) (Codec, error) {
	switch s {
	case "zstd", "":
		return Zstd, nil
	case "lz4":
		return LZ4, nil
	}
	return Zstd, fmt.Errorf("unknown codec %q", s)
}

func (c Codec) String() string {
	if c == LZ4 {
		return "lz4"
	}
	return "zstd"
}

// Magic returns the header tag of the codec.
func (c Codec) Magic() [4]byte {
	if c == LZ4 {
		return MagicLZ4
	}
	return MagicZstd
}

// Ext returns the conventional file extension of the codec.
func (c Codec) Ext() string {
	if c == LZ4 {
		return ".lz4"
	}
	return ".zst"
}

// HeaderSize is the fixed binary size of a snapshot header.
const HeaderSize = 24 // 4 + 4 + 8 + 8 bytes

// Header precedes the compressed stream of a snapshot.
type Header struct {
	Magic            [4]byte
	HeaderLength     uint32
	Length           uint64 // Uncompressed size
	CompressedLength uint64 // Compressed size
}

// Codec returns the codec named by the magic tag.
func (h *Header) Codec() Codec {
	if h.Magic == MagicLZ4 {
		return LZ4
	}
	return Zstd
}

// Validate checks the header for validity.
func (h *Header) Validate() error {
	if h.Magic != MagicZstd && h.Magic != MagicLZ4 {
		return fmt.Errorf("invalid magic: %x", h.Magic)
	}
	if h.HeaderLength != 16 {
		return fmt.Errorf("invalid header length: expected 16, got %d", h.HeaderLength)
	}
	if h.Length == 0 {
		return fmt.Errorf("uncompressed size is zero")
	}
	return nil
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
	binary.LittleEndian.PutUint32(buf[4:8], h.HeaderLength)
	binary.LittleEndian.PutUint64(buf[8:16], h.Length)
	binary.LittleEndian.PutUint64(buf[16:24], h.CompressedLength)
}

// UnmarshalBinary decodes and validates the header.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("header data too short: need %d, got %d", HeaderSize, len(data))
	}
	copy(h.Magic[:], data[0:4])
	h.HeaderLength = binary.LittleEndian.Uint32(data[4:8])
	h.Length = binary.LittleEndian.Uint64(data[8:16])
	h.CompressedLength = binary.LittleEndian.Uint64(data[16:24])
	return h.Validate()
}
