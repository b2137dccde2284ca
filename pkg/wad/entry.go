package wad

import (
	"bytes"
	"encoding/binary"
	"strings"
)

// EntrySize is the fixed binary size of a directory record.
const EntrySize = 16 // 4 + 4 + 8 bytes

// NameSize is the width of the name field of a directory record.
const NameSize = 8

// Name is the raw 8-byte name field of a directory record. Names are not
// necessarily NUL-terminated on disk; the raw bytes are kept so records
// round-trip bit-exactly.
type Name [NameSize]byte

// MakeName pads or truncates s to exactly eight bytes. Case is preserved;
// uppercasing is the caller's business (see NormalizeName).
func MakeName(s string) Name {
	var n Name
	copy(n[:], s)
	return n
}

// String returns the name up to the first NUL, without trailing space padding.
func (n Name) String() string {
	i := bytes.IndexByte(n[:], 0)
	if i == -1 {
		i = len(n)
	}
	return strings.TrimRight(string(n[:i]), " ")
}

// NormalizeName uppercases s and truncates it to eight bytes.
func NormalizeName(s string) string {
	s = strings.ToUpper(s)
	if len(s) > NameSize {
		s = s[:NameSize]
	}
	return s
}

// Entry is a single directory record.
type Entry struct {
	Start  uint32 // Byte offset of the payload
	Length uint32 // Payload size; zero for pure markers
	Name   Name
}

// NewEntry creates an entry with the given name.
func NewEntry(name string, start, length uint32) Entry {
	return Entry{Start: start, Length: length, Name: MakeName(name)}
}

// End returns the offset immediately after the payload.
func (e Entry) End() int64 {
	return int64(e.Start) + int64(e.Length)
}

// Is reports whether the entry is named name.
func (e Entry) Is(name string) bool {
	return e.Name.String() == name
}

// EncodeTo writes the record to the given buffer.
// The buffer must be at least EntrySize bytes.
func (e *Entry) EncodeTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], e.Start)
	binary.LittleEndian.PutUint32(buf[4:8], e.Length)
	copy(buf[8:16], e.Name[:])
}

// DecodeFrom reads the record from the given buffer.
func (e *Entry) DecodeFrom(buf []byte) {
	e.Start = binary.LittleEndian.Uint32(buf[0:4])
	e.Length = binary.LittleEndian.Uint32(buf[4:8])
	copy(e.Name[:], buf[8:16])
}

// Reserved names.
const (
	// BackupName marks the entry holding the pre-merge directory snapshot.
	BackupName = "NWT"
)

// levelLumps are repeated once per level and never collide with each other.
var levelLumps = map[string]bool{
	"THINGS":   true,
	"LINEDEFS": true,
	"SIDEDEFS": true,
	"VERTEXES": true,
	"SEGS":     true,
	"SSECTORS": true,
	"NODES":    true,
	"SECTORS":  true,
	"REJECT":   true,
	"BLOCKMAP": true,
}

// IsLevelLump reports whether name is one of the level-data section names
// that are exempt from collision detection.
func IsLevelLump(name string) bool {
	return levelLumps[name]
}
