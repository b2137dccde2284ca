package wad

import (
	"errors"
	"fmt"
	"io"
)

// ReadHeader reads and validates the archive header at offset 0.
func ReadHeader(r io.ReaderAt) (Header, error) {
	var buf [HeaderSize]byte
	var h Header

	n, err := r.ReadAt(buf[:], 0)
	if n < HeaderSize {
		if err != nil && !errors.Is(err, io.EOF) {
			return h, ErrIO.Wrap(err, "read header")
		}
		return h, ErrFormat.New(fmt.Sprintf("header too short: need %d bytes, got %d", HeaderSize, n))
	}
	if err := h.UnmarshalBinary(buf[:]); err != nil {
		return h, err
	}
	return h, nil
}

// ReadEntries reads count directory records starting at offset.
func ReadEntries(r io.ReaderAt, offset int64, count uint32) ([]Entry, error) {
	if count == 0 {
		return []Entry{}, nil
	}

	buf := make([]byte, int64(count)*EntrySize)
	n, err := r.ReadAt(buf, offset)
	if n < len(buf) {
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, ErrIO.Wrap(err, "read directory")
		}
		return nil, ErrTruncatedArchive.New(fmt.Sprintf(
			"directory of %d entries at offset %d needs %d bytes, only %d available",
			count, offset, len(buf), n))
	}
	return UnmarshalEntries(buf)
}

// WriteHeader writes the header at offset 0.
func WriteHeader(w io.WriterAt, h Header) error {
	buf, _ := h.MarshalBinary()
	if _, err := w.WriteAt(buf, 0); err != nil {
		return ErrIO.Wrap(err, "write header")
	}
	return nil
}

// WriteEntries writes the records at offset and returns the offset
// immediately after the last one.
func WriteEntries(w io.WriterAt, offset int64, entries []Entry) (int64, error) {
	buf := MarshalEntries(entries)
	if len(buf) == 0 {
		return offset, nil
	}
	if _, err := w.WriteAt(buf, offset); err != nil {
		return offset, ErrIO.Wrap(err, "write directory")
	}
	return offset + int64(len(buf)), nil
}

// MarshalEntries encodes entries as consecutive 16-byte records.
func MarshalEntries(entries []Entry) []byte {
	buf := make([]byte, len(entries)*EntrySize)
	for i := range entries {
		entries[i].EncodeTo(buf[i*EntrySize:])
	}
	return buf
}

// UnmarshalEntries decodes consecutive 16-byte records.
func UnmarshalEntries(data []byte) ([]Entry, error) {
	if len(data)%EntrySize != 0 {
		return nil, ErrFormat.New(fmt.Sprintf("directory size %d is not a multiple of %d", len(data), EntrySize))
	}
	entries := make([]Entry, len(data)/EntrySize)
	for i := range entries {
		entries[i].DecodeFrom(data[i*EntrySize:])
	}
	return entries, nil
}
