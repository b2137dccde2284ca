package backup

import (
	"fmt"
	"io"

	"github.com/DataDog/zstd"
	"github.com/pierrec/lz4/v4"
)

// Reader decompresses a snapshot.
type Reader struct {
	header       *Header
	decompressor io.ReadCloser
}

// NewReader reads and validates the header of the snapshot in r and returns
// a reader for its uncompressed content.
func NewReader(r io.Reader) (*Reader, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	h := &Header{}
	if err := h.UnmarshalBinary(buf[:]); err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	reader := &Reader{header: h}
	switch h.Codec() {
	case LZ4:
		reader.decompressor = io.NopCloser(lz4.NewReader(r))
	default:
		reader.decompressor = zstd.NewReader(r)
	}
	return reader, nil
}

// Header returns the snapshot header.
func (r *Reader) Header() *Header {
	return r.header
}

// Read reads decompressed data into p.
func (r *Reader) Read(p []byte) (int, error) {
	return r.decompressor.Read(p)
}

// Close closes the decompressor.
func (r *Reader) Close() error {
	return r.decompressor.Close()
}

// ReadAll reads the entire decompressed content of a snapshot.
func ReadAll(r io.Reader) ([]byte, error) {
	reader, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data := make([]byte, reader.header.Length)
	if _, err := io.ReadFull(reader, data); err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	return data, nil
}
