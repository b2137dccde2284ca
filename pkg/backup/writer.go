package backup

import (
	"fmt"
	"io"

	"github.com/DataDog/zstd"
	"github.com/pierrec/lz4/v4"
)

// DefaultLevel is the default compression level.
const DefaultLevel = zstd.BestSpeed

// lz4Levels maps levels 0-9 onto the lz4 compression levels.
var lz4Levels = []lz4.CompressionLevel{
	lz4.Fast, lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4,
	lz4.Level5, lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9,
}

// Writer compresses a snapshot into an io.WriteSeeker.
type Writer struct {
	dst        io.WriteSeeker
	compressor io.WriteCloser
	header     *Header
	codec      Codec
	level      int
	written    uint64
}

// Option configures a Writer.
type Option func(*Writer)

// WithCodec selects the compression scheme.
func WithCodec(c Codec) Option {
	return func(w *Writer) {
		w.codec = c
	}
}

// WithLevel sets the compression level.
func WithLevel(level int) Option {
	return func(w *Writer) {
		w.level = level
	}
}

// NewWriter creates a writer for a snapshot of size uncompressed bytes.
// The header is rewritten with the compressed size on Close.
func NewWriter(dst io.WriteSeeker, size uint64, opts ...Option) (*Writer, error) {
	w := &Writer{
		dst:   dst,
		level: DefaultLevel,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.header = &Header{
		Magic:        w.codec.Magic(),
		HeaderLength: 16,
		Length:       size,
	}

	// Placeholder until the compressed size is known.
	buf, _ := w.header.MarshalBinary()
	if _, err := dst.Write(buf); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	switch w.codec {
	case LZ4:
		zw := lz4.NewWriter(dst)
		level := w.level
		if level < 0 || level >= len(lz4Levels) {
			level = 0
		}
		if err := zw.Apply(lz4.CompressionLevelOption(lz4Levels[level])); err != nil {
			return nil, fmt.Errorf("configure lz4: %w", err)
		}
		w.compressor = zw
	default:
		w.compressor = zstd.NewWriterLevel(dst, w.level)
	}
	return w, nil
}

// Write writes uncompressed data.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.compressor.Write(p)
	w.written += uint64(n)
	return n, err
}

// Close flushes the compressor and finalizes the header.
func (w *Writer) Close() error {
	if err := w.compressor.Close(); err != nil {
		return fmt.Errorf("close compressor: %w", err)
	}
	if w.written != w.header.Length {
		return fmt.Errorf("wrote %d bytes, header declares %d", w.written, w.header.Length)
	}

	pos, err := w.dst.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("get position: %w", err)
	}
	w.header.CompressedLength = uint64(pos) - HeaderSize

	if _, err := w.dst.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek to start: %w", err)
	}
	buf, _ := w.header.MarshalBinary()
	if _, err := w.dst.Write(buf); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.dst.Seek(pos, io.SeekStart); err != nil {
		return fmt.Errorf("seek to end: %w", err)
	}
	return nil
}

// Encode compresses size bytes from src into a snapshot written to dst.
func Encode(dst io.WriteSeeker, src io.Reader, size uint64, opts ...Option) (*Header, error) {
	w, err := NewWriter(dst, size, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(w, src); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return w.header, nil
}
