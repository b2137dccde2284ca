package backup

import (
	"fmt"
	"io"
	"os"
)

// WriteFile compresses the file at src into a snapshot at dst.
func WriteFile(dst, src string, opts ...Option) (*Header, error) {
	in, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("create snapshot: %w", err)
	}

	h, err := Encode(out, in, uint64(info.Size()), opts...)
	if err != nil {
		out.Close()
		os.Remove(dst)
		return nil, err
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("close snapshot: %w", err)
	}
	return h, nil
}

// ReadFile decompresses the snapshot at src into the file at dst.
func ReadFile(src, dst string) (*Header, error) {
	in, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer in.Close()

	r, err := NewReader(in)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}

	n, err := io.Copy(out, io.LimitReader(r, int64(r.header.Length)))
	if err == nil && uint64(n) != r.header.Length {
		err = fmt.Errorf("incomplete snapshot: expected %d bytes, got %d", r.header.Length, n)
	}
	if err != nil {
		out.Close()
		os.Remove(dst)
		return nil, fmt.Errorf("decompress: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("close output: %w", err)
	}
	return r.header, nil
}
