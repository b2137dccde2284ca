package lump

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nwtools/wadtools/pkg/wad"
)

// File is a payload file scanned from a directory.
type File struct {
	Name  string // Entry name
	Path  string
	Size  uint32
	Index int // Directory index from the file name prefix; -1 if absent
}

// ScanDir returns the payload files in dir in directory order: files with
// an index prefix first, by index, then the rest by file name. Files without
// the payload extension are skipped.
func ScanDir(dir string) ([]File, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var files []File
	for _, de := range dirents {
		if de.IsDir() || filepath.Ext(de.Name()) != Ext {
			continue
		}

		info, err := de.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", de.Name(), err)
		}
		size := info.Size()
		const maxUint32 = int64(^uint32(0))
		if size > maxUint32 {
			return nil, fmt.Errorf("file too large: %s (size %d exceeds %d bytes)", de.Name(), size, maxUint32)
		}

		index, name := parseFileName(strings.TrimSuffix(de.Name(), Ext))
		if name == "" {
			continue
		}
		files = append(files, File{
			Name:  wad.NormalizeName(name),
			Path:  filepath.Join(dir, de.Name()),
			Size:  uint32(size),
			Index: index,
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		switch {
		case a.Index >= 0 && b.Index >= 0:
			return a.Index < b.Index
		case a.Index >= 0 || b.Index >= 0:
			return a.Index >= 0
		}
		return a.Path < b.Path
	})
	return files, nil
}

// parseFileName splits "NNNNN_NAME" into its index and unescaped name.
func parseFileName(stem string) (int, string) {
	index := -1
	if prefix, rest, ok := strings.Cut(stem, "_"); ok && len(prefix) == 5 {
		if n, err := strconv.Atoi(prefix); err == nil {
			index, stem = n, rest
		}
	}
	name, err := url.PathUnescape(stem)
	if err != nil {
		return index, stem
	}
	return index, name
}
