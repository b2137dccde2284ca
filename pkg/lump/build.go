package lump

import (
	"fmt"
	"os"

	"github.com/nwtools/wadtools/pkg/edit"
	"github.com/nwtools/wadtools/pkg/wad"
)

// Build creates a new archive at path holding files in order.
func Build(path string, files []File, magic [4]byte, opts ...edit.Option) (*wad.Archive, error) {
	if err := edit.Create(path, magic, opts...); err != nil {
		return nil, err
	}

	_, err := edit.Update(path, func(d *edit.Draft) error {
		for _, f := range files {
			data, err := os.ReadFile(f.Path)
			if err != nil {
				return fmt.Errorf("read %s: %w", f.Path, err)
			}
			d.Append(f.Name, data)
		}
		return nil
	}, opts...)
	if err != nil {
		os.Remove(path)
		return nil, err
	}

	a, err := wad.Open(path)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return a.Archive, nil
}
