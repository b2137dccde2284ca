package edit

import (
	"os"

	"github.com/nwtools/wadtools/pkg/wad"
)

// Create writes an empty archive: a header pointing at an empty directory.
// It refuses to overwrite an existing file.
func Create(path string, magic [4]byte, opts ...Option) error {
	cfg := newConfig(opts)

	h := wad.NewHeader(magic, 0, wad.HeaderSize)
	if err := h.Validate(); err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return wad.ErrIO.Wrap(os.ErrExist, "create "+path)
	}

	t, err := createTarget(path, cfg.log)
	if err != nil {
		return err
	}
	defer t.abort()

	if _, err := writeDirectory(t, magic, wad.HeaderSize, nil); err != nil {
		return err
	}
	if err := t.commit(); err != nil {
		return err
	}

	cfg.log.WithField("path", path).Infof("Created empty %s", magic[:])
	return nil
}
