package lump

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/nwtools/wadtools/pkg/wad"
)

// Ext is the file extension of exported payloads.
const Ext = ".lmp"

// extractConfig holds extraction options.
type extractConfig struct {
	workers     int
	indexPrefix bool
	log         logrus.FieldLogger
}

// ExtractOption configures extraction behavior.
type ExtractOption func(*extractConfig)

// WithWorkers sets how many payloads are written concurrently.
func WithWorkers(n int) ExtractOption {
	return func(c *extractConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithIndexPrefix prefixes file names with the directory index, which keeps
// entry order and duplicate names. Without it only the last entry of a name
// is exported and markers are skipped.
func WithIndexPrefix(prefix bool) ExtractOption {
	return func(c *extractConfig) {
		c.indexPrefix = prefix
	}
}

// WithLogger sets the logger extraction reports progress to.
func WithLogger(log logrus.FieldLogger) ExtractOption {
	return func(c *extractConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// FileName returns the export file name of entry i.
func FileName(i int, e wad.Entry, indexPrefix bool) string {
	name := url.PathEscape(e.Name.String())
	if indexPrefix {
		return fmt.Sprintf("%05d_%s%s", i, name, Ext)
	}
	return name + Ext
}

// Extract writes every payload of the archive at path to its own file in
// outputDir and returns the number of files written.
func Extract(path, outputDir string, opts ...ExtractOption) (int, error) {
	cfg := &extractConfig{
		workers:     runtime.NumCPU(),
		indexPrefix: true,
		log:         logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	a, err := wad.Open(path)
	if err != nil {
		return 0, err
	}
	defer a.Close()

	if err := a.CheckBounds(); err != nil {
		return 0, err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(cfg.workers)

	// Without prefixes only the last of several same-named entries is kept.
	last := make(map[wad.Name]int, len(a.Entries))
	for i, e := range a.Entries {
		last[e.Name] = i
	}

	written := 0
	for i, e := range a.Entries {
		if !cfg.indexPrefix && (e.Length == 0 || last[e.Name] != i) {
			continue
		}
		dst := filepath.Join(outputDir, FileName(i, e, cfg.indexPrefix))
		written++
		e := e
		g.Go(func() error {
			return exportEntry(dst, a, e)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	cfg.log.WithFields(logrus.Fields{
		"path":  path,
		"files": written,
	}).Info("Extracted payloads")
	return written, nil
}

func exportEntry(dst string, r io.ReaderAt, e wad.Entry) error {
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(f, io.NewSectionReader(r, int64(e.Start), int64(e.Length))); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return f.Close()
}
