// Package edit implements the operations that rewrite an archive's
// directory: compaction, the two merge protocols, namespace splicing,
// restoring a merged archive and appending directory edits.
//
// Every operation validates its inputs before writing anything and, unless
// told otherwise, builds its result in a temporary file that replaces the
// original only on success.
package edit

import (
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/nwtools/wadtools/pkg/wad"
)

// CompactResult describes the outcome of Compact.
type CompactResult struct {
	SizeBefore int64
	SizeAfter  int64
	Waste      int64 // Bytes reclaimed; zero when the archive was already tight
	Compacted  bool
}

// Compact rewrites the archive at path with every payload packed
// contiguously after the header, in directory order, followed by the
// directory. An archive without waste is left untouched.
//
// Compaction relocates payloads, so it refuses merged archives whose backup
// entry still describes the old layout.
func Compact(path string, opts ...Option) (*CompactResult, error) {
	cfg := newConfig(opts)
	log := cfg.log.WithField("path", path)

	src, err := wad.Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if _, ok := src.Backup(); ok {
		return nil, wad.ErrAlreadyMerged.New(wad.BackupName)
	}
	if err := src.CheckBounds(); err != nil {
		return nil, err
	}

	res := &CompactResult{SizeBefore: src.Size, SizeAfter: src.Size}
	waste := src.Waste()
	if waste == 0 {
		log.Info("Archive is already compact")
		return res, nil
	}
	if cfg.inPlace {
		log.Warn("Compaction always builds a new file; ignoring in-place mode")
	}

	t, err := createTarget(path, cfg.log)
	if err != nil {
		return nil, err
	}
	defer t.abort()

	entries := append([]wad.Entry(nil), src.Entries...)
	mover := wad.NewMover(cfg.chunkSize)

	cursor, err := copyPayloads(mover, t, wad.HeaderSize, src, entries, log)
	if err != nil {
		return nil, err
	}
	end, err := writeDirectory(t, src.Header.Magic, cursor, entries)
	if err != nil {
		return nil, err
	}
	if err := t.commit(); err != nil {
		return nil, err
	}

	res.SizeAfter = end
	res.Waste = res.SizeBefore - res.SizeAfter
	res.Compacted = true

	log.WithFields(logrus.Fields{
		"entries": len(entries),
		"waste":   res.Waste,
	}).Infof("Compacted archive from %s to %s", humanize.Bytes(uint64(res.SizeBefore)), humanize.Bytes(uint64(res.SizeAfter)))
	return res, nil
}
