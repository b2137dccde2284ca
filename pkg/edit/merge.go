package edit

import (
	"github.com/sirupsen/logrus"

	"github.com/nwtools/wadtools/pkg/wad"
)

// MergeResult describes the outcome of Merge.
type MergeResult struct {
	Entries   int       // Entries in the merged directory
	Spliced   int       // Primary namespace members re-pointed at secondary payloads
	Appended  int       // Secondary entries appended after the backup entry
	Backup    wad.Entry // Entry referencing the pre-merge directory
	DirOffset int64
}

// Merge folds the whole secondary archive into the primary one.
//
// Secondary entries named like a member of the primary's sprite or flat
// namespace replace that member in place. The rest are appended as a block
// after a backup entry referencing the primary's pre-merge directory, and
// the block is closed by fresh S_END and F_END markers. The merge only
// appends, so the pre-merge directory and payloads stay intact and Restore
// can undo it.
func Merge(primary, secondary string, opts ...Option) (*MergeResult, error) {
	cfg := newConfig(opts)
	log := cfg.log.WithFields(logrus.Fields{"primary": primary, "secondary": secondary})

	p, err := wad.Open(primary)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	s, err := wad.Open(secondary)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	if _, ok := p.Backup(); ok {
		return nil, wad.ErrAlreadyMerged.New(wad.BackupName)
	}
	sprites, err := p.Namespace(wad.Sprites)
	if err != nil {
		return nil, err
	}
	flats, err := p.Namespace(wad.Flats)
	if err != nil {
		return nil, err
	}
	if err := s.CheckBounds(); err != nil {
		return nil, err
	}

	incoming, stripped := withoutBackup(stripMarkers(s.Entries))
	if stripped > 0 {
		log.WithField("count", stripped).Warn("Ignoring backup entries of the secondary archive")
	}

	// Keep the old directory: it becomes the backup entry's payload.
	cursor := p.Header.DirEnd()
	if !p.DirectoryIsLast() {
		log.Warn("Directory is not the last structure in the file; appending at end of file")
		cursor = p.Size
	}

	t, err := openTarget(primary, cfg.inPlace, cfg.log)
	if err != nil {
		return nil, err
	}
	defer t.abort()

	mover := wad.NewMover(cfg.chunkSize)
	if err := t.seed(mover, p, cursor); err != nil {
		return nil, err
	}
	cursor, err = copyPayloads(mover, t, cursor, s, incoming, log)
	if err != nil {
		return nil, err
	}

	res := &MergeResult{
		Backup: wad.NewEntry(wad.BackupName, p.Header.DirOffset, p.Header.NumEntries*wad.EntrySize),
	}

	// Primary namespace members by name, sprites first.
	members := p.Members(flats)
	for name, i := range p.Members(sprites) {
		members[name] = i
	}

	entries := append(make([]wad.Entry, 0, len(p.Entries)+len(incoming)+3), p.Entries...)
	consumed := make([]bool, len(incoming))
	for j, e := range incoming {
		i, ok := members[e.Name.String()]
		if !ok {
			continue
		}
		entries[i].Start = e.Start
		entries[i].Length = e.Length
		consumed[j] = true
		res.Spliced++
	}

	entries = append(entries, res.Backup)
	for j, e := range incoming {
		if !consumed[j] {
			entries = append(entries, e)
			res.Appended++
		}
	}
	entries = append(entries,
		wad.NewEntry("S_END", 0, 0),
		wad.NewEntry("F_END", 0, 0),
	)

	if _, err := writeDirectory(t, p.Header.Magic, cursor, entries); err != nil {
		return nil, err
	}
	if err := t.commit(); err != nil {
		return nil, err
	}

	res.Entries = len(entries)
	res.DirOffset = cursor

	log.WithFields(logrus.Fields{
		"entries":  res.Entries,
		"spliced":  res.Spliced,
		"appended": res.Appended,
	}).Info("Merged archive")
	return res, nil
}

// stripMarkers drops the sprite and flat namespace markers.
func stripMarkers(entries []wad.Entry) []wad.Entry {
	out := make([]wad.Entry, 0, len(entries))
	for _, e := range entries {
		if !wad.IsMarker(e.Name.String()) {
			out = append(out, e)
		}
	}
	return out
}

// withoutBackup drops backup entries, which only describe their own archive.
func withoutBackup(entries []wad.Entry) ([]wad.Entry, int) {
	out := make([]wad.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Is(wad.BackupName) {
			continue
		}
		out = append(out, e)
	}
	return out, len(entries) - len(out)
}
