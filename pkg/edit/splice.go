package edit

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/nwtools/wadtools/pkg/wad"
)

// SpliceResult describes the outcome of Splice.
type SpliceResult struct {
	Entries      int  // Entries in the output directory
	Superseded   int  // Primary members replaced by the secondary's version
	Added        int  // Secondary members with no primary counterpart
	Carried      int  // Secondary entries outside the namespace
	AutoDetected bool // Secondary members were classified by name
}

// AddSprites splices the secondary archive's sprites into the primary's
// sprite namespace.
func AddSprites(primary, secondary string, opts ...Option) (*SpliceResult, error) {
	return Splice(primary, secondary, wad.Sprites, opts...)
}

// AddFlats splices the secondary archive's flats into the primary's flat
// namespace.
func AddFlats(primary, secondary string, opts ...Option) (*SpliceResult, error) {
	return Splice(primary, secondary, wad.Flats, opts...)
}

// sourced is an output entry and the file its payload is read from.
type sourced struct {
	entry wad.Entry
	src   io.ReaderAt
}

// Splice builds a standalone patch archive holding the secondary's entries
// outside the namespace, followed by the primary's complete namespace
// overlaid with the secondary's members. The result replaces the secondary
// unless WithOutput names another path.
//
// Secondary members are those between its own markers. An archive without
// a start marker has its members guessed by name: any entry named like a
// primary member is taken to be one.
//
// A superseding sprite is listed after the surviving primary sprites, where
// it overrides them; a superseding flat takes the primary flat's place so
// animation ranges keep their order.
func Splice(primary, secondary string, ns wad.Namespace, opts ...Option) (*SpliceResult, error) {
	cfg := newConfig(opts)
	output := cfg.output
	if output == "" {
		output = secondary
	}
	log := cfg.log.WithFields(logrus.Fields{
		"primary":   primary,
		"secondary": secondary,
		"namespace": ns,
	})

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

	pr, err := p.Namespace(ns)
	if err != nil {
		return nil, err
	}
	if err := p.CheckBounds(); err != nil {
		return nil, err
	}
	if err := s.CheckBounds(); err != nil {
		return nil, err
	}

	res := &SpliceResult{}
	primaryMembers := p.Members(pr)
	isMember := secondaryMembers(s.Archive, ns, primaryMembers)
	if s.FindNamespace(ns).Start < 0 {
		res.AutoDetected = true
		log.Warn("Secondary archive has no namespace markers; members were detected by name and may be misclassified")
	}

	startName, endName := ns.Markers()
	var carried []sourced
	// Last occurrence of a member name wins.
	latest := make(map[string]int)
	for j, e := range s.Entries {
		name := e.Name.String()
		switch {
		case name == startName || name == endName:
			// Replaced by the primary's markers.
		case isMember(j):
			latest[name] = j
		default:
			carried = append(carried, sourced{e, s})
		}
	}

	out := append(make([]sourced, 0, len(s.Entries)+pr.Len()+2), carried...)
	res.Carried = len(carried)

	out = append(out, sourced{p.Entries[pr.Start], p})
	inPlace := make(map[string]bool)
	for i := pr.Start + 1; i < pr.End; i++ {
		e := p.Entries[i]
		name := e.Name.String()
		j, superseded := latest[name]
		switch {
		case !superseded:
			out = append(out, sourced{e, p})
		case ns == wad.Flats && primaryMembers[name] == i:
			out = append(out, sourced{s.Entries[j], s})
			inPlace[name] = true
			res.Superseded++
		case ns != wad.Flats && primaryMembers[name] == i:
			res.Superseded++
		}
	}
	for j, e := range s.Entries {
		name := e.Name.String()
		if k, ok := latest[name]; !ok || k != j || inPlace[name] {
			continue
		}
		if _, ok := primaryMembers[name]; !ok {
			res.Added++
		}
		out = append(out, sourced{e, s})
	}
	out = append(out, sourced{p.Entries[pr.End], p})

	if cfg.inPlace {
		log.Warn("Splicing always builds a new file; ignoring in-place mode")
	}
	t, err := createTarget(output, cfg.log)
	if err != nil {
		return nil, err
	}
	defer t.abort()

	mover := wad.NewMover(cfg.chunkSize)
	entries := make([]wad.Entry, len(out))
	cursor := int64(wad.HeaderSize)
	for i, o := range out {
		entries[i] = o.entry
		if cursor, err = copyPayloads(mover, t, cursor, o.src, entries[i:i+1], log); err != nil {
			return nil, err
		}
	}
	if _, err := writeDirectory(t, wad.MagicPWAD, cursor, entries); err != nil {
		return nil, err
	}
	if err := t.commit(); err != nil {
		return nil, err
	}

	res.Entries = len(entries)
	log.WithFields(logrus.Fields{
		"entries":    res.Entries,
		"superseded": res.Superseded,
		"added":      res.Added,
		"output":     output,
	}).Infof("Spliced %s", ns)
	return res, nil
}

// secondaryMembers returns a predicate classifying the secondary's entries
// as namespace members. With a start marker the range runs to the end
// marker, or to the end of the directory when it is missing.
func secondaryMembers(s *wad.Archive, ns wad.Namespace, primaryMembers map[string]int) func(int) bool {
	r := s.FindNamespace(ns)
	if r.Start < 0 {
		return func(j int) bool {
			_, ok := primaryMembers[s.Entries[j].Name.String()]
			return ok
		}
	}
	if r.End < 0 {
		r.End = len(s.Entries)
	}
	return r.Contains
}
