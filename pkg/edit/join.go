package edit

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nwtools/wadtools/pkg/wad"
)

// CollisionPolicy decides which copy survives when both archives of a join
// hold an entry of the same name.
type CollisionPolicy int

const (
	// PolicyUnset makes a join with collisions fail with ErrCollisionUnresolved.
	PolicyUnset CollisionPolicy = iota
	// KeepPrimary drops the candidate's copy.
	KeepPrimary
	// KeepSecondary drops the primary's copy.
	KeepSecondary
)

func (p CollisionPolicy) String() string {
	switch p {
	case KeepPrimary:
		return "primary"
	case KeepSecondary:
		return "secondary"
	default:
		return "unset"
	}
}

// ParsePolicy parses "primary" or "secondary". The empty string is PolicyUnset.
func ParsePolicy(s string) (CollisionPolicy, error) {
	switch strings.ToLower(s) {
	case "":
		return PolicyUnset, nil
	case "primary":
		return KeepPrimary, nil
	case "secondary":
		return KeepSecondary, nil
	}
	return PolicyUnset, fmt.Errorf("unknown collision policy %q", s)
}

// JoinResult describes the outcome of Join.
type JoinResult struct {
	Entries    int // Entries in the joined directory
	Collisions int // Names present in both archives
	Dropped    int // Entries removed by the policy
	Appended   int // Candidate entries added to the primary
}

// Join unions the candidate directory into the primary archive. Candidate
// payloads are read from src and appended to the primary's data, then a new
// directory listing the surviving primary entries followed by the surviving
// candidate entries is written after them.
//
// Level lumps never collide. Any other shared name requires a policy.
func Join(primary string, candidate *wad.Archive, src io.ReaderAt, policy CollisionPolicy, opts ...Option) (*JoinResult, error) {
	cfg := newConfig(opts)
	log := cfg.log.WithFields(logrus.Fields{"primary": primary, "policy": policy})

	p, err := wad.Open(primary)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	if err := candidate.CheckBounds(); err != nil {
		return nil, err
	}
	incoming, stripped := withoutBackup(candidate.Entries)
	if stripped > 0 {
		log.WithField("count", stripped).Warn("Ignoring backup entries of the candidate archive")
	}

	mine, theirs := p.Collisions(incoming)
	res := &JoinResult{Collisions: len(collidingNames(p.Entries, mine))}
	if len(mine) > 0 && policy == PolicyUnset {
		names := collidingNames(p.Entries, mine)
		if len(names) > 5 {
			names = append(names[:5], "...")
		}
		return nil, wad.ErrCollisionUnresolved.New(len(theirs), strings.Join(names, ", "))
	}

	entries := make([]wad.Entry, 0, len(p.Entries)+len(incoming))
	for i, e := range p.Entries {
		if mine[i] && policy == KeepSecondary {
			res.Dropped++
			continue
		}
		entries = append(entries, e)
	}
	added := make([]wad.Entry, 0, len(incoming))
	for j, e := range incoming {
		if theirs[j] && policy == KeepPrimary {
			res.Dropped++
			continue
		}
		added = append(added, e)
	}

	cursor := p.WriteCursor()
	if !p.DirectoryIsLast() {
		log.Warn("Directory is not the last structure in the file; appending at end of file")
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
	cursor, err = copyPayloads(mover, t, cursor, src, added, log)
	if err != nil {
		return nil, err
	}
	entries = append(entries, added...)

	if _, err := writeDirectory(t, p.Header.Magic, cursor, entries); err != nil {
		return nil, err
	}
	if err := t.commit(); err != nil {
		return nil, err
	}

	res.Entries = len(entries)
	res.Appended = len(added)

	log.WithFields(logrus.Fields{
		"entries":    res.Entries,
		"collisions": res.Collisions,
		"dropped":    res.Dropped,
	}).Info("Joined archives")
	return res, nil
}

// JoinFiles joins the archive at secondary into the archive at primary.
func JoinFiles(primary, secondary string, policy CollisionPolicy, opts ...Option) (*JoinResult, error) {
	s, err := wad.Open(secondary)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	return Join(primary, s.Archive, s, policy, opts...)
}

// collidingNames returns the sorted distinct names of the marked entries.
func collidingNames(entries []wad.Entry, marked map[int]bool) []string {
	seen := make(map[string]bool, len(marked))
	names := make([]string, 0, len(marked))
	for i := range marked {
		name := entries[i].Name.String()
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
