package wad

// Namespace identifies a marker-delimited range of the directory.
type Namespace int

const (
	Sprites Namespace = iota
	Flats
)

// Markers returns the start and end marker names of the namespace.
func (ns Namespace) Markers() (start, end string) {
	switch ns {
	case Flats:
		return "F_START", "F_END"
	default:
		return "S_START", "S_END"
	}
}

func (ns Namespace) String() string {
	switch ns {
	case Flats:
		return "flats"
	default:
		return "sprites"
	}
}

// IsMarker reports whether name is a start or end marker of any namespace.
func IsMarker(name string) bool {
	for _, ns := range []Namespace{Sprites, Flats} {
		start, end := ns.Markers()
		if name == start || name == end {
			return true
		}
	}
	return false
}

// Range holds the directory indices of a namespace's start and end markers.
// A missing marker is -1.
type Range struct {
	Start int
	End   int
}

// Found reports whether both markers are present.
func (r Range) Found() bool {
	return r.Start >= 0 && r.End > r.Start
}

// Contains reports whether index i lies strictly between the markers.
func (r Range) Contains(i int) bool {
	return i > r.Start && i < r.End
}

// Len returns the number of members between the markers.
func (r Range) Len() int {
	if !r.Found() {
		return 0
	}
	return r.End - r.Start - 1
}

// FindNamespace locates the first start marker of ns and the first end
// marker after it. Missing markers are reported as -1.
func (a *Archive) FindNamespace(ns Namespace) Range {
	startName, endName := ns.Markers()
	r := Range{Start: -1, End: -1}

	r.Start = a.Index(startName)
	if r.Start < 0 {
		return r
	}
	for i := r.Start + 1; i < len(a.Entries); i++ {
		if a.Entries[i].Is(endName) {
			r.End = i
			break
		}
	}
	return r
}

// Namespace returns the range of ns or ErrNamespaceNotFound.
func (a *Archive) Namespace(ns Namespace) (Range, error) {
	r := a.FindNamespace(ns)
	startName, endName := ns.Markers()
	switch {
	case r.Start < 0:
		return r, ErrNamespaceNotFound.New(ns, startName)
	case r.End < 0:
		return r, ErrNamespaceNotFound.New(ns, endName)
	}
	return r, nil
}

// Members returns the names of the entries strictly between the markers,
// mapped to their directory index. The first occurrence of a name wins.
func (a *Archive) Members(r Range) map[string]int {
	members := make(map[string]int, r.Len())
	if !r.Found() {
		return members
	}
	for i := r.Start + 1; i < r.End; i++ {
		name := a.Entries[i].Name.String()
		if _, ok := members[name]; !ok {
			members[name] = i
		}
	}
	return members
}
