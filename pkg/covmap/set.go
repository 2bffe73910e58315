package covmap

import "sort"

// Set holds the coverage maps of several files keyed by file path.
type Set struct {
	maps map[string]*Map
}

// NewSet creates an empty set.
func NewSet(maps ...*Map) *Set {
	s := &Set{maps: make(map[string]*Map, len(maps))}

	for _, m := range maps {
		s.Add(m)
	}

	return s
}

// SetFromJSON parses one map object or an array of them into a set.
func SetFromJSON(data []byte) (*Set, error) {
	maps, err := Parse(data)
	if err != nil {
		return nil, err
	}

	return NewSet(maps...), nil
}

// Add stores m under its file path, replacing any previous map for that file.
func (s *Set) Add(m *Map) {
	s.maps[m.File] = m
}

// Merge adds every map of other to s.
func (s *Set) Merge(other *Set) {
	for _, m := range other.maps {
		s.Add(m)
	}
}

// Get returns the map for file.
func (s *Set) Get(file string) (*Map, bool) {
	m, ok := s.maps[file]

	return m, ok
}

// Len returns the number of files.
func (s *Set) Len() int {
	return len(s.maps)
}

// Files returns the file paths in sorted order.
func (s *Set) Files() []string {
	files := make([]string, 0, len(s.maps))

	for file := range s.maps {
		files = append(files, file)
	}

	sort.Strings(files)

	return files
}

// Maps returns the maps sorted by file path.
func (s *Set) Maps() []*Map {
	files := s.Files()
	out := make([]*Map, 0, len(files))

	for _, file := range files {
		out = append(out, s.maps[file])
	}

	return out
}

// Location looks id up in every map and returns the first match.
// Maps are searched in file path order, so an id shared by several files
// resolves to the first of them.
func (s *Set) Location(id uint64) (ProbeLocation, bool) {
	for _, file := range s.Files() {
		if loc, ok := s.maps[file].Location(id); ok {
			return loc, true
		}
	}

	return ProbeLocation{}, false
}

// TotalProbes sums the probe counts of all maps.
func (s *Set) TotalProbes() int {
	total := 0

	for _, m := range s.maps {
		total += m.TotalProbes()
	}

	return total
}
