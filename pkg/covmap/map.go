// Package covmap maps probe ids to the source locations produced by the
// instrumentation pass.
package covmap

import (
	"slices"

	"github.com/Sumatoshi-tech/covprobe/pkg/probe"
)

// ProbeLocation is where a probe sits in the source.
type ProbeLocation struct {
	Line     uint32     `json:"line"`
	Column   uint32     `json:"column"`
	Kind     probe.Kind `json:"kind"`
	Function string     `json:"function,omitempty"`
	File     string     `json:"file"`
	// Group ties the true and false probes of one conditional together.
	Group *uint64 `json:"group,omitempty"`
}

// FunctionInfo describes a function's inclusive line range and entry probe.
type FunctionInfo struct {
	Name       string `json:"name"`
	StartLine  uint32 `json:"start_line"`
	EndLine    uint32 `json:"end_line"`
	EntryProbe uint64 `json:"entry_probe"`
}

// Contains reports whether line falls within the function's range.
func (f FunctionInfo) Contains(line uint32) bool {
	return line >= f.StartLine && line <= f.EndLine
}

// Probe pairs a probe id with its location.
type Probe struct {
	ID       uint64
	Location ProbeLocation
}

// Map is the static coverage map of one source file.
// Probes iterate in the order they were first added.
type Map struct {
	File      string
	Functions []FunctionInfo

	order  []uint64
	probes map[uint64]ProbeLocation
}

// New creates an empty map for file.
func New(file string) *Map {
	return &Map{
		File:   file,
		probes: make(map[uint64]ProbeLocation),
	}
}

// AddProbe registers a probe. Re-adding an id replaces its location but keeps
// its original position.
func (m *Map) AddProbe(id uint64, loc ProbeLocation) {
	if m.probes == nil {
		m.probes = make(map[uint64]ProbeLocation)
	}

	if _, ok := m.probes[id]; !ok {
		m.order = append(m.order, id)
	}

	m.probes[id] = loc
}

// AddFunction appends a function.
func (m *Map) AddFunction(info FunctionInfo) {
	m.Functions = append(m.Functions, info)
}

// TotalProbes returns the number of distinct probes.
func (m *Map) TotalProbes() int {
	return len(m.order)
}

// Location returns the location of id.
func (m *Map) Location(id uint64) (ProbeLocation, bool) {
	loc, ok := m.probes[id]

	return loc, ok
}

// Probes returns every probe in insertion order.
func (m *Map) Probes() []Probe {
	return m.filter(func(ProbeLocation) bool { return true })
}

// ProbesForLine returns the probes on line in insertion order.
func (m *Map) ProbesForLine(line uint32) []Probe {
	return m.filter(func(loc ProbeLocation) bool { return loc.Line == line })
}

// LineProbes returns the line probes.
func (m *Map) LineProbes() []Probe {
	return m.filter(func(loc ProbeLocation) bool { return loc.Kind == probe.KindLine })
}

// FunctionProbes returns the function-entry probes.
func (m *Map) FunctionProbes() []Probe {
	return m.filter(func(loc ProbeLocation) bool { return loc.Kind == probe.KindFunctionEntry })
}

// BranchProbes returns the branch-true and branch-false probes.
func (m *Map) BranchProbes() []Probe {
	return m.filter(func(loc ProbeLocation) bool { return loc.Kind.IsBranch() })
}

func (m *Map) filter(keep func(ProbeLocation) bool) []Probe {
	var out []Probe

	for _, id := range m.order {
		loc := m.probes[id]
		if keep(loc) {
			out = append(out, Probe{ID: id, Location: loc})
		}
	}

	return out
}

// CoveredLines returns the sorted, deduplicated line numbers that carry a probe.
func (m *Map) CoveredLines() []uint32 {
	lines := make([]uint32, 0, len(m.order))

	for _, id := range m.order {
		lines = append(lines, m.probes[id].Line)
	}

	slices.Sort(lines)

	return slices.Compact(lines)
}

// FunctionAt returns the first function, in declaration order, whose range contains line.
// Overlapping ranges resolve to whichever was declared first.
func (m *Map) FunctionAt(line uint32) (FunctionInfo, bool) {
	for _, f := range m.Functions {
		if f.Contains(line) {
			return f, true
		}
	}

	return FunctionInfo{}, false
}
