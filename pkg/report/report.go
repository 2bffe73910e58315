// Package report turns a coverage map and collected hit counts into line,
// function and branch coverage with summary statistics.
package report

import (
	"sort"
)

// LineCoverage is the coverage of a single source line.
type LineCoverage struct {
	Line     uint32 `json:"line"      yaml:"line"`
	HitCount uint64 `json:"hit_count" yaml:"hit_count"`
	Covered  bool   `json:"covered"   yaml:"covered"`
}

// FunctionCoverage is the coverage of a single function.
type FunctionCoverage struct {
	Name      string `json:"name"       yaml:"name"`
	StartLine uint32 `json:"start_line" yaml:"start_line"`
	EndLine   uint32 `json:"end_line"   yaml:"end_line"`
	HitCount  uint64 `json:"hit_count"  yaml:"hit_count"`
	Covered   bool   `json:"covered"    yaml:"covered"`
}

// BranchCoverage is the coverage of one conditional: both of its sides.
type BranchCoverage struct {
	Line         uint32 `json:"line"          yaml:"line"`
	BranchIndex  uint32 `json:"branch_index"  yaml:"branch_index"`
	TrueCount    uint64 `json:"true_count"    yaml:"true_count"`
	FalseCount   uint64 `json:"false_count"   yaml:"false_count"`
	FullyCovered bool   `json:"fully_covered" yaml:"fully_covered"`
}

// Report is the coverage of one source file.
// Lines are sorted by line number.
type Report struct {
	File      string             `json:"file"      yaml:"file"`
	Lines     []LineCoverage     `json:"lines"     yaml:"lines"`
	Functions []FunctionCoverage `json:"functions" yaml:"functions"`
	Branches  []BranchCoverage   `json:"branches"  yaml:"branches"`
	Summary   Summary            `json:"summary"   yaml:"summary"`
}

// New creates an empty report for file.
func New(file string) *Report {
	return &Report{
		File:      file,
		Lines:     []LineCoverage{},
		Functions: []FunctionCoverage{},
		Branches:  []BranchCoverage{},
	}
}

// Line returns the coverage of line, if the line carries a line probe.
func (r *Report) Line(line uint32) (LineCoverage, bool) {
	i := sort.Search(len(r.Lines), func(i int) bool { return r.Lines[i].Line >= line })
	if i < len(r.Lines) && r.Lines[i].Line == line {
		return r.Lines[i], true
	}

	return LineCoverage{}, false
}

// IsLineCovered reports whether line was executed. The second result is false
// when the line has no line probe.
func (r *Report) IsLineCovered(line uint32) (covered, known bool) {
	lc, ok := r.Line(line)

	return lc.Covered, ok
}

// LineHitCount returns the hit count of line.
func (r *Report) LineHitCount(line uint32) (uint64, bool) {
	lc, ok := r.Line(line)

	return lc.HitCount, ok
}

// UncoveredLines returns the instrumented lines that never ran, in order.
func (r *Report) UncoveredLines() []uint32 {
	var out []uint32

	for _, lc := range r.Lines {
		if !lc.Covered {
			out = append(out, lc.Line)
		}
	}

	return out
}

// UncoveredFunctions returns the names of functions that were never entered.
func (r *Report) UncoveredFunctions() []string {
	var out []string

	for _, fc := range r.Functions {
		if !fc.Covered {
			out = append(out, fc.Name)
		}
	}

	return out
}

func (r *Report) calculateSummary() Summary {
	var s Summary

	s.TotalLines = countOf(len(r.Lines))
	s.TotalFunctions = countOf(len(r.Functions))
	s.TotalBranches = countOf(len(r.Branches))

	for _, lc := range r.Lines {
		if lc.Covered {
			s.CoveredLines++
		}
	}

	for _, fc := range r.Functions {
		if fc.Covered {
			s.CoveredFunctions++
		}
	}

	for _, bc := range r.Branches {
		if bc.FullyCovered {
			s.CoveredBranches++
		}
	}

	return s
}
