package report

import "github.com/Sumatoshi-tech/covprobe/pkg/safeconv"

const fullPercent = 100.0

// Summary counts instrumented and covered items of a report.
type Summary struct {
	TotalLines       uint32 `json:"total_lines"       yaml:"total_lines"`
	CoveredLines     uint32 `json:"covered_lines"     yaml:"covered_lines"`
	TotalFunctions   uint32 `json:"total_functions"   yaml:"total_functions"`
	CoveredFunctions uint32 `json:"covered_functions" yaml:"covered_functions"`
	TotalBranches    uint32 `json:"total_branches"    yaml:"total_branches"`
	CoveredBranches  uint32 `json:"covered_branches"  yaml:"covered_branches"`
}

// LinePercent returns line coverage in 0-100. An empty total counts as fully covered.
func (s Summary) LinePercent() float64 {
	return percent(s.CoveredLines, s.TotalLines)
}

// FunctionPercent returns function coverage in 0-100. An empty total counts as fully covered.
func (s Summary) FunctionPercent() float64 {
	return percent(s.CoveredFunctions, s.TotalFunctions)
}

// BranchPercent returns branch coverage in 0-100. An empty total counts as fully covered.
func (s Summary) BranchPercent() float64 {
	return percent(s.CoveredBranches, s.TotalBranches)
}

// Merge adds other's counters to s field by field, saturating on overflow.
func (s *Summary) Merge(other Summary) {
	s.TotalLines = safeconv.AddUint32(s.TotalLines, other.TotalLines)
	s.CoveredLines = safeconv.AddUint32(s.CoveredLines, other.CoveredLines)
	s.TotalFunctions = safeconv.AddUint32(s.TotalFunctions, other.TotalFunctions)
	s.CoveredFunctions = safeconv.AddUint32(s.CoveredFunctions, other.CoveredFunctions)
	s.TotalBranches = safeconv.AddUint32(s.TotalBranches, other.TotalBranches)
	s.CoveredBranches = safeconv.AddUint32(s.CoveredBranches, other.CoveredBranches)
}

func percent(covered, total uint32) float64 {
	if total == 0 {
		return fullPercent
	}

	return float64(covered) / float64(total) * fullPercent
}

func countOf(n int) uint32 {
	return safeconv.MustIntToUint32(n)
}
