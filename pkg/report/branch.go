package report

import (
	"slices"

	"github.com/Sumatoshi-tech/covprobe/pkg/covdata"
	"github.com/Sumatoshi-tech/covprobe/pkg/covmap"
	"github.com/Sumatoshi-tech/covprobe/pkg/probe"
)

type branchCounts struct {
	trueCount  uint64
	falseCount uint64
}

// lineBranches collects the branch probes of one line in map order.
type lineBranches struct {
	grouped []*branchCounts
	byGroup map[uint64]*branchCounts
	trues   []uint64
	falses  []uint64
}

func (lb *lineBranches) add(p covmap.Probe, data *covdata.CoverageData) {
	if p.Location.Group != nil {
		slot, ok := lb.byGroup[*p.Location.Group]
		if !ok {
			slot = &branchCounts{}
			lb.byGroup[*p.Location.Group] = slot
			lb.grouped = append(lb.grouped, slot)
		}

		count := data.HitCount(p.ID)
		if p.Location.Kind == probe.KindBranchTrue {
			slot.trueCount += count
		} else {
			slot.falseCount += count
		}

		return
	}

	if p.Location.Kind == probe.KindBranchTrue {
		lb.trues = append(lb.trues, p.ID)
	} else {
		lb.falses = append(lb.falses, p.ID)
	}
}

// pairs returns the logical branches of the line: explicitly grouped ones
// first, in order of first appearance, then the ungrouped probes paired by
// position (i-th true with i-th false).
func (lb *lineBranches) pairs(data *covdata.CoverageData) []branchCounts {
	out := make([]branchCounts, 0, len(lb.grouped)+max(len(lb.trues), len(lb.falses)))

	for _, slot := range lb.grouped {
		out = append(out, *slot)
	}

	for i := range max(len(lb.trues), len(lb.falses)) {
		var bc branchCounts

		if i < len(lb.trues) {
			bc.trueCount = data.HitCount(lb.trues[i])
		}

		if i < len(lb.falses) {
			bc.falseCount = data.HitCount(lb.falses[i])
		}

		out = append(out, bc)
	}

	return out
}

// buildBranches pairs branch probes into conditionals, ordered by line and index.
func buildBranches(m *covmap.Map, data *covdata.CoverageData) []BranchCoverage {
	perLine := make(map[uint32]*lineBranches)

	var lines []uint32

	probes := m.BranchProbes()

	for _, p := range probes {
		lb, ok := perLine[p.Location.Line]
		if !ok {
			lb = &lineBranches{byGroup: make(map[uint64]*branchCounts)}
			perLine[p.Location.Line] = lb
			lines = append(lines, p.Location.Line)
		}

		lb.add(p, data)
	}

	slices.Sort(lines)

	branches := make([]BranchCoverage, 0, len(probes))

	for _, line := range lines {
		for i, bc := range perLine[line].pairs(data) {
			branches = append(branches, BranchCoverage{
				Line:         line,
				BranchIndex:  countOf(i),
				TrueCount:    bc.trueCount,
				FalseCount:   bc.falseCount,
				FullyCovered: bc.trueCount > 0 && bc.falseCount > 0,
			})
		}
	}

	return branches
}
