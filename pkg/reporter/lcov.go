package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/Sumatoshi-tech/covprobe/pkg/report"
)

// LCOVReporter writes the LCOV tracefile format read by genhtml, Codecov and most IDEs.
type LCOVReporter struct {
	TestName string
}

// Report implements Reporter.
func (l *LCOVReporter) Report(w io.Writer, reports []*report.Report) error {
	var sb strings.Builder

	for _, r := range reports {
		if r == nil {
			continue
		}

		l.writeRecord(&sb, r)
	}

	_, err := io.WriteString(w, sb.String())
	if err != nil {
		return fmt.Errorf("lcov: %w", err)
	}

	return nil
}

func (l *LCOVReporter) writeRecord(sb *strings.Builder, r *report.Report) {
	if l.TestName != "" {
		fmt.Fprintf(sb, "TN:%s\n", l.TestName)
	}

	fmt.Fprintf(sb, "SF:%s\n", r.File)

	for _, fn := range r.Functions {
		fmt.Fprintf(sb, "FN:%d,%s\n", fn.StartLine, fn.Name)
	}

	for _, fn := range r.Functions {
		fmt.Fprintf(sb, "FNDA:%d,%s\n", fn.HitCount, fn.Name)
	}

	fmt.Fprintf(sb, "FNF:%d\n", r.Summary.TotalFunctions)
	fmt.Fprintf(sb, "FNH:%d\n", r.Summary.CoveredFunctions)

	var sidesTaken uint64

	for _, br := range r.Branches {
		fmt.Fprintf(sb, "BRDA:%d,%d,0,%s\n", br.Line, br.BranchIndex, taken(br.TrueCount))
		fmt.Fprintf(sb, "BRDA:%d,%d,1,%s\n", br.Line, br.BranchIndex, taken(br.FalseCount))

		if br.TrueCount > 0 {
			sidesTaken++
		}

		if br.FalseCount > 0 {
			sidesTaken++
		}
	}

	// Each conditional contributes a true and a false side.
	fmt.Fprintf(sb, "BRF:%d\n", uint64(r.Summary.TotalBranches)*2)
	fmt.Fprintf(sb, "BRH:%d\n", sidesTaken)

	for _, lc := range r.Lines {
		fmt.Fprintf(sb, "DA:%d,%d\n", lc.Line, lc.HitCount)
	}

	fmt.Fprintf(sb, "LF:%d\n", r.Summary.TotalLines)
	fmt.Fprintf(sb, "LH:%d\n", r.Summary.CoveredLines)
	sb.WriteString("end_of_record\n")
}

func taken(count uint64) string {
	if count == 0 {
		return "-"
	}

	return fmt.Sprint(count)
}

// Extension implements Reporter.
func (l *LCOVReporter) Extension() string { return ".info" }

// FormatName implements Reporter.
func (l *LCOVReporter) FormatName() string { return FormatLCOV }
