package reporter

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/covprobe/pkg/report"
)

const totalLabel = "TOTAL"

// TableReporter writes a per-file coverage table with a TOTAL footer.
type TableReporter struct {
	NoColor bool
}

// Report implements Reporter.
func (t *TableReporter) Report(w io.Writer, reports []*report.Report) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"File", "Lines", "Line %", "Functions", "Func %", "Branches", "Branch %"})

	for _, r := range reports {
		if r == nil {
			continue
		}

		tbl.AppendRow(t.row(r.File, r.Summary))
	}

	tbl.AppendFooter(t.row(totalLabel, report.AggregateSummaries(reports)))

	_, err := fmt.Fprintln(w, tbl.Render())
	if err != nil {
		return fmt.Errorf("table: %w", err)
	}

	return nil
}

func (t *TableReporter) row(name string, s report.Summary) table.Row {
	return table.Row{
		name,
		ratio(s.CoveredLines, s.TotalLines),
		t.percent(s.LinePercent()),
		ratio(s.CoveredFunctions, s.TotalFunctions),
		t.percent(s.FunctionPercent()),
		ratio(s.CoveredBranches, s.TotalBranches),
		t.percent(s.BranchPercent()),
	}
}

func ratio(covered, total uint32) string {
	return humanize.Comma(int64(covered)) + "/" + humanize.Comma(int64(total))
}

func (t *TableReporter) percent(value float64) string {
	var c *color.Color

	switch ColorClass(value) {
	case "high":
		c = color.New(color.FgGreen)
	case "medium":
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgRed)
	}

	if t.NoColor {
		c.DisableColor()
	}

	return c.Sprint(FormatPercent(value))
}

// Extension implements Reporter.
func (t *TableReporter) Extension() string { return ".txt" }

// FormatName implements Reporter.
func (t *TableReporter) FormatName() string { return FormatTable }
