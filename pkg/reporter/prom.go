package reporter

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/Sumatoshi-tech/covprobe/pkg/report"
)

const labelFile = "file"

// PromReporter writes per-file coverage gauges in the Prometheus text
// exposition format, for the node_exporter textfile collector.
type PromReporter struct{}

type coverageGauges struct {
	linesTotal       *prometheus.GaugeVec
	linesCovered     *prometheus.GaugeVec
	functionsTotal   *prometheus.GaugeVec
	functionsCovered *prometheus.GaugeVec
	branchesTotal    *prometheus.GaugeVec
	branchesCovered  *prometheus.GaugeVec
}

func newGauge(name, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, []string{labelFile})
}

func newCoverageGauges(reg prometheus.Registerer) *coverageGauges {
	g := &coverageGauges{
		linesTotal:       newGauge("covprobe_lines_total", "Instrumented lines per file."),
		linesCovered:     newGauge("covprobe_lines_covered", "Executed lines per file."),
		functionsTotal:   newGauge("covprobe_functions_total", "Instrumented functions per file."),
		functionsCovered: newGauge("covprobe_functions_covered", "Entered functions per file."),
		branchesTotal:    newGauge("covprobe_branches_total", "Instrumented conditionals per file."),
		branchesCovered:  newGauge("covprobe_branches_covered", "Conditionals with both sides taken per file."),
	}

	reg.MustRegister(
		g.linesTotal, g.linesCovered,
		g.functionsTotal, g.functionsCovered,
		g.branchesTotal, g.branchesCovered,
	)

	return g
}

func (g *coverageGauges) set(r *report.Report) {
	s := r.Summary

	g.linesTotal.WithLabelValues(r.File).Set(float64(s.TotalLines))
	g.linesCovered.WithLabelValues(r.File).Set(float64(s.CoveredLines))
	g.functionsTotal.WithLabelValues(r.File).Set(float64(s.TotalFunctions))
	g.functionsCovered.WithLabelValues(r.File).Set(float64(s.CoveredFunctions))
	g.branchesTotal.WithLabelValues(r.File).Set(float64(s.TotalBranches))
	g.branchesCovered.WithLabelValues(r.File).Set(float64(s.CoveredBranches))
}

// Report implements Reporter.
func (p *PromReporter) Report(w io.Writer, reports []*report.Report) error {
	reg := prometheus.NewRegistry()
	gauges := newCoverageGauges(reg)

	for _, r := range reports {
		if r == nil {
			continue
		}

		gauges.set(r)
	}

	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather coverage metrics: %w", err)
	}

	for _, mf := range families {
		_, writeErr := expfmt.MetricFamilyToText(w, mf)
		if writeErr != nil {
			return fmt.Errorf("prom: %w", writeErr)
		}
	}

	return nil
}

// Extension implements Reporter.
func (p *PromReporter) Extension() string { return ".prom" }

// FormatName implements Reporter.
func (p *PromReporter) FormatName() string { return FormatProm }
