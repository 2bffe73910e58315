package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/covprobe/pkg/config"
	"github.com/Sumatoshi-tech/covprobe/pkg/observability"
	"github.com/Sumatoshi-tech/covprobe/pkg/report"
	"github.com/Sumatoshi-tech/covprobe/pkg/reporter"
)

// ErrBelowThreshold is returned when aggregated coverage misses a minimum.
var ErrBelowThreshold = errors.New("coverage below threshold")

// Thresholds holds minimum percentages. Zero disables a check.
type Thresholds struct {
	Lines     float64
	Functions float64
	Branches  float64
}

// Failures lists every metric of summary below its minimum.
func (t Thresholds) Failures(summary report.Summary) []string {
	var failures []string

	for _, m := range []struct {
		name    string
		actual  float64
		minimum float64
	}{
		{"lines", summary.LinePercent(), t.Lines},
		{"functions", summary.FunctionPercent(), t.Functions},
		{"branches", summary.BranchPercent(), t.Branches},
	} {
		if m.minimum > 0 && m.actual < m.minimum {
			failures = append(failures, fmt.Sprintf("%s %s < %s",
				m.name, reporter.FormatPercent(m.actual), reporter.FormatPercent(m.minimum)))
		}
	}

	return failures
}

// CheckCommand holds configuration for the check command.
type CheckCommand struct {
	global *GlobalOptions

	mapPaths   []string
	dataPaths  []string
	thresholds Thresholds
	workers    int
}

// NewCheckCommand creates the check command.
func NewCheckCommand(global *GlobalOptions) *cobra.Command {
	cc := &CheckCommand{global: global}

	cobraCmd := &cobra.Command{
		Use:   "check",
		Short: "Fail when aggregated coverage is below the configured minimums",
		Long: `Synthesize reports for every mapped file, aggregate them and compare
line, function and branch percentages against minimums.

Minimums default to the thresholds section of the config; zero disables a
check.

Examples:
  covprobe check --map app.map.json --data run.json --min-lines 80`,
		Args: cobra.NoArgs,
		RunE: cc.Run,
	}

	cobraCmd.Flags().StringArrayVarP(&cc.mapPaths, "map", "m", nil, "coverage map JSON file, '-' for stdin (repeatable)")
	cobraCmd.Flags().StringArrayVarP(&cc.dataPaths, "data", "d", nil, "coverage data file (repeatable)")
	cobraCmd.Flags().Float64Var(&cc.thresholds.Lines, "min-lines", 0, "minimum line coverage percent")
	cobraCmd.Flags().Float64Var(&cc.thresholds.Functions, "min-functions", 0, "minimum function coverage percent")
	cobraCmd.Flags().Float64Var(&cc.thresholds.Branches, "min-branches", 0, "minimum branch coverage percent")
	cobraCmd.Flags().IntVar(&cc.workers, "workers", 0, "parallel synthesis workers (0 = unlimited)")

	return cobraCmd
}

// Run executes the check command.
func (cc *CheckCommand) Run(cmd *cobra.Command, _ []string) error {
	if len(cc.mapPaths) == 0 {
		return ErrNoMaps
	}

	cfg, err := config.LoadConfig(cc.global.ConfigPath)
	if err != nil {
		return err
	}

	cc.applyConfig(cmd, cfg)

	sess, err := openSession(cmd, cc.global, cfg, observability.ModeCI, observability.RunInfo{
		Command:   "check",
		MapFiles:  len(cc.mapPaths),
		DataFiles: len(cc.dataPaths),
	})
	if err != nil {
		return err
	}

	defer sess.close()

	return sess.run(cmd.Context(), "check", func(ctx context.Context) error {
		reports, err := synthesize(ctx, cmd, sess, cc.mapPaths, cc.dataPaths, cc.workers)
		if err != nil {
			return err
		}

		summary := report.AggregateSummaries(reports)

		if !cc.global.Quiet {
			printSummary(cmd.OutOrStdout(), len(reports), summary)
		}

		failures := cc.thresholds.Failures(summary)
		if len(failures) > 0 {
			return fmt.Errorf("%w: %s", ErrBelowThreshold, strings.Join(failures, ", "))
		}

		return nil
	})
}

func (cc *CheckCommand) applyConfig(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if !flags.Changed("min-lines") {
		cc.thresholds.Lines = cfg.Thresholds.Lines
	}

	if !flags.Changed("min-functions") {
		cc.thresholds.Functions = cfg.Thresholds.Functions
	}

	if !flags.Changed("min-branches") {
		cc.thresholds.Branches = cfg.Thresholds.Branches
	}

	if !flags.Changed("workers") {
		cc.workers = cfg.Report.Workers
	}
}

func printSummary(w io.Writer, files int, summary report.Summary) {
	fmt.Fprintf(w, "files:     %d\n", files)
	fmt.Fprintf(w, "lines:     %s (%d/%d)\n",
		reporter.FormatPercent(summary.LinePercent()), summary.CoveredLines, summary.TotalLines)
	fmt.Fprintf(w, "functions: %s (%d/%d)\n",
		reporter.FormatPercent(summary.FunctionPercent()), summary.CoveredFunctions, summary.TotalFunctions)
	fmt.Fprintf(w, "branches:  %s (%d/%d)\n",
		reporter.FormatPercent(summary.BranchPercent()), summary.CoveredBranches, summary.TotalBranches)
}
