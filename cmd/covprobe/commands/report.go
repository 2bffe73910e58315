package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/covprobe/pkg/config"
	"github.com/Sumatoshi-tech/covprobe/pkg/covdata"
	"github.com/Sumatoshi-tech/covprobe/pkg/covmap"
	"github.com/Sumatoshi-tech/covprobe/pkg/observability"
	"github.com/Sumatoshi-tech/covprobe/pkg/report"
	"github.com/Sumatoshi-tech/covprobe/pkg/reporter"
)

// reportBaseName is the file name, without extension, of written reports.
const reportBaseName = "coverage"

// ErrNoMaps is returned when a command needs at least one coverage map.
var ErrNoMaps = errors.New("no coverage map given, use --map")

// ReportCommand holds configuration for the report command.
type ReportCommand struct {
	global *GlobalOptions

	mapPaths   []string
	dataPaths  []string
	formats    []string
	outDir     string
	sourceRoot string
	testName   string
	title      string
	workers    int
	noColor    bool
}

// NewReportCommand creates the report command.
func NewReportCommand(global *GlobalOptions) *cobra.Command {
	rc := &ReportCommand{global: global}

	cobraCmd := &cobra.Command{
		Use:   "report",
		Short: "Synthesize coverage reports from maps and recorded data",
		Long: `Load coverage maps and recorded probe data, merge the data and write
one report per requested format.

Formats: lcov, json, yaml, table, html, prom.
With --out each format is written to <out>/coverage.<ext>; otherwise all
formats are printed to stdout. With --out and --source-root the html format
instead writes <out>/index.html plus one annotated source page per file,
reading sources relative to the source root.

Examples:
  covprobe report --map app.map.json --data run1.json --data run2.json
  covprobe report --map app.map.json --data run.json --format lcov,html --out coverage/
  covprobe report --map app.map.json --data run.json --format html --out coverage/ --source-root .`,
		Args: cobra.NoArgs,
		RunE: rc.Run,
	}

	cobraCmd.Flags().StringArrayVarP(&rc.mapPaths, "map", "m", nil, "coverage map JSON file, '-' for stdin (repeatable)")
	cobraCmd.Flags().StringArrayVarP(&rc.dataPaths, "data", "d", nil, "coverage data file (repeatable)")
	cobraCmd.Flags().StringSliceVarP(&rc.formats, "format", "f", nil, "output formats (default from config)")
	cobraCmd.Flags().StringVarP(&rc.outDir, "out", "o", "", "output directory (default from config, stdout when empty)")
	cobraCmd.Flags().StringVar(&rc.sourceRoot, "source-root", "", "directory of mapped sources, enables per-file html pages")
	cobraCmd.Flags().StringVar(&rc.testName, "test-name", "", "LCOV test name")
	cobraCmd.Flags().StringVar(&rc.title, "title", "", "HTML page title")
	cobraCmd.Flags().IntVar(&rc.workers, "workers", 0, "parallel synthesis workers (0 = unlimited)")
	cobraCmd.Flags().BoolVar(&rc.noColor, "no-color", false, "disable colored table output")

	return cobraCmd
}

// Run executes the report command.
func (rc *ReportCommand) Run(cmd *cobra.Command, _ []string) error {
	if len(rc.mapPaths) == 0 {
		return ErrNoMaps
	}

	cfg, err := config.LoadConfig(rc.global.ConfigPath)
	if err != nil {
		return err
	}

	rc.applyConfig(cmd, cfg)

	sess, err := openSession(cmd, rc.global, cfg, observability.ModeCLI, observability.RunInfo{
		Command:   "report",
		Formats:   rc.formats,
		MapFiles:  len(rc.mapPaths),
		DataFiles: len(rc.dataPaths),
	})
	if err != nil {
		return err
	}

	defer sess.close()

	return sess.run(cmd.Context(), "report", func(ctx context.Context) error {
		reports, err := synthesize(ctx, cmd, sess, rc.mapPaths, rc.dataPaths, rc.workers)
		if err != nil {
			return err
		}

		opts := reporter.Options{
			TestName:   rc.testName,
			Title:      rc.title,
			PrettyJSON: sess.cfg.Report.PrettyJSON,
			NoColor:    rc.noColor,
		}

		for _, format := range rc.formats {
			writeErr := rc.write(cmd, format, opts, reports)
			if writeErr != nil {
				return writeErr
			}

			sess.coverage.RecordReports(ctx, format, len(reports))
		}

		return nil
	})
}

// applyConfig fills flags the user did not set from the loaded config.
func (rc *ReportCommand) applyConfig(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if !flags.Changed("format") {
		rc.formats = cfg.Report.Formats
	}

	if !flags.Changed("out") {
		rc.outDir = cfg.Report.OutputDir
	}

	if !flags.Changed("test-name") {
		rc.testName = cfg.Report.TestName
	}

	if !flags.Changed("workers") {
		rc.workers = cfg.Report.Workers
	}

	if rc.global.Quiet {
		rc.noColor = true
	}
}

func (rc *ReportCommand) write(cmd *cobra.Command, format string, opts reporter.Options, reports []*report.Report) error {
	rep, err := reporter.Lookup(format, opts)
	if err != nil {
		return err
	}

	if rc.outDir == "" {
		reportErr := rep.Report(cmd.OutOrStdout(), reports)
		if reportErr != nil {
			return fmt.Errorf("%w: stdout: %w", reporter.ErrWrite, reportErr)
		}

		return nil
	}

	if html, ok := rep.(*reporter.HTMLReporter); ok && rc.sourceRoot != "" {
		return rc.writeHTMLDirectory(cmd, html, reports)
	}

	path := filepath.Join(rc.outDir, reportBaseName+rep.Extension())

	writeErr := reporter.WriteToFile(rep, reports, path)
	if writeErr != nil {
		return writeErr
	}

	if !rc.global.Quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s report to %s\n", rep.FormatName(), path)
	}

	return nil
}

// writeHTMLDirectory writes the html index and annotated source pages to outDir.
func (rc *ReportCommand) writeHTMLDirectory(cmd *cobra.Command, html *reporter.HTMLReporter, reports []*report.Report) error {
	err := html.WriteToDirectory(reports, rc.outDir, rc.readSource)
	if err != nil {
		return err
	}

	if !rc.global.Quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s report to %s\n",
			html.FormatName(), filepath.Join(rc.outDir, reporter.HTMLIndexPage))
	}

	return nil
}

// readSource resolves relative map file names against the source root.
func (rc *ReportCommand) readSource(file string) ([]byte, error) {
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(rc.sourceRoot, filepath.FromSlash(file))
	}

	return os.ReadFile(path)
}

// synthesize loads maps and data and builds one report per mapped file.
func synthesize(
	ctx context.Context,
	cmd *cobra.Command,
	sess *session,
	mapPaths, dataPaths []string,
	workers int,
) ([]*report.Report, error) {
	set, err := loadMaps(cmd, mapPaths, sess.cfg.Map.ValidateSchema)
	if err != nil {
		return nil, err
	}

	data, err := loadData(dataPaths)
	if err != nil {
		return nil, err
	}

	return buildReports(ctx, sess, set, data, workers)
}

func buildReports(
	ctx context.Context,
	sess *session,
	set *covmap.Set,
	data *covdata.CoverageData,
	workers int,
) ([]*report.Report, error) {
	start := time.Now()

	reports, err := report.BuildAllParallel(ctx, set, data, workers)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)

	sess.coverage.RecordSynthesis(ctx, observability.SynthesisStats{
		Duration:  elapsed,
		Files:     len(reports),
		ProbesHit: data.ProbesHit(),
	})

	sess.logger.DebugContext(ctx, "reports synthesized",
		"files", len(reports), "probes_hit", data.ProbesHit(), "duration", elapsed)

	return reports, nil
}
