// Package reporter formats coverage reports as LCOV, JSON, YAML, text tables,
// HTML pages and Prometheus textfiles.
package reporter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sumatoshi-tech/covprobe/pkg/report"
)

var (
	// ErrWrite is returned when a report cannot be written to its destination.
	ErrWrite = errors.New("write coverage report")
	// ErrUnknownFormat is returned by Lookup for unsupported format names.
	ErrUnknownFormat = errors.New("unknown report format")
	// ErrSourceFile is returned when the source of an annotated page cannot be read.
	ErrSourceFile = errors.New("read source file")
)

// Format names accepted by Lookup.
const (
	FormatLCOV  = "lcov"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
	FormatHTML  = "html"
	FormatProm  = "prom"
)

// Coverage color thresholds in percent.
const (
	thresholdHigh   = 80.0
	thresholdMedium = 50.0
)

const dirPerm = 0o755

// Reporter renders a set of per-file reports in one output format.
type Reporter interface {
	// Report writes reports to w.
	Report(w io.Writer, reports []*report.Report) error
	// Extension returns the file extension, including the dot.
	Extension() string
	// FormatName returns the name Lookup resolves.
	FormatName() string
}

// Options tune the reporters built by Lookup.
type Options struct {
	// TestName is written as the LCOV TN record when set.
	TestName string
	// Title heads HTML pages. Empty uses "Coverage Report".
	Title string
	// PrettyJSON indents JSON output.
	PrettyJSON bool
	// NoColor disables ANSI colors in tables.
	NoColor bool
}

// Formats lists every supported format name.
func Formats() []string {
	return []string{FormatLCOV, FormatJSON, FormatYAML, FormatTable, FormatHTML, FormatProm}
}

// Lookup resolves a format name to a Reporter.
func Lookup(name string, opts Options) (Reporter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case FormatLCOV:
		return &LCOVReporter{TestName: opts.TestName}, nil
	case FormatJSON:
		return &JSONReporter{Pretty: opts.PrettyJSON}, nil
	case FormatYAML:
		return &YAMLReporter{}, nil
	case FormatTable:
		return &TableReporter{NoColor: opts.NoColor}, nil
	case FormatHTML:
		return &HTMLReporter{Title: opts.Title}, nil
	case FormatProm:
		return &PromReporter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// WriteToFile renders reports with r into path, creating parent directories.
func WriteToFile(r Reporter, reports []*report.Report, path string) error {
	return writeRendered(path, func(w io.Writer) error {
		return r.Report(w, reports)
	})
}

// writeRendered creates path and its parent directories and renders into it.
func writeRendered(path string, render func(w io.Writer) error) error {
	mkErr := os.MkdirAll(filepath.Dir(path), dirPerm)
	if mkErr != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, mkErr)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}

	renderErr := render(file)
	closeErr := file.Close()

	if renderErr != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, renderErr)
	}

	if closeErr != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, closeErr)
	}

	return nil
}

// FormatPercent renders a percentage with one decimal, e.g. "75.0%".
func FormatPercent(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}

// ColorClass buckets a percentage into high, medium or low.
func ColorClass(percent float64) string {
	switch {
	case percent >= thresholdHigh:
		return "high"
	case percent >= thresholdMedium:
		return "medium"
	default:
		return "low"
	}
}

// nonNil returns an empty slice for nil so encoders emit [] rather than null.
func nonNil(reports []*report.Report) []*report.Report {
	if reports == nil {
		return []*report.Report{}
	}

	return reports
}
