package reporter

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/covprobe/pkg/report"
)

const (
	jsonIndent = "  "
	yamlIndent = 2
)

// Document is the combined JSON/YAML output: an aggregate summary and every file.
type Document struct {
	Summary report.Summary   `json:"summary" yaml:"summary"`
	Files   []*report.Report `json:"files"   yaml:"files"`
}

// NewDocument aggregates reports into a Document.
func NewDocument(reports []*report.Report) Document {
	return Document{
		Summary: report.AggregateSummaries(reports),
		Files:   nonNil(reports),
	}
}

// JSONReporter writes a Document as JSON.
type JSONReporter struct {
	Pretty bool
}

// Report implements Reporter.
func (j *JSONReporter) Report(w io.Writer, reports []*report.Report) error {
	enc := json.NewEncoder(w)
	if j.Pretty {
		enc.SetIndent("", jsonIndent)
	}

	err := enc.Encode(NewDocument(reports))
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// Extension implements Reporter.
func (j *JSONReporter) Extension() string { return ".json" }

// FormatName implements Reporter.
func (j *JSONReporter) FormatName() string { return FormatJSON }

// YAMLReporter writes a Document as YAML.
type YAMLReporter struct{}

// Report implements Reporter.
func (y *YAMLReporter) Report(w io.Writer, reports []*report.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(yamlIndent)

	err := enc.Encode(NewDocument(reports))
	if err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	closeErr := enc.Close()
	if closeErr != nil {
		return fmt.Errorf("yaml close: %w", closeErr)
	}

	return nil
}

// Extension implements Reporter.
func (y *YAMLReporter) Extension() string { return ".yaml" }

// FormatName implements Reporter.
func (y *YAMLReporter) FormatName() string { return FormatYAML }
