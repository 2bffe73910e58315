// Package config loads covprobe settings from .covprobe.yaml, COVPROBE_*
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Sentinel validation errors.
var (
	ErrInvalidWorkers     = errors.New("report workers must not be negative")
	ErrInvalidFormat      = errors.New("unknown report format")
	ErrInvalidCodec       = errors.New("unknown data codec")
	ErrInvalidThreshold   = errors.New("threshold must be within 0-100")
	ErrInvalidLogLevel    = errors.New("unknown log level")
	ErrInvalidLogFormat   = errors.New("unknown log format")
	ErrInvalidSampleRatio = errors.New("sample ratio must be within 0-1")
)

// Format names understood by the reporters.
var knownFormats = []string{"lcov", "json", "yaml", "table", "html", "prom"}

var knownCodecs = []string{"json", "gob", "json.lz4", "gob.lz4"}

var knownLevels = []string{"debug", "info", "warn", "error"}

var knownLogFormats = []string{"text", "json"}

const maxPercent = 100.0

// Config holds all covprobe settings.
type Config struct {
	Report     ReportConfig     `mapstructure:"report"`
	Data       DataConfig       `mapstructure:"data"`
	Map        MapConfig        `mapstructure:"map"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// ReportConfig controls report generation.
type ReportConfig struct {
	Formats    []string `mapstructure:"formats"`
	OutputDir  string   `mapstructure:"output_dir"`
	TestName   string   `mapstructure:"test_name"`
	PrettyJSON bool     `mapstructure:"pretty_json"`
	Workers    int      `mapstructure:"workers"`
}

// DataConfig controls how coverage data files are written.
type DataConfig struct {
	Codec string `mapstructure:"codec"`
}

// MapConfig controls how coverage maps are read.
type MapConfig struct {
	ValidateSchema bool `mapstructure:"validate_schema"`
}

// ThresholdsConfig holds minimum coverage percentages. Zero disables a check.
type ThresholdsConfig struct {
	Lines     float64 `mapstructure:"lines"`
	Functions float64 `mapstructure:"functions"`
	Branches  float64 `mapstructure:"branches"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	OTLPEndpoint string            `mapstructure:"otlp_endpoint"`
	OTLPHeaders  map[string]string `mapstructure:"otlp_headers"`
	Environment  string            `mapstructure:"environment"`
	SampleRatio  float64           `mapstructure:"sample_ratio"`
	OTLPInsecure bool              `mapstructure:"otlp_insecure"`
}

// Validate checks the configuration for out-of-range or unknown values.
func (c *Config) Validate() error {
	if c.Report.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Report.Workers)
	}

	for _, format := range c.Report.Formats {
		if !slices.Contains(knownFormats, strings.ToLower(format)) {
			return fmt.Errorf("%w: %q", ErrInvalidFormat, format)
		}
	}

	if !slices.Contains(knownCodecs, strings.ToLower(c.Data.Codec)) {
		return fmt.Errorf("%w: %q", ErrInvalidCodec, c.Data.Codec)
	}

	for name, value := range map[string]float64{
		"lines":     c.Thresholds.Lines,
		"functions": c.Thresholds.Functions,
		"branches":  c.Thresholds.Branches,
	} {
		if value < 0 || value > maxPercent {
			return fmt.Errorf("%w: %s=%v", ErrInvalidThreshold, name, value)
		}
	}

	if !slices.Contains(knownLevels, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	if !slices.Contains(knownLogFormats, strings.ToLower(c.Logging.Format)) {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	return nil
}
