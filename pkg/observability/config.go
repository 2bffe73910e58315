// Package observability provides OpenTelemetry-based tracing, metrics, and
// structured logging for covprobe.
package observability

import (
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// AppMode identifies how the tool was launched.
type AppMode string

const (
	// ModeCLI is an interactive command run.
	ModeCLI AppMode = "cli"
	// ModeCI is a run gated by coverage thresholds, e.g. in a pipeline.
	ModeCI AppMode = "ci"
)

const (
	// defaultServiceName is the default OTel service name.
	defaultServiceName = "covprobe"

	// defaultShutdownTimeoutSec is the default shutdown timeout in seconds.
	defaultShutdownTimeoutSec = 5
)

// Attribute keys describing a covprobe run.
const (
	attrRunMode      = "covprobe.mode"
	attrRunCommand   = "covprobe.command"
	attrRunMapFiles  = "covprobe.map_files"
	attrRunDataFiles = "covprobe.data_files"
	attrRunFormats   = "covprobe.formats"
)

// RunInfo describes the coverage inputs of one command invocation.
type RunInfo struct {
	Command   string
	Formats   []string
	MapFiles  int
	DataFiles int
}

// Attributes returns the non-empty fields of r as OTel attributes.
func (r RunInfo) Attributes() []attribute.KeyValue {
	var attrs []attribute.KeyValue

	if r.Command != "" {
		attrs = append(attrs, attribute.String(attrRunCommand, r.Command))
	}

	if r.MapFiles > 0 {
		attrs = append(attrs, attribute.Int(attrRunMapFiles, r.MapFiles))
	}

	if r.DataFiles > 0 {
		attrs = append(attrs, attribute.Int(attrRunDataFiles, r.DataFiles))
	}

	if len(r.Formats) > 0 {
		attrs = append(attrs, attribute.StringSlice(attrRunFormats, r.Formats))
	}

	return attrs
}

// Config holds all observability configuration.
type Config struct {
	// Run describes the invocation. It is attached to the resource and to logs.
	Run RunInfo

	// LogOutput receives log records. Nil means stderr.
	LogOutput io.Writer

	// OTLPHeaders are additional gRPC metadata headers for the OTLP exporter.
	OTLPHeaders map[string]string

	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the semantic version of the running binary.
	ServiceVersion string

	// Environment is the deployment environment (e.g. "ci", "development").
	Environment string

	// Mode identifies how the binary was launched.
	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables export; providers become no-op.
	OTLPEndpoint string

	// SampleRatio is the root span sampling ratio when DebugTrace is false.
	// Zero and values of 1 or more sample every root span.
	SampleRatio float64

	// LogLevel controls the minimum slog severity.
	LogLevel slog.Level

	// ShutdownTimeoutSec is the maximum seconds to wait for flush on shutdown.
	ShutdownTimeoutSec int

	// OTLPInsecure disables TLS for the OTLP gRPC connection.
	OTLPInsecure bool

	// DebugTrace forces 100% trace sampling when true.
	DebugTrace bool

	// LogJSON enables JSON-formatted log output.
	LogJSON bool
}

// DefaultConfig returns a Config with sensible defaults for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}

// ParseLevel maps a config level name to a slog level. Unknown names are info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
