package config

// Report defaults.
const (
	DefaultReportOutputDir  = ""
	DefaultReportTestName   = ""
	DefaultReportPrettyJSON = true
	DefaultReportWorkers    = 0
)

// DefaultReportFormats is used when no format is configured.
var DefaultReportFormats = []string{"table"}

// Data defaults.
const (
	DefaultDataCodec = "json"
)

// Map defaults.
const (
	DefaultMapValidateSchema = false
)

// Threshold defaults. Zero disables the check.
const (
	DefaultThresholdLines     = 0.0
	DefaultThresholdFunctions = 0.0
	DefaultThresholdBranches  = 0.0
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Telemetry defaults.
const (
	DefaultTelemetryEndpoint    = ""
	DefaultTelemetryInsecure    = false
	DefaultTelemetrySampleRatio = 1.0
	DefaultTelemetryEnvironment = "development"
)
