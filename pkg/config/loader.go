package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".covprobe"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for covprobe settings.
const envPrefix = "COVPROBE"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD, ./config and $HOME/.config/covprobe.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(filepath.Join(home, ".config", "covprobe"))
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

// Default returns the configuration produced by defaults alone.
func Default() *Config {
	viperCfg := viper.New()
	applyDefaults(viperCfg)

	var cfg Config

	// Defaults always decode.
	_ = viperCfg.Unmarshal(&cfg)

	return &cfg
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("report.formats", DefaultReportFormats)
	viperCfg.SetDefault("report.output_dir", DefaultReportOutputDir)
	viperCfg.SetDefault("report.test_name", DefaultReportTestName)
	viperCfg.SetDefault("report.pretty_json", DefaultReportPrettyJSON)
	viperCfg.SetDefault("report.workers", DefaultReportWorkers)

	viperCfg.SetDefault("data.codec", DefaultDataCodec)

	viperCfg.SetDefault("map.validate_schema", DefaultMapValidateSchema)

	viperCfg.SetDefault("thresholds.lines", DefaultThresholdLines)
	viperCfg.SetDefault("thresholds.functions", DefaultThresholdFunctions)
	viperCfg.SetDefault("thresholds.branches", DefaultThresholdBranches)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", DefaultTelemetryEndpoint)
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultTelemetryInsecure)
	viperCfg.SetDefault("telemetry.otlp_headers", map[string]string{})
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultTelemetrySampleRatio)
	viperCfg.SetDefault("telemetry.environment", DefaultTelemetryEnvironment)
}
