// Package commands implements CLI command handlers for covprobe.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/covprobe/pkg/config"
	"github.com/Sumatoshi-tech/covprobe/pkg/covdata"
	"github.com/Sumatoshi-tech/covprobe/pkg/covmap"
	"github.com/Sumatoshi-tech/covprobe/pkg/observability"
	"github.com/Sumatoshi-tech/covprobe/pkg/persist"
	"github.com/Sumatoshi-tech/covprobe/pkg/version"
)

// stdinPath selects standard input instead of a file.
const stdinPath = "-"

// GlobalOptions holds the persistent flags of the root command.
type GlobalOptions struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
}

// Register binds the persistent flags to the root command.
func (g *GlobalOptions) Register(root *cobra.Command) {
	root.PersistentFlags().StringVar(&g.ConfigPath, "config", "", "config file (default: .covprobe.yaml)")
	root.PersistentFlags().BoolVarP(&g.Verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().BoolVarP(&g.Quiet, "quiet", "q", false, "suppress output")
}

// session is the per-invocation state shared by every command.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	tracer   trace.Tracer
	commands *observability.CommandMetrics
	coverage *observability.CoverageMetrics
	shutdown func(ctx context.Context) error
	mode     observability.AppMode
	runInfo  observability.RunInfo
}

// openSession initializes observability for one command run.
func openSession(
	cmd *cobra.Command,
	g *GlobalOptions,
	cfg *config.Config,
	mode observability.AppMode,
	run observability.RunInfo,
) (*session, error) {
	obsCfg := observabilityConfig(cfg, g, mode, cmd.ErrOrStderr())
	obsCfg.Run = run

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	return newSession(cfg, mode, run, providers)
}

// newSession creates the command instruments. Providers are shut down when
// that fails, since the caller never sees them.
func newSession(
	cfg *config.Config,
	mode observability.AppMode,
	run observability.RunInfo,
	providers observability.Providers,
) (*session, error) {
	commandMetrics, err := observability.NewCommandMetrics(providers.Meter)
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(context.Background()))
	}

	coverageMetrics, err := observability.NewCoverageMetrics(providers.Meter)
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(context.Background()))
	}

	return &session{
		cfg:      cfg,
		logger:   observability.LoggerOr(providers.Logger),
		tracer:   providers.Tracer,
		commands: commandMetrics,
		coverage: coverageMetrics,
		shutdown: providers.Shutdown,
		mode:     mode,
		runInfo:  run,
	}, nil
}

func observabilityConfig(cfg *config.Config, g *GlobalOptions, mode observability.AppMode, logOut io.Writer) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Telemetry.Environment
	obsCfg.Mode = mode
	obsCfg.LogOutput = logOut
	obsCfg.LogLevel = observability.ParseLevel(cfg.Logging.Level)
	obsCfg.LogJSON = strings.EqualFold(cfg.Logging.Format, "json")
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPHeaders = cfg.Telemetry.OTLPHeaders
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio

	if obsCfg.OTLPEndpoint == "" {
		obsCfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}

	if len(obsCfg.OTLPHeaders) == 0 {
		obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	}

	switch {
	case g.Verbose:
		obsCfg.LogLevel = slog.LevelDebug
		obsCfg.DebugTrace = true
	case g.Quiet:
		obsCfg.LogLevel = slog.LevelError
	}

	return obsCfg
}

// close flushes telemetry. Failures are logged, never returned.
func (s *session) close() {
	shutdownErr := s.shutdown(context.Background())
	if shutdownErr != nil {
		s.logger.Warn("observability shutdown failed", "error", shutdownErr)
	}
}

// run executes fn inside a command span and records its outcome.
func (s *session) run(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	attrs := append([]attribute.KeyValue{attribute.String("covprobe.mode", string(s.mode))}, s.runInfo.Attributes()...)

	ctx, span := s.tracer.Start(ctx, "covprobe."+name, trace.WithAttributes(attrs...))
	defer span.End()

	start := time.Now()

	err := fn(ctx)

	status := observability.StatusOK
	if err != nil {
		status = observability.StatusError

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.DebugContext(ctx, "command failed", "command", name, "error", err)
	}

	s.commands.RecordCommand(ctx, name, status, time.Since(start))

	return err
}

// readInput reads a file, or standard input for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == stdinPath {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}

		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return data, nil
}

// loadMaps parses every map file into one set. Later files replace
// earlier maps of the same source file.
func loadMaps(cmd *cobra.Command, paths []string, strict bool) (*covmap.Set, error) {
	parse := covmap.Parse
	if strict {
		parse = covmap.ParseStrict
	}

	set := covmap.NewSet()

	for _, path := range paths {
		raw, err := readInput(cmd, path)
		if err != nil {
			return nil, err
		}

		maps, err := parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		for _, m := range maps {
			set.Add(m)
		}
	}

	return set, nil
}

// loadData merges the data files. No files means a run without hits.
func loadData(paths []string) (*covdata.CoverageData, error) {
	if len(paths) == 0 {
		return covdata.New(), nil
	}

	return persist.LoadAll(paths)
}
