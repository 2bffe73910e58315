package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/covprobe/pkg/observability"
)

// acceptanceSpanCount is the expected number of spans in the acceptance test
// (root + load + synthesize).
const acceptanceSpanCount = 3

// acceptanceFileCount is the simulated file count used in log assertions.
const acceptanceFileCount = 12

// TestAcceptance_EndToEnd verifies traces, metrics and structured logs with
// trace context work together in a single simulated report run.
func TestAcceptance_EndToEnd(t *testing.T) {
	t.Parallel()

	spanExporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(spanExporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	tracer := tp.Tracer("covprobe")

	metricReader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(metricReader))
	meter := mp.Meter("covprobe")

	commands, err := observability.NewCommandMetrics(meter)
	require.NoError(t, err)

	coverage, err := observability.NewCoverageMetrics(meter)
	require.NoError(t, err)

	var logBuf bytes.Buffer

	innerHandler := slog.NewJSONHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logCfg := observability.DefaultConfig()
	logCfg.Environment = "test"
	logCfg.Run = observability.RunInfo{Command: "report", Formats: []string{"lcov"}, MapFiles: 1, DataFiles: 2}
	logger := slog.New(observability.NewRunHandler(innerHandler, logCfg))

	ctx, rootSpan := tracer.Start(context.Background(), "covprobe.report",
		trace.WithAttributes(logCfg.Run.Attributes()...))

	_, loadSpan := tracer.Start(ctx, "covprobe.load")
	loadSpan.End()

	_, synthSpan := tracer.Start(ctx, "covprobe.synthesize")
	synthSpan.End()

	coverage.RecordSynthesis(ctx, observability.SynthesisStats{
		Duration:  time.Millisecond,
		Files:     acceptanceFileCount,
		ProbesHit: 300,
	})
	coverage.RecordReports(ctx, "lcov", acceptanceFileCount)
	commands.RecordCommand(ctx, "report", observability.StatusOK, time.Second)

	logger.InfoContext(ctx, "report.complete", "files", acceptanceFileCount)

	rootSpan.End()

	spans := spanExporter.GetSpans()
	require.Len(t, spans, acceptanceSpanCount, "expected root + 2 child spans")

	spanNames := make(map[string]bool, len(spans))
	for _, s := range spans {
		spanNames[s.Name] = true
	}

	assert.True(t, spanNames["covprobe.report"], "root span should exist")
	assert.True(t, spanNames["covprobe.load"], "load span should exist")
	assert.True(t, spanNames["covprobe.synthesize"], "synthesize span should exist")

	traceID := spans[0].SpanContext.TraceID()
	for _, s := range spans[1:] {
		assert.Equal(t, traceID, s.SpanContext.TraceID(),
			"span %q should share trace ID", s.Name)
	}

	for _, s := range spans {
		if s.Name != "covprobe.report" {
			continue
		}

		assert.Contains(t, s.Attributes, attribute.Int("covprobe.data_files", 2))
		assert.Contains(t, s.Attributes, attribute.StringSlice("covprobe.formats", []string{"lcov"}))
	}

	var rm metricdata.ResourceMetrics

	err = metricReader.Collect(ctx, &rm)
	require.NoError(t, err)

	require.NotNil(t, findMetric(rm, "covprobe.commands.total"), "command counter should be recorded")
	require.NotNil(t, findMetric(rm, "covprobe.command.duration.seconds"), "duration histogram should be recorded")
	require.NotNil(t, findMetric(rm, "covprobe.reports.total"), "report counter should be recorded")
	require.NotNil(t, findMetric(rm, "covprobe.probes.hit.total"), "probe counter should be recorded")
	require.NotNil(t, findMetric(rm, "covprobe.synthesis.duration.seconds"), "synthesis histogram should be recorded")

	var logRecord map[string]any

	err = json.Unmarshal(logBuf.Bytes(), &logRecord)
	require.NoError(t, err)

	assert.Equal(t, traceID.String(), logRecord["trace_id"],
		"log line should contain the active trace_id")
	assert.Contains(t, logRecord, "span_id",
		"log line should contain span_id")
	assert.Equal(t, "covprobe", logRecord["service"],
		"log line should contain service name")
	assert.Equal(t, "report", logRecord["command"],
		"log line should contain the command")

	files, ok := logRecord["files"].(float64)
	require.True(t, ok, "files should be a number")
	assert.InDelta(t, acceptanceFileCount, files, 0,
		"log line should contain custom attributes")
}
