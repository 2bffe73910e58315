package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricCommandsTotal   = "covprobe.commands.total"
	metricCommandDuration = "covprobe.command.duration.seconds"
	metricErrorsTotal     = "covprobe.errors.total"

	attrCommand = "command"
	attrStatus  = "status"

	// StatusOK marks a command that completed.
	StatusOK = "ok"
	// StatusError marks a command that returned an error.
	StatusError = "error"
)

// durationBucketBoundaries covers 1ms to 120s, from single-file reports to
// large merged map sets.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}

// CommandMetrics holds the OTel instruments for rate, error and duration of CLI commands.
type CommandMetrics struct {
	commandsTotal   metric.Int64Counter
	commandDuration metric.Float64Histogram
	errorsTotal     metric.Int64Counter
}

// NewCommandMetrics creates command metric instruments from the given meter.
func NewCommandMetrics(mt metric.Meter) (*CommandMetrics, error) {
	total, err := mt.Int64Counter(metricCommandsTotal,
		metric.WithDescription("Total number of command runs"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCommandsTotal, err)
	}

	duration, err := mt.Float64Histogram(metricCommandDuration,
		metric.WithDescription("Command duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCommandDuration, err)
	}

	errTotal, err := mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Total number of failed commands"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricErrorsTotal, err)
	}

	return &CommandMetrics{
		commandsTotal:   total,
		commandDuration: duration,
		errorsTotal:     errTotal,
	}, nil
}

// RecordCommand records a completed command with its status and duration.
// Safe to call on a nil receiver (no-op).
func (cm *CommandMetrics) RecordCommand(ctx context.Context, command, status string, duration time.Duration) {
	if cm == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrCommand, command),
		attribute.String(attrStatus, status),
	)

	cm.commandsTotal.Add(ctx, 1, attrs)
	cm.commandDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		cm.errorsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String(attrCommand, command),
		))
	}
}
