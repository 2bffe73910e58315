package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricReportsTotal      = "covprobe.reports.total"
	metricProbesHitTotal    = "covprobe.probes.hit.total"
	metricSynthesisDuration = "covprobe.synthesis.duration.seconds"

	attrFormat = "format"
)

// CoverageMetrics holds OTel instruments for report synthesis.
type CoverageMetrics struct {
	reportsTotal      metric.Int64Counter
	probesHit         metric.Int64Counter
	synthesisDuration metric.Float64Histogram
}

// SynthesisStats describes one report-building pass.
type SynthesisStats struct {
	Duration  time.Duration
	Files     int
	ProbesHit int
}

// NewCoverageMetrics creates coverage metric instruments from the given meter.
func NewCoverageMetrics(mt metric.Meter) (*CoverageMetrics, error) {
	reports, err := mt.Int64Counter(metricReportsTotal,
		metric.WithDescription("Per-file coverage reports written, by format"),
		metric.WithUnit("{report}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricReportsTotal, err)
	}

	probes, err := mt.Int64Counter(metricProbesHitTotal,
		metric.WithDescription("Distinct probes hit in the merged coverage data"),
		metric.WithUnit("{probe}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricProbesHitTotal, err)
	}

	duration, err := mt.Float64Histogram(metricSynthesisDuration,
		metric.WithDescription("Report synthesis duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricSynthesisDuration, err)
	}

	return &CoverageMetrics{
		reportsTotal:      reports,
		probesHit:         probes,
		synthesisDuration: duration,
	}, nil
}

// RecordSynthesis records one synthesis pass.
// Safe to call on a nil receiver (no-op).
func (cm *CoverageMetrics) RecordSynthesis(ctx context.Context, stats SynthesisStats) {
	if cm == nil {
		return
	}

	cm.probesHit.Add(ctx, int64(stats.ProbesHit))
	cm.synthesisDuration.Record(ctx, stats.Duration.Seconds())
}

// RecordReports records files reports written in format.
// Safe to call on a nil receiver (no-op).
func (cm *CoverageMetrics) RecordReports(ctx context.Context, format string, files int) {
	if cm == nil {
		return
	}

	cm.reportsTotal.Add(ctx, int64(files), metric.WithAttributes(attribute.String(attrFormat, format)))
}
