// Package collector accumulates probe hits from instrumented code.
//
// A Collector is one coverage session with a single enabled switch. Each
// goroutine that runs instrumented code owns a Recorder obtained from
// [Collector.NewRecorder]; recording never takes a lock and never touches
// another goroutine's counts. At the end of a run the recorders are exported
// and merged, which is the only step that coordinates across goroutines.
package collector

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sumatoshi-tech/covprobe/pkg/covdata"
	"github.com/Sumatoshi-tech/covprobe/pkg/probe"
)

// Collector is a coverage session.
type Collector struct {
	now     func() time.Time
	enabled atomic.Bool

	mu        sync.Mutex
	recorders []*Recorder
}

// Option configures a Collector.
type Option func(*Collector)

// WithClock overrides the time source used for collection windows.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		c.now = now
	}
}

// New creates a disabled collector.
func New(opts ...Option) *Collector {
	c := &Collector{now: time.Now}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Enable turns collection on for every recorder of this collector.
func (c *Collector) Enable() {
	c.enabled.Store(true)
}

// Disable turns collection off. Hits arriving afterwards are dropped.
func (c *Collector) Disable() {
	c.enabled.Store(false)
}

// IsEnabled reports whether hits are currently recorded.
func (c *Collector) IsEnabled() bool {
	return c.enabled.Load()
}

// NewRecorder registers a new execution context. The returned Recorder must
// only be used from one goroutine at a time.
func (c *Collector) NewRecorder() *Recorder {
	r := &Recorder{owner: c}

	c.mu.Lock()
	c.recorders = append(c.recorders, r)
	c.mu.Unlock()

	return r
}

// Recorders returns the number of registered execution contexts.
func (c *Collector) Recorders() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.recorders)
}

// ExportAll exports every registered recorder and merges the snapshots.
// Callers must make sure no recorder is being written to concurrently,
// typically by waiting for the instrumented goroutines to finish.
func (c *Collector) ExportAll() *covdata.CoverageData {
	c.mu.Lock()
	recorders := append([]*Recorder(nil), c.recorders...)
	c.mu.Unlock()

	snapshots := make([]*covdata.CoverageData, 0, len(recorders))

	for _, r := range recorders {
		snapshots = append(snapshots, r.Export())
	}

	merged := covdata.MergeAll(snapshots...)
	if len(snapshots) == 0 {
		merged = covdata.NewAt(c.now())
		merged.Finish(c.now())
	}

	return merged
}

// Recorder is the single-writer hit accumulator of one execution context.
type Recorder struct {
	owner *Collector
	data  *covdata.CoverageData
}

func (r *Recorder) live() *covdata.CoverageData {
	if r.data == nil {
		r.data = covdata.NewAt(r.owner.now())
	}

	return r.data
}

// RecordHit counts one hit of the probe when collection is enabled.
func (r *Recorder) RecordHit(id uint64, kind probe.Kind) {
	if !r.owner.enabled.Load() {
		return
	}

	r.live().RecordHit(id, kind)
}

// Hit is the single-argument instrumentation entry point.
func (r *Recorder) Hit(encoded int64) {
	r.RecordHit(probe.Decode(encoded))
}

// HitEx is the two-argument instrumentation entry point.
func (r *Recorder) HitEx(probeID int64, kind int32) {
	r.RecordHit(probe.DecodeEx(probeID, kind))
}

// HitLine records a line probe.
func (r *Recorder) HitLine(id uint64) {
	r.RecordHit(id, probe.KindLine)
}

// HitFunction records a function-entry probe.
func (r *Recorder) HitFunction(id uint64) {
	r.RecordHit(id, probe.KindFunctionEntry)
}

// HitBranch records the taken or not-taken side of a branch probe.
func (r *Recorder) HitBranch(id uint64, taken bool) {
	kind := probe.KindBranchFalse
	if taken {
		kind = probe.KindBranchTrue
	}

	r.RecordHit(id, kind)
}

// Reset drops this recorder's counts and restarts its window.
// Other recorders are not affected.
func (r *Recorder) Reset() {
	if r.data == nil {
		r.data = covdata.NewAt(r.owner.now())

		return
	}

	r.data.Reset(r.owner.now())
}

// Export stamps the end of the window and returns a snapshot.
// The live counts keep accumulating after the call.
func (r *Recorder) Export() *covdata.CoverageData {
	d := r.live()
	d.Finish(r.owner.now())

	return d.Clone()
}
