// Package covdata holds the per-run probe hit counts collected from
// instrumented code.
package covdata

import (
	"errors"
	"sort"
	"time"

	"github.com/Sumatoshi-tech/covprobe/pkg/probe"
)

// ErrInvalidProbeID is reserved for callers that want to reject unknown ids.
// Lookups of absent ids never return it; they read as a zero count.
var ErrInvalidProbeID = errors.New("invalid probe id")

// ProbeHit is the hit record of a single probe.
type ProbeHit struct {
	ProbeID uint64     `json:"probe_id" yaml:"probe_id"`
	Kind    probe.Kind `json:"kind"     yaml:"kind"`
	Count   uint64     `json:"count"    yaml:"count"`
}

// CoverageData is a run's collected counts keyed by probe id.
// Times are Unix milliseconds; EndTime stays zero until Finish.
type CoverageData struct {
	ProbeHits map[uint64]*ProbeHit `json:"probe_hits"`
	StartTime uint64               `json:"start_time"`
	EndTime   uint64               `json:"end_time"`
}

// New creates empty coverage data whose window starts now.
func New() *CoverageData {
	return NewAt(time.Now())
}

// NewAt creates empty coverage data whose window starts at the given time.
func NewAt(start time.Time) *CoverageData {
	return &CoverageData{
		ProbeHits: make(map[uint64]*ProbeHit),
		StartTime: Millis(start),
	}
}

// FromProbeHits builds coverage data from a flat list of hits.
// Later entries for the same id replace earlier ones.
func FromProbeHits(hits []ProbeHit) *CoverageData {
	d := New()

	for _, h := range hits {
		hit := h
		d.ProbeHits[h.ProbeID] = &hit
	}

	return d
}

// Millis converts t to Unix milliseconds, clamping pre-epoch times to zero.
func Millis(t time.Time) uint64 {
	ms := t.UnixMilli()
	if ms < 0 {
		return 0
	}

	return uint64(ms)
}

// RecordHit increments the count of the probe, creating it with count 1 on first sight.
func (d *CoverageData) RecordHit(id uint64, kind probe.Kind) {
	if hit, ok := d.ProbeHits[id]; ok {
		hit.Count++

		return
	}

	d.ProbeHits[id] = &ProbeHit{ProbeID: id, Kind: kind, Count: 1}
}

// HitCount returns the count recorded for id, or 0.
func (d *CoverageData) HitCount(id uint64) uint64 {
	if d == nil {
		return 0
	}

	if hit, ok := d.ProbeHits[id]; ok {
		return hit.Count
	}

	return 0
}

// Finish stamps the end of the collection window.
func (d *CoverageData) Finish(now time.Time) {
	d.EndTime = Millis(now)
	if d.EndTime < d.StartTime {
		d.EndTime = d.StartTime
	}
}

// Reset drops all hits and restarts the window at now.
func (d *CoverageData) Reset(now time.Time) {
	clear(d.ProbeHits)
	d.StartTime = Millis(now)
	d.EndTime = 0
}

// Merge adds other's counts into d and widens d's window to cover both.
func (d *CoverageData) Merge(other *CoverageData) {
	if other == nil {
		return
	}

	if d.ProbeHits == nil {
		d.ProbeHits = make(map[uint64]*ProbeHit, len(other.ProbeHits))
	}

	for id, hit := range other.ProbeHits {
		if mine, ok := d.ProbeHits[id]; ok {
			mine.Count += hit.Count

			continue
		}

		cp := *hit
		d.ProbeHits[id] = &cp
	}

	if other.StartTime < d.StartTime {
		d.StartTime = other.StartTime
	}

	if other.EndTime > d.EndTime {
		d.EndTime = other.EndTime
	}
}

// ProbesHit returns the number of distinct probes with a record.
func (d *CoverageData) ProbesHit() int {
	return len(d.ProbeHits)
}

// Hits returns a copy of every hit record sorted by probe id.
func (d *CoverageData) Hits() []ProbeHit {
	out := make([]ProbeHit, 0, len(d.ProbeHits))

	for _, hit := range d.ProbeHits {
		out = append(out, *hit)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ProbeID < out[j].ProbeID })

	return out
}

// Clone returns a deep copy of d.
func (d *CoverageData) Clone() *CoverageData {
	cp := &CoverageData{
		ProbeHits: make(map[uint64]*ProbeHit, len(d.ProbeHits)),
		StartTime: d.StartTime,
		EndTime:   d.EndTime,
	}

	for id, hit := range d.ProbeHits {
		h := *hit
		cp.ProbeHits[id] = &h
	}

	return cp
}

// MergeAll folds every input into a fresh value. Nil entries are skipped.
// The result's window is the union of the inputs' windows.
func MergeAll(all ...*CoverageData) *CoverageData {
	var out *CoverageData

	for _, d := range all {
		if d == nil {
			continue
		}

		if out == nil {
			out = d.Clone()

			continue
		}

		out.Merge(d)
	}

	if out == nil {
		return New()
	}

	return out
}
