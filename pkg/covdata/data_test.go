package covdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/covprobe/pkg/probe"
)

func TestRecordHit_CountsPerProbe(t *testing.T) {
	t.Parallel()

	d := New()
	d.RecordHit(1, probe.KindLine)
	d.RecordHit(1, probe.KindLine)
	d.RecordHit(2, probe.KindFunctionEntry)

	assert.Equal(t, uint64(2), d.HitCount(1))
	assert.Equal(t, uint64(1), d.HitCount(2))
	assert.Equal(t, uint64(0), d.HitCount(3))
	assert.Equal(t, 2, d.ProbesHit())
	assert.Equal(t, probe.KindFunctionEntry, d.ProbeHits[2].Kind)
}

func TestHitCount_NilData(t *testing.T) {
	t.Parallel()

	var d *CoverageData

	assert.Equal(t, uint64(0), d.HitCount(5))
}

func TestFinish_NeverBeforeStart(t *testing.T) {
	t.Parallel()

	start := time.UnixMilli(10_000)
	d := NewAt(start)

	assert.Equal(t, uint64(0), d.EndTime)

	d.Finish(time.UnixMilli(9_000))
	assert.Equal(t, d.StartTime, d.EndTime)

	d.Finish(time.UnixMilli(12_000))
	assert.Equal(t, uint64(12_000), d.EndTime)
}

func TestReset(t *testing.T) {
	t.Parallel()

	d := NewAt(time.UnixMilli(1_000))
	d.RecordHit(1, probe.KindLine)
	d.Finish(time.UnixMilli(2_000))

	d.Reset(time.UnixMilli(3_000))

	assert.Equal(t, 0, d.ProbesHit())
	assert.Equal(t, uint64(3_000), d.StartTime)
	assert.Equal(t, uint64(0), d.EndTime)
}

func TestMerge_SumsCountsAndWidensWindow(t *testing.T) {
	t.Parallel()

	a := NewAt(time.UnixMilli(200))
	a.RecordHit(1, probe.KindLine)
	a.EndTime = 500

	b := NewAt(time.UnixMilli(100))
	b.RecordHit(1, probe.KindLine)
	b.RecordHit(2, probe.KindLine)
	b.EndTime = 400

	a.Merge(b)

	assert.Equal(t, uint64(2), a.HitCount(1))
	assert.Equal(t, uint64(1), a.HitCount(2))
	assert.Equal(t, uint64(100), a.StartTime)
	assert.Equal(t, uint64(500), a.EndTime)

	// The merged-in record must not alias b's.
	a.RecordHit(2, probe.KindLine)
	assert.Equal(t, uint64(1), b.HitCount(2))
}

func TestMerge_CommutativeAndAssociative(t *testing.T) {
	t.Parallel()

	mk := func(start, end uint64, ids ...uint64) *CoverageData {
		d := &CoverageData{ProbeHits: map[uint64]*ProbeHit{}, StartTime: start, EndTime: end}
		for _, id := range ids {
			d.RecordHit(id, probe.KindLine)
		}

		return d
	}

	a := mk(10, 50, 1, 1, 2)
	b := mk(5, 40, 2, 3)
	c := mk(20, 90, 1, 3, 3, 4)

	ab := a.Clone()
	ab.Merge(b)

	ba := b.Clone()
	ba.Merge(a)

	assert.Equal(t, ab.Hits(), ba.Hits())
	assert.Equal(t, ab.StartTime, ba.StartTime)
	assert.Equal(t, ab.EndTime, ba.EndTime)

	left := ab.Clone()
	left.Merge(c)

	bc := b.Clone()
	bc.Merge(c)

	right := a.Clone()
	right.Merge(bc)

	assert.Equal(t, left.Hits(), right.Hits())
	assert.Equal(t, uint64(5), left.StartTime)
	assert.Equal(t, uint64(90), right.EndTime)
}

func TestHits_SortedByID(t *testing.T) {
	t.Parallel()

	d := FromProbeHits([]ProbeHit{
		{ProbeID: 9, Kind: probe.KindLine, Count: 3},
		{ProbeID: 2, Kind: probe.KindBranchTrue, Count: 1},
	})

	hits := d.Hits()
	require.Len(t, hits, 2)
	assert.Equal(t, uint64(2), hits[0].ProbeID)
	assert.Equal(t, uint64(3), hits[1].Count)
}

func TestMergeAll(t *testing.T) {
	t.Parallel()

	a := FromProbeHits([]ProbeHit{{ProbeID: 1, Count: 2}})
	b := FromProbeHits([]ProbeHit{{ProbeID: 1, Count: 3}, {ProbeID: 4, Count: 1}})

	merged := MergeAll(a, nil, b)

	assert.Equal(t, uint64(5), merged.HitCount(1))
	assert.Equal(t, uint64(1), merged.HitCount(4))
	assert.Equal(t, uint64(2), a.HitCount(1), "inputs are left untouched")
	assert.NotNil(t, MergeAll().ProbeHits)
}
