package report

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/covprobe/pkg/covdata"
	"github.com/Sumatoshi-tech/covprobe/pkg/covmap"
)

// ErrNoMapForFile is returned when a report is requested for a file the map set does not know.
var ErrNoMapForFile = errors.New("no coverage map found for file")

// Build synthesizes the report of one file. A nil data is treated as a run
// with no hits. Probes absent from data count as zero.
func Build(m *covmap.Map, data *covdata.CoverageData) *Report {
	r := New(m.File)

	r.Lines = buildLines(m, data)
	r.Functions = buildFunctions(m, data)
	r.Branches = buildBranches(m, data)
	r.Summary = r.calculateSummary()

	return r
}

// buildLines takes, per line, the highest count among that line's probes.
func buildLines(m *covmap.Map, data *covdata.CoverageData) []LineCoverage {
	hits := make(map[uint32]uint64)

	for _, p := range m.LineProbes() {
		count := data.HitCount(p.ID)

		if prev, ok := hits[p.Location.Line]; !ok || count > prev {
			hits[p.Location.Line] = count
		}
	}

	lines := make([]LineCoverage, 0, len(hits))

	for line, count := range hits {
		lines = append(lines, LineCoverage{Line: line, HitCount: count, Covered: count > 0})
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].Line < lines[j].Line })

	return lines
}

func buildFunctions(m *covmap.Map, data *covdata.CoverageData) []FunctionCoverage {
	functions := make([]FunctionCoverage, 0, len(m.Functions))

	for _, f := range m.Functions {
		count := data.HitCount(f.EntryProbe)

		functions = append(functions, FunctionCoverage{
			Name:      f.Name,
			StartLine: f.StartLine,
			EndLine:   f.EndLine,
			HitCount:  count,
			Covered:   count > 0,
		})
	}

	return functions
}

// BuildAll builds one report per map of the set, sorted by file.
func BuildAll(set *covmap.Set, data *covdata.CoverageData) []*Report {
	maps := set.Maps()
	reports := make([]*Report, 0, len(maps))

	for _, m := range maps {
		reports = append(reports, Build(m, data))
	}

	return reports
}

// BuildAllParallel is BuildAll spread over at most workers goroutines.
// Workers <= 0 means no limit. The result order matches BuildAll.
func BuildAllParallel(ctx context.Context, set *covmap.Set, data *covdata.CoverageData, workers int) ([]*Report, error) {
	maps := set.Maps()
	reports := make([]*Report, len(maps))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, m := range maps {
		g.Go(func() error {
			err := gctx.Err()
			if err != nil {
				return err
			}

			reports[i] = Build(m, data)

			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, fmt.Errorf("build reports: %w", err)
	}

	return reports, nil
}

// ForFile builds the report of a single file of the set.
func ForFile(set *covmap.Set, file string, data *covdata.CoverageData) (*Report, error) {
	m, ok := set.Get(file)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoMapForFile, file)
	}

	return Build(m, data), nil
}
