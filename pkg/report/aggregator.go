package report

// AggregateSummaries folds the summaries of reports left to right.
// Nil reports are skipped. Percentages of the result are computed from the
// summed counters, not averaged per file.
func AggregateSummaries(reports []*Report) Summary {
	var total Summary

	for _, r := range reports {
		if r == nil {
			continue
		}

		total.Merge(r.Summary)
	}

	return total
}

// Aggregator accumulates per-file reports into a combined summary.
type Aggregator struct {
	summary Summary
	files   []string
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add folds reports into the running summary.
func (a *Aggregator) Add(reports ...*Report) {
	for _, r := range reports {
		if r == nil {
			continue
		}

		a.summary.Merge(r.Summary)
		a.files = append(a.files, r.File)
	}
}

// Summary returns the combined summary so far.
func (a *Aggregator) Summary() Summary {
	return a.summary
}

// Files returns the files folded so far, in the order they were added.
func (a *Aggregator) Files() []string {
	return append([]string(nil), a.files...)
}
