package sim

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TrialResult is the outcome of a single fragment generation, tagged with the
// trial index that produced it. Results are immutable once recorded.
type TrialResult struct {
	Trial  int
	Depth  int
	Status Status
}

// Summary is the aggregated outcome of one batch, keyed by the configuration
// that produced it. This is the object handed to reporting collaborators.
type Summary struct {
	ConfigID       string             `json:"config_id"`
	TrialCount     int                `json:"trial_count"`
	SkippedTrials  int                `json:"skipped_trials"`
	MeanDepth      float64            `json:"mean_depth"`
	DepthHistogram map[int]int        `json:"depth_histogram"`
	StatusCounts   map[Status]int     `json:"terminal_status_counts"`
	Percentiles    map[string]float64 `json:"percentiles,omitempty"`
}

// accumulator folds trial results into partial statistics. Each worker owns
// one, so no locking is needed during a batch; partials are merged once all
// workers are done. The fold is commutative, completion order cannot change
// the outcome.
type accumulator struct {
	count   int
	skipped int
	depths  map[int]int
	status  map[Status]int
}

func newAccumulator() *accumulator {
	return &accumulator{
		depths: make(map[int]int),
		status: make(map[Status]int),
	}
}

func (a *accumulator) add(r TrialResult) {
	a.count++
	a.depths[r.Depth]++
	a.status[r.Status]++
}

func (a *accumulator) skip() {
	a.skipped++
}

func (a *accumulator) merge(other *accumulator) {
	a.count += other.count
	a.skipped += other.skipped
	for depth, n := range other.depths {
		a.depths[depth] += n
	}
	for status, n := range other.status {
		a.status[status] += n
	}
}

// summarize reduces the merged accumulator to the reported statistics. The
// histogram is walked in sorted depth order so identical inputs always
// produce identical output, whatever order the trials completed in.
func (a *accumulator) summarize(configID string) Summary {
	s := Summary{
		ConfigID:       configID,
		TrialCount:     a.count,
		SkippedTrials:  a.skipped,
		DepthHistogram: a.depths,
		StatusCounts:   a.status,
	}
	if a.count == 0 {
		return s
	}

	depths := make([]int, 0, len(a.depths))
	for depth := range a.depths {
		depths = append(depths, depth)
	}
	sort.Ints(depths)

	xs := make([]float64, len(depths))
	ws := make([]float64, len(depths))
	for i, depth := range depths {
		xs[i] = float64(depth)
		ws[i] = float64(a.depths[depth])
	}

	s.MeanDepth = stat.Mean(xs, ws)
	s.Percentiles = map[string]float64{
		"p50": stat.Quantile(0.50, stat.Empirical, xs, ws),
		"p90": stat.Quantile(0.90, stat.Empirical, xs, ws),
		"p99": stat.Quantile(0.99, stat.Empirical, xs, ws),
	}
	return s
}
