package condition

import (
	"math"
	"sort"

	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/core/model"
)

// TimingPrecision is the number of decimal places kept in timing
// arrays. Sub-millisecond noise from events-file arithmetic otherwise
// leaks into the design matrix.
const TimingPrecision = 3

// Group aggregates labeled trials into the ordered condition catalog
// and the per-condition timing arrays. The catalog is lexicographic for
// reproducible design-matrix column ordering; within each condition the
// arrays are onset-ascending with input order breaking ties.
//
// A label appears in the catalog only if at least one trial carries it:
// a cue family reduced to a single occurrence yields a _first condition
// and no _others condition.
func Group(trials []model.LabeledTrial) ([]string, map[string]model.Timing) {
	byCondition := make(map[string][]model.LabeledTrial)
	for _, t := range trials {
		byCondition[t.Condition] = append(byCondition[t.Condition], t)
	}

	catalog := make([]string, 0, len(byCondition))
	for label := range byCondition {
		catalog = append(catalog, label)
	}
	sort.Strings(catalog)

	timings := make(map[string]model.Timing, len(catalog))
	for _, label := range catalog {
		group := byCondition[label]
		sort.SliceStable(group, func(a, b int) bool {
			return group[a].Onset < group[b].Onset
		})

		timing := model.Timing{
			Onsets:     make([]float64, len(group)),
			Durations:  make([]float64, len(group)),
			Amplitudes: make([]float64, len(group)),
		}
		for i, t := range group {
			timing.Onsets[i] = roundTiming(t.Onset)
			timing.Durations[i] = roundTiming(t.Duration)
			timing.Amplitudes[i] = roundTiming(t.Amplitude)
		}
		timings[label] = timing
	}

	return catalog, timings
}

func roundTiming(v float64) float64 {
	shift := math.Pow10(TimingPrecision)
	return math.Round(v*shift) / shift
}
