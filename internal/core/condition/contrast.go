package condition

import (
	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/core/model"
)

// contrastPairs enumerates the full contrast catalog as (plus, minus)
// index pairs over CueFamilies, -1 meaning the baseline. Order is
// fixed: each family's _others against baseline, then all six ordered
// pairs among the _others conditions (sign matters, so both directions
// appear).
var contrastPairs = [][2]int{
	{0, -1}, {1, -1}, {2, -1},
	{1, 2}, {2, 1},
	{1, 0}, {2, 0},
	{0, 1}, {0, 2},
}

// BuildContrasts derives the contrast table from the condition catalog.
// A contrast is emitted only when both of its labels are present; a
// session lacking a cue family silently loses every contrast that
// references it. The result order follows the fixed catalog above.
func BuildContrasts(catalog []string) []model.Contrast {
	present := make(map[string]bool, len(catalog))
	for _, label := range catalog {
		present[label] = true
	}

	label := func(i int) string {
		if i < 0 {
			return Baseline
		}
		return CueFamilies[i].OthersLabel()
	}

	contrasts := make([]model.Contrast, 0, len(contrastPairs))
	for _, pair := range contrastPairs {
		plus, minus := label(pair[0]), label(pair[1])
		if !present[plus] || !present[minus] {
			continue
		}
		contrasts = append(contrasts, model.Contrast{
			Name:       plus + " > " + minus,
			Conditions: [2]string{plus, minus},
			Weights:    [2]float64{1, -1},
		})
	}
	return contrasts
}

// BuildDesign runs the full transformation for one session: classify,
// group, and derive contrasts. It is the only entry point the rest of
// the program uses, so every consumer sees the same labels.
func BuildDesign(trials []model.TrialRecord) (model.Design, error) {
	labeled, err := Classify(trials)
	if err != nil {
		return model.Design{}, err
	}
	catalog, timings := Group(labeled)
	return model.Design{
		Trials:     labeled,
		Conditions: catalog,
		Timings:    timings,
		Contrasts:  BuildContrasts(catalog),
	}, nil
}
