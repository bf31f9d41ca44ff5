package condition

import (
	"sort"
	"strings"

	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/core/model"
)

// Baseline is the resting-interval condition label. Baseline trials are
// not a cue family and pass through the classifier unchanged.
const Baseline = "FIXATION"

const (
	firstSuffix  = "_first"
	othersSuffix = "_others"
)

// CueFamily is one of the mutually exclusive cue categories, matched by
// a literal prefix on the trial type string.
type CueFamily struct {
	Name   string
	Prefix string
}

// FirstLabel returns the condition label for the family's
// chronologically earliest trial.
func (f CueFamily) FirstLabel() string {
	return f.Name + firstSuffix
}

// OthersLabel returns the condition label for every remaining trial of
// the family.
func (f CueFamily) OthersLabel() string {
	return f.Name + othersSuffix
}

// CueFamilies is the fixed set of cue categories. "CS-" never collides
// with "CSS"/"CSR" lexically, but membership still excludes any trial
// matching another family's prefix so the families stay disjoint by
// construction.
var CueFamilies = []CueFamily{
	{Name: "CS-", Prefix: "CS-"},
	{Name: "CSS", Prefix: "CSS"},
	{Name: "CSR", Prefix: "CSR"},
}

// memberOf reports whether trialType belongs to family f: it must match
// f's prefix and no other family's prefix.
func memberOf(trialType string, f CueFamily) bool {
	if !strings.HasPrefix(trialType, f.Prefix) {
		return false
	}
	for _, other := range CueFamilies {
		if other.Name != f.Name && strings.HasPrefix(trialType, other.Prefix) {
			return false
		}
	}
	return true
}

// Validate checks the trial collection before any labeling happens.
// It returns ErrEmptyInput for a zero-record collection and a
// *SchemaError for the first record with a missing or invalid required
// field. Once Validate passes, Classify cannot fail.
func Validate(trials []model.TrialRecord) error {
	if len(trials) == 0 {
		return ErrEmptyInput
	}
	for i, t := range trials {
		if t.Type == "" {
			return &SchemaError{Row: i, Field: "trial_type", Reason: "is empty"}
		}
		if t.Onset < 0 || t.Onset != t.Onset {
			return &SchemaError{Row: i, Field: "onset", Reason: "must be a non-negative number of seconds"}
		}
		if t.Duration < 0 || t.Duration != t.Duration {
			return &SchemaError{Row: i, Field: "duration", Reason: "must be a non-negative number of seconds"}
		}
	}
	return nil
}

// Classify assigns exactly one condition label to every trial. For each
// non-empty cue family, the earliest trial by onset (ties broken by
// input order) becomes <family>_first and the rest <family>_others.
// Every other trial keeps its trial type as its label. The returned
// slice is a new allocation: the input is never mutated, and labels are
// keyed by value, not by positional identity.
//
// Classify is the single authoritative source of condition labels;
// downstream consumers must not re-derive labels from trial types.
func Classify(trials []model.TrialRecord) ([]model.LabeledTrial, error) {
	if err := Validate(trials); err != nil {
		return nil, err
	}

	labeled := make([]model.LabeledTrial, len(trials))
	for i, t := range trials {
		labeled[i] = model.LabeledTrial{
			TrialRecord: t,
			Condition:   t.Type,
			Index:       i,
		}
	}

	for _, family := range CueFamilies {
		var members []int
		for i := range labeled {
			if memberOf(labeled[i].Type, family) {
				members = append(members, i)
			}
		}
		if len(members) == 0 {
			// A session may legitimately lack a cue family.
			continue
		}

		// Stable sort keeps input order for equal onsets.
		sort.SliceStable(members, func(a, b int) bool {
			return labeled[members[a]].Onset < labeled[members[b]].Onset
		})

		labeled[members[0]].Condition = family.FirstLabel()
		for _, i := range members[1:] {
			labeled[i].Condition = family.OthersLabel()
		}
	}

	return labeled, nil
}
