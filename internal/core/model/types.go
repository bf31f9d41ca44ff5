package model

// TrialRecord is one row of an events table. Onset and Duration are in
// seconds. Amplitude defaults to 1.0 when the events file carries no
// amplitude column; the loader applies that default, so a TrialRecord
// reaching the core is always fully populated.
type TrialRecord struct {
	Type      string  `json:"trialType"`
	Onset     float64 `json:"onset"`
	Duration  float64 `json:"duration"`
	Amplitude float64 `json:"amplitude"`
}

// LabeledTrial is a TrialRecord plus the condition label assigned by the
// classifier. Index is the trial's position in the input collection and
// is the tie-breaker for equal onsets.
type LabeledTrial struct {
	TrialRecord
	Condition string `json:"condition"`
	Index     int    `json:"index"`
}

// Timing holds the parallel per-condition arrays handed to the GLM
// engine, onset-ascending, rounded to fixed precision.
type Timing struct {
	Onsets     []float64 `json:"onsets"`
	Durations  []float64 `json:"durations"`
	Amplitudes []float64 `json:"amplitudes"`
}

// Contrast is a signed comparison between two condition labels.
// Conditions[0] carries Weights[0] (+1), Conditions[1] carries
// Weights[1] (-1), so Name reads "<plus> > <minus>".
type Contrast struct {
	Name       string     `json:"name"`
	Conditions [2]string  `json:"conditions"`
	Weights    [2]float64 `json:"weights"`
}

// Design is the complete output for one session: the labeled trial
// table, the ordered condition catalog, the per-condition timing
// arrays, and the contrast table.
type Design struct {
	Trials     []LabeledTrial    `json:"trials"`
	Conditions []string          `json:"conditions"`
	Timings    map[string]Timing `json:"timings"`
	Contrasts  []Contrast        `json:"contrasts"`
}

// SessionDesign wraps a Design with the identity of the events file it
// was derived from. Used by the file cache to decide whether a cached
// design is still valid.
type SessionDesign struct {
	SessionId          string `json:"sessionId"`
	FilePath           string `json:"filePath"`
	Design             Design `json:"design"`
	LastModified       int64  `json:"lastModified"`
	FileSize           int64  `json:"fileSize"`
	Inode              uint64 `json:"inode"`
	ContentFingerprint string `json:"contentFingerprint,omitempty"`
}

// TrialCount returns the number of trials carrying the given condition
// label.
func (d *Design) TrialCount(condition string) int {
	n := 0
	for _, t := range d.Trials {
		if t.Condition == condition {
			n++
		}
	}
	return n
}
