package formatter

import (
	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/core/model"
)

// ConditionSummary is one condition's row in a report.
type ConditionSummary struct {
	Condition  string  `json:"condition"`
	Trials     int     `json:"trials"`
	FirstOnset float64 `json:"firstOnset"`
	LastOnset  float64 `json:"lastOnset"`
}

// SessionSummary is the per-session view rendered by the formatters.
type SessionSummary struct {
	SessionId  string             `json:"sessionId"`
	FilePath   string             `json:"filePath"`
	Trials     int                `json:"trials"`
	Conditions []ConditionSummary `json:"conditions"`
	Contrasts  []string           `json:"contrasts"`
}

// Formatter renders session summaries to stdout.
type Formatter interface {
	Format(sessions []SessionSummary) error
}

// NewSessionSummary derives the report view from a computed design.
// Condition order follows the design's catalog, so every output format
// lists conditions the same way.
func NewSessionSummary(sessionId, filePath string, design *model.Design) SessionSummary {
	summary := SessionSummary{
		SessionId:  sessionId,
		FilePath:   filePath,
		Trials:     len(design.Trials),
		Conditions: make([]ConditionSummary, 0, len(design.Conditions)),
		Contrasts:  make([]string, 0, len(design.Contrasts)),
	}

	for _, label := range design.Conditions {
		timing := design.Timings[label]
		cs := ConditionSummary{
			Condition: label,
			Trials:    len(timing.Onsets),
		}
		if len(timing.Onsets) > 0 {
			cs.FirstOnset = timing.Onsets[0]
			cs.LastOnset = timing.Onsets[len(timing.Onsets)-1]
		}
		summary.Conditions = append(summary.Conditions, cs)
	}

	for _, c := range design.Contrasts {
		summary.Contrasts = append(summary.Contrasts, c.Name)
	}

	return summary
}
