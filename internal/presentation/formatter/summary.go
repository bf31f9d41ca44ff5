package formatter

import (
	"fmt"
	"sort"
	"strings"
)

type SummaryFormatter struct{}

func NewSummaryFormatter() *SummaryFormatter {
	return &SummaryFormatter{}
}

func (f *SummaryFormatter) Format(sessions []SessionSummary) error {
	totalTrials := 0
	totalContrasts := 0
	conditionCounts := make(map[string]int)

	for _, session := range sessions {
		totalTrials += session.Trials
		totalContrasts += len(session.Contrasts)
		for _, cond := range session.Conditions {
			conditionCounts[cond.Condition] += cond.Trials
		}
	}

	conditions := make([]string, 0, len(conditionCounts))
	for label := range conditionCounts {
		conditions = append(conditions, label)
	}
	sort.Strings(conditions)

	fmt.Println("Design Summary")
	fmt.Println(strings.Repeat("=", 40))
	fmt.Printf("Sessions:   %d\n", len(sessions))
	fmt.Printf("Trials:     %d\n", totalTrials)
	fmt.Printf("Contrasts:  %d\n", totalContrasts)
	fmt.Println()
	fmt.Println("Trials per condition (all sessions):")
	for _, label := range conditions {
		fmt.Printf("  %-20s %d\n", label, conditionCounts[label])
	}

	return nil
}
