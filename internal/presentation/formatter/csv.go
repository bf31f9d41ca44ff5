package formatter

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/util"
)

type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

func (f *CSVFormatter) Format(sessions []SessionSummary) error {
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	headers := []string{
		"Session", "Condition", "Trials", "First Onset", "Last Onset", "Contrasts",
	}
	if err := w.Write(headers); err != nil {
		return err
	}

	for _, session := range sessions {
		for _, cond := range session.Conditions {
			record := []string{
				session.SessionId,
				cond.Condition,
				fmt.Sprintf("%d", cond.Trials),
				util.FormatSeconds(cond.FirstOnset),
				util.FormatSeconds(cond.LastOnset),
				fmt.Sprintf("%d", len(session.Contrasts)),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
	}

	return nil
}
