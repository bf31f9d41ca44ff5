package formatter

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/XiaoqianXiao/hyak-narsad-remove/internal/util"
)

type TableFormatter struct {
	headers []string
}

func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		headers: []string{
			"Session", "Condition", "Trials", "First Onset", "Last Onset",
		},
	}
}

func (f *TableFormatter) Format(sessions []SessionSummary) error {
	rows := f.buildRows(sessions)
	widths := f.calculateColumnWidths(rows)
	f.clampToTerminal(rows, widths)

	f.printBorder(widths, "top")
	f.printRow(f.headers, widths, "header")
	f.printBorder(widths, "middle")

	totalTrials := 0
	for i, session := range sessions {
		for _, row := range rows[i] {
			f.printRow(row, widths, "data")
		}
		totalTrials += session.Trials
		// The spanning cell plus its "│ " and " │" framing must add up
		// to the same width as a bordered row.
		fmt.Printf("│ %s │\n", padCell(
			fmt.Sprintf("%d contrasts", len(session.Contrasts)),
			totalWidth(widths)-4, false))
		if i < len(sessions)-1 {
			f.printBorder(widths, "middle")
		}
	}

	f.printBorder(widths, "middle")
	f.printRow([]string{
		"Total", "", fmt.Sprintf("%d", totalTrials), "", "",
	}, widths, "data")
	f.printBorder(widths, "bottom")

	return nil
}

// buildRows renders one row per condition; the session column is only
// filled on each session's first row.
func (f *TableFormatter) buildRows(sessions []SessionSummary) [][][]string {
	rows := make([][][]string, len(sessions))
	for i, session := range sessions {
		sessionRows := make([][]string, 0, len(session.Conditions))
		for j, cond := range session.Conditions {
			sessionCell := ""
			if j == 0 {
				sessionCell = session.SessionId
			}
			sessionRows = append(sessionRows, []string{
				sessionCell,
				cond.Condition,
				fmt.Sprintf("%d", cond.Trials),
				util.FormatSeconds(cond.FirstOnset) + "s",
				util.FormatSeconds(cond.LastOnset) + "s",
			})
		}
		rows[i] = sessionRows
	}
	return rows
}

func (f *TableFormatter) calculateColumnWidths(rows [][][]string) []int {
	widths := make([]int, len(f.headers))
	for i, header := range f.headers {
		widths[i] = runewidth.StringWidth(header)
	}

	for _, sessionRows := range rows {
		for _, row := range sessionRows {
			for i, value := range row {
				if w := runewidth.StringWidth(value); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}

	return widths
}

// clampToTerminal truncates the two label columns when the table would
// overflow the terminal. Non-terminal output (pipes, files) is left
// untouched.
func (f *TableFormatter) clampToTerminal(rows [][][]string, widths []int) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return
	}
	termWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || termWidth <= 0 {
		return
	}

	for overflow := totalWidth(widths) - termWidth; overflow > 0; overflow = totalWidth(widths) - termWidth {
		// Shrink the widest of the label columns (session, condition).
		target := 0
		if widths[1] > widths[0] {
			target = 1
		}
		if widths[target] <= runewidth.StringWidth(f.headers[target]) {
			return
		}
		widths[target]--
		for _, sessionRows := range rows {
			for _, row := range sessionRows {
				row[target] = runewidth.Truncate(row[target], widths[target], "…")
			}
		}
	}
}

func totalWidth(widths []int) int {
	// Borders and padding: "│ " + " │ " per column boundary + " │".
	total := 1
	for _, w := range widths {
		total += w + 3
	}
	return total
}

func (f *TableFormatter) printBorder(widths []int, borderType string) {
	var left, middle, right string

	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	case "bottom":
		left, middle, right = "└", "┴", "┘"
	}

	fmt.Print(left)
	for i, width := range widths {
		fmt.Print(strings.Repeat("─", width+2))
		if i < len(widths)-1 {
			fmt.Print(middle)
		}
	}
	fmt.Println(right)
}

func (f *TableFormatter) printRow(values []string, widths []int, rowType string) {
	fmt.Print("│")
	for i, value := range values {
		// Label columns left-aligned, numeric columns right-aligned.
		leftAlign := i <= 1 || rowType == "header"
		fmt.Printf(" %s │", padCell(value, widths[i], !leftAlign))
	}
	fmt.Println()
}

// padCell pads by display width, which differs from len(value) for
// wide runes in condition labels.
func padCell(value string, width int, rightAlign bool) string {
	gap := width - runewidth.StringWidth(value)
	if gap <= 0 {
		return value
	}
	if rightAlign {
		return strings.Repeat(" ", gap) + value
	}
	return value + strings.Repeat(" ", gap)
}
