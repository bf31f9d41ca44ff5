package util

import (
	"strconv"
)

// FormatSeconds renders a timing value the way it appears in exported
// design files: up to three decimal places, trailing zeros trimmed.
func FormatSeconds(v float64) string {
	s := strconv.FormatFloat(v, 'f', 3, 64)
	// Trim trailing zeros but keep at least one digit after the point,
	// then drop a bare trailing point.
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}

// FormatWeight renders a contrast weight ("1", "-1") without a decimal
// point when the value is integral.
func FormatWeight(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
